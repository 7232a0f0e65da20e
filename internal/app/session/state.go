/*
Package session holds the process-wide authentication state.

A State is hydrated once from the persisted identity store, mutated only through
Login and Logout, and queried through derived accessors recomputed on every read.
Logout tears down the real-time channel before the identity is cleared, so the
channel is never connected while the state reads as logged out.
*/
package session

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"botclient/internal/app/storage"
	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/logx"
)

// Teardown is the part of the real-time channel manager the session drives.
type Teardown interface {
	Disconnect()
}

// State is the session holder. It is safe for concurrent use.
type State struct {
	// mu makes Login and Logout atomic with respect to every reader.
	mu       sync.RWMutex
	identity Identity

	store   storage.Store
	channel Teardown

	// privileged is nil when the deployment has no roles.
	privileged map[string]struct{}

	logger zerolog.Logger
}

// Option configures a State.
type Option func(*State)

// WithChannel registers the real-time channel to tear down on logout.
func WithChannel(channel Teardown) Option {
	return func(s *State) {
		s.channel = channel
	}
}

// WithRoles enables role tracking; members of privileged may create chatbots.
func WithRoles(privileged ...string) Option {
	return func(s *State) {
		s.privileged = make(map[string]struct{}, len(privileged))
		for _, role := range privileged {
			s.privileged[role] = struct{}{}
		}
	}
}

// WithDefaultRoles enables role tracking with DefaultPrivilegedRoles.
func WithDefaultRoles() Option {
	return WithRoles(DefaultPrivilegedRoles...)
}

// NewState builds the session state, hydrating it from store.
func NewState(store storage.Store, opts ...Option) *State {
	s := &State{
		store:  store,
		logger: logx.Component("session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.identity = s.hydrate()

	s.logger.Debug().
		Bool("authenticated", !s.identity.IsZero()).
		Bool("roles_enabled", s.privileged != nil).
		Msg("Session hydrated")

	return s
}

func (s *State) hydrate() Identity {
	userID, _ := s.store.Get(KeyUserID)
	if userID == "" {
		return Identity{}
	}

	username, _ := s.store.Get(KeyUsername)
	identity := Identity{UserID: userID, Username: username}
	if s.privileged != nil {
		identity.Role, _ = s.store.Get(KeyRole)
	}
	return identity
}

// Login records a successful sign-in. userID must be non-empty; otherwise
// ErrInvalidLoginInput is returned and nothing changes. role is ignored when the
// deployment has no roles. Repeating a login with the same values is harmless.
func (s *State) Login(userID, username, role string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errs.NewError(errs.ErrInvalidLoginInput)
	}
	if s.privileged == nil {
		role = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = Identity{UserID: userID, Username: username, Role: role}

	s.store.Set(KeyUserID, userID)
	s.setOrRemove(KeyUsername, username)
	s.setOrRemove(KeyRole, role)

	s.logger.Info().Str("user_id", userID).Msg("Session logged in")
	return nil
}

// Logout tears down the real-time channel, then clears the identity in memory
// and in the store. Readers observe the whole change at once.
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel != nil {
		s.channel.Disconnect()
	}

	wasAuthenticated := !s.identity.IsZero()
	s.identity = Identity{}

	s.store.Remove(KeyUserID)
	s.store.Remove(KeyUsername)
	s.store.Remove(KeyRole)

	if wasAuthenticated {
		s.logger.Info().Msg("Session logged out")
	}
}

// Identity returns a snapshot of the current identity.
func (s *State) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.identity
}

// IsAuthenticated reports whether a user id is present.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return !s.identity.IsZero()
}

// RolesEnabled reports whether this deployment tracks roles at all.
func (s *State) RolesEnabled() bool {
	return s.privileged != nil
}

// CanCreateChatbots reports whether the current role is privileged.
// It is always false when roles are disabled.
func (s *State) CanCreateChatbots() bool {
	if s.privileged == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.privileged[s.identity.Role]
	return ok && !s.identity.IsZero()
}

func (s *State) setOrRemove(key, value string) {
	if value == "" {
		s.store.Remove(key)
		return
	}
	s.store.Set(key, value)
}
