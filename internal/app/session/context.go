package session

import (
	"context"
)

type contextKey string

const stateKey contextKey = "session_state"

// WithState returns a copy of ctx carrying s.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

// FromContext extracts the *State injected by WithState, or nil.
func FromContext(ctx context.Context) *State {
	s, _ := ctx.Value(stateKey).(*State)
	return s
}
