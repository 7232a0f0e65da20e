/*
Package realtime owns the application's single real-time connection to the backend.

The backend speaks Socket.IO v5 over Engine.IO v4. The Manager hands out at most one
live Conn at a time: GetConnection creates a handle on first use and returns the same
handle until Disconnect closes it or the server disconnects the namespace. A handle
dials in the background, preferring the websocket transport and falling back to
long-polling, and reconnects with exponential backoff when a transport drops.

Failures never escape as panics or error returns. They are reported as EventError
values on the handle's Events channel.
*/
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"botclient/internal/pkg/logx"
)

// State is the observable lifecycle of the channel.
type State int

const (
	// StateAbsent means no handle exists (or the handle has been closed).
	StateAbsent State = iota

	// StateConnecting means a handle exists and is dialing or re-dialing.
	StateConnecting

	// StateConnected means the namespace handshake has completed.
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "absent"
	}
}

const (
	// DefaultPath is the Engine.IO endpoint path.
	DefaultPath = "/socket.io/"

	defaultDialTimeout       = 10 * time.Second
	defaultReconnectDelay    = 500 * time.Millisecond
	defaultMaxReconnectDelay = 10 * time.Second
	defaultEventBuffer       = 64
)

// DefaultTransports is the transport preference order.
var DefaultTransports = []string{TransportWebsocket, TransportPolling}

// Config holds the settings of a Manager.
type Config struct {
	// URL is the backend origin, e.g. "http://localhost:5001".
	URL string

	// Path is the Engine.IO endpoint path. Defaults to DefaultPath.
	Path string

	// Transports lists transport names in preference order. Defaults to DefaultTransports.
	Transports []string

	// Jar carries the backend session cookie. Share it with the API client.
	Jar http.CookieJar

	// Dialers maps transport names to dial functions. Defaults to DefaultDialers.
	Dialers map[string]DialFunc

	// DialTimeout bounds one dial and handshake.
	DialTimeout time.Duration

	// ReconnectDelay and MaxReconnectDelay bound the reconnect backoff.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration

	// EventBuffer is the capacity of each handle's Events channel.
	EventBuffer int
}

func (cfg Config) withDefaults() Config {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if len(cfg.Transports) == 0 {
		cfg.Transports = DefaultTransports
	}
	if cfg.Dialers == nil {
		cfg.Dialers = DefaultDialers()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = max(defaultMaxReconnectDelay, cfg.ReconnectDelay)
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	return cfg
}

// Manager guards the single connection handle. It is safe for concurrent use.
type Manager struct {
	cfg Config

	// mu protects conn.
	mu   sync.Mutex
	conn *Conn

	logger zerolog.Logger
}

// NewManager constructs a Manager. No connection is opened until GetConnection.
func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()

	logger := logx.Component("realtime")
	for _, name := range cfg.Transports {
		if _, ok := cfg.Dialers[name]; !ok {
			logger.Warn().Str("transport", name).Msg("Unknown transport ignored")
		}
	}

	return &Manager{
		cfg:    cfg,
		logger: logger,
	}
}

// GetConnection returns the live handle, creating and starting one when none exists.
// Repeated calls without an intervening Disconnect return the same handle.
func (m *Manager) GetConnection() *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && m.conn.State() != StateAbsent {
		return m.conn
	}

	target, err := mergeTarget(m.cfg.URL, m.cfg.Path)
	if err != nil {
		// The handle still starts; every attempt reports the bad URL as an EventError.
		m.logger.Error().Err(err).Str("socket_url", m.cfg.URL).Msg("Invalid socket URL")
	}

	c := newConn(m.cfg, target)
	m.conn = c

	go c.run()
	go m.release(c)

	m.logger.Info().Str("conn_id", c.ID()).Msg("Real-time connection requested")
	return c
}

// release clears the reference once c shuts down, unless a newer handle replaced it.
func (m *Manager) release(c *Conn) {
	<-c.Done()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == c {
		m.conn = nil
		m.logger.Debug().Str("conn_id", c.ID()).Msg("Real-time connection released")
	}
}

// Disconnect closes the live handle, if any, and waits until it has shut down.
// Calling it with no handle is a no-op.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return
	}

	c := m.conn
	m.conn = nil
	c.Close()
}

// Current returns the live handle without creating one, or nil when there is none.
func (m *Manager) Current() *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.conn.State() == StateAbsent {
		return nil
	}
	return m.conn
}

// State reports Absent when there is no handle, otherwise the handle's state.
func (m *Manager) State() State {
	m.mu.Lock()
	c := m.conn
	m.mu.Unlock()

	if c == nil {
		return StateAbsent
	}
	return c.State()
}
