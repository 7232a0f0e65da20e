package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botclient/internal/pkg/errs"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func testConfig(url string) Config {
	return Config{
		URL:               url,
		DialTimeout:       time.Second,
		ReconnectDelay:    20 * time.Millisecond,
		MaxReconnectDelay: 50 * time.Millisecond,
	}
}

// failingConfig never connects; every dial fails immediately.
func failingConfig() Config {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Transports = []string{"fake"}
	cfg.Dialers = map[string]DialFunc{
		"fake": func(context.Context, *url.URL, http.CookieJar) (Transport, error) {
			return nil, errors.New("connection refused")
		},
	}
	return cfg
}

// nextEvent waits for the first event of kind, skipping others.
func nextEvent(t *testing.T, c *Conn, kind EventKind) Event {
	t.Helper()

	timeout := time.After(waitFor)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "events closed while waiting for %s", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			require.FailNow(t, "timed out waiting for event", kind.String())
		}
	}
}

func TestManager_AbsentUntilRequested(t *testing.T) {
	m := NewManager(failingConfig())

	assert.Equal(t, StateAbsent, m.State())
	m.Disconnect()
	assert.Equal(t, StateAbsent, m.State())
}

func TestManager_GetConnectionIsSingleton(t *testing.T) {
	m := NewManager(failingConfig())
	defer m.Disconnect()

	first := m.GetConnection()

	var wg sync.WaitGroup
	handles := make([]*Conn, 50)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = m.GetConnection()
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, first, h)
	}
	assert.Equal(t, StateConnecting, m.State())
}

func TestManager_DisconnectThenGetConnectionReturnsNewHandle(t *testing.T) {
	m := NewManager(failingConfig())

	first := m.GetConnection()
	m.Disconnect()

	assert.Equal(t, StateAbsent, m.State())
	assert.Equal(t, StateAbsent, first.State())
	select {
	case <-first.Done():
	default:
		t.Fatal("Disconnect returned before the handle shut down")
	}

	second := m.GetConnection()
	defer m.Disconnect()

	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestManager_DisconnectIsIdempotent(t *testing.T) {
	m := NewManager(failingConfig())
	c := m.GetConnection()

	m.Disconnect()
	m.Disconnect()
	c.Close()

	assert.Equal(t, StateAbsent, m.State())
}

func TestConn_DialFailureIsReportedAndRetried(t *testing.T) {
	m := NewManager(failingConfig())
	defer m.Disconnect()

	c := m.GetConnection()

	first := nextEvent(t, c, EventError)
	assert.True(t, errs.Is(first.Err, errs.ErrConnectionFailure))
	second := nextEvent(t, c, EventError)
	assert.Error(t, second.Err)

	assert.Equal(t, StateConnecting, m.State())
}

func TestConn_WebsocketConnectsAndExchangesEvents(t *testing.T) {
	srv := newEIOServer(t, func(s *eioServer) {
		s.afterConnect = []string{`42["welcome",{"n":1}]`}
	})
	m := NewManager(testConfig(srv.URL()))
	defer m.Disconnect()

	c := m.GetConnection()

	nextEvent(t, c, EventConnect)
	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, TransportWebsocket, c.Transport())

	ev := nextEvent(t, c, EventMessage)
	assert.Equal(t, "welcome", ev.Name)
	require.Len(t, ev.Args, 1)
	assert.JSONEq(t, `{"n":1}`, string(ev.Args[0]))

	require.NoError(t, c.Emit(context.Background(), "message", map[string]string{"content": "hi"}))
	require.Eventually(t, func() bool {
		return srv.hasReceived(`42["message",{"content":"hi"}]`)
	}, waitFor, tick)

	m.Disconnect()
	assert.Eventually(t, func() bool { return srv.hasReceived("41") }, waitFor, tick,
		"client sends a namespace disconnect on close")
}

func TestConn_CookieJarTravelsWithHandshake(t *testing.T) {
	srv := newEIOServer(t, nil)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(srv.URL())
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc"}})

	cfg := testConfig(srv.URL())
	cfg.Jar = jar
	m := NewManager(cfg)
	defer m.Disconnect()

	nextEvent(t, m.GetConnection(), EventConnect)
	assert.Contains(t, srv.Cookies(), "abc")
}

func TestConn_FallsBackToPolling(t *testing.T) {
	srv := newEIOServer(t, func(s *eioServer) {
		s.websocket = false
		s.afterConnect = []string{`42["welcome"]`}
	})
	m := NewManager(testConfig(srv.URL()))
	defer m.Disconnect()

	c := m.GetConnection()

	nextEvent(t, c, EventConnect)
	assert.Equal(t, TransportPolling, c.Transport())

	ev := nextEvent(t, c, EventMessage)
	assert.Equal(t, "welcome", ev.Name)
	assert.Empty(t, ev.Args)

	require.NoError(t, c.Emit(context.Background(), "join", map[string]any{"session_id": 1}))
	require.Eventually(t, func() bool {
		return srv.hasReceived(`42["join",{"session_id":1}]`)
	}, waitFor, tick)
}

func TestConn_PollingOnlyTransportList(t *testing.T) {
	srv := newEIOServer(t, nil)
	cfg := testConfig(srv.URL())
	cfg.Transports = []string{TransportPolling}
	m := NewManager(cfg)
	defer m.Disconnect()

	c := m.GetConnection()
	nextEvent(t, c, EventConnect)
	assert.Equal(t, TransportPolling, c.Transport())
}

func TestConn_ServerDisconnectReturnsManagerToAbsent(t *testing.T) {
	srv := newEIOServer(t, func(s *eioServer) {
		s.afterConnect = []string{"41"}
	})
	m := NewManager(testConfig(srv.URL()))
	defer m.Disconnect()

	c := m.GetConnection()

	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("handle did not shut down after server disconnect")
	}
	require.Eventually(t, func() bool { return m.State() == StateAbsent }, waitFor, tick)

	next := m.GetConnection()
	assert.NotSame(t, c, next)
}

func TestConn_OtherNamespaceDisconnectIsIgnored(t *testing.T) {
	srv := newEIOServer(t, func(s *eioServer) {
		s.afterConnect = []string{"41/admin,", `42/admin,["secret"]`, `42["still-here"]`}
	})
	m := NewManager(testConfig(srv.URL()))
	defer m.Disconnect()

	c := m.GetConnection()

	nextEvent(t, c, EventConnect)
	ev := nextEvent(t, c, EventMessage)
	assert.Equal(t, "still-here", ev.Name, "events for other namespaces are not delivered")
	assert.Equal(t, StateConnected, m.State())
	assert.Same(t, c, m.Current())
}

func TestManager_CurrentNeverCreates(t *testing.T) {
	m := NewManager(failingConfig())

	assert.Nil(t, m.Current())
	assert.Equal(t, StateAbsent, m.State())

	c := m.GetConnection()
	assert.Same(t, c, m.Current())

	m.Disconnect()
	assert.Nil(t, m.Current())
	assert.Equal(t, StateAbsent, m.State())
}

func TestConn_ReconnectsAfterDrop(t *testing.T) {
	srv := newEIOServer(t, func(s *eioServer) {
		s.dropFirst = true
	})
	m := NewManager(testConfig(srv.URL()))
	defer m.Disconnect()

	c := m.GetConnection()

	nextEvent(t, c, EventConnect)
	nextEvent(t, c, EventDisconnect)
	nextEvent(t, c, EventConnect)

	assert.Same(t, c, m.GetConnection(), "reconnect keeps the same handle")
	assert.GreaterOrEqual(t, srv.Connections(), 2)
	assert.Equal(t, StateConnected, m.State())
}

func TestConn_EmitStates(t *testing.T) {
	m := NewManager(failingConfig())
	c := m.GetConnection()

	err := c.Emit(context.Background(), "message")
	assert.True(t, errs.Is(err, errs.ErrConnectionNotReady))

	m.Disconnect()

	err = c.Emit(context.Background(), "message")
	assert.True(t, errs.Is(err, errs.ErrConnectionClosed))
}

func TestConn_EventsClosedAfterShutdown(t *testing.T) {
	m := NewManager(failingConfig())
	c := m.GetConnection()
	m.Disconnect()

	for range c.Events() {
	}
	assert.Equal(t, StateAbsent, c.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "absent", StateAbsent.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
}
