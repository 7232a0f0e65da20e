package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/logx"
	"botclient/internal/pkg/randx"
)

// EventKind classifies what a Conn reports on its Events channel.
type EventKind int

const (
	// EventConnect fires each time the namespace handshake completes.
	EventConnect EventKind = iota

	// EventMessage carries a server-emitted event.
	EventMessage

	// EventDisconnect fires when a live transport drops or the server disconnects.
	EventDisconnect

	// EventError carries a ConnectionFailure. The handle keeps retrying afterwards.
	EventError
)

// String returns a lower-case name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventMessage:
		return "message"
	case EventDisconnect:
		return "disconnect"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from the channel.
type Event struct {
	Kind EventKind

	// Name and Args are set for EventMessage.
	Name string
	Args []json.RawMessage

	// Err is set for EventError and, when known, EventDisconnect.
	Err error
}

// errServerDisconnect ends the handle without a reconnect.
var errServerDisconnect = errors.New("server closed the namespace")

// Conn is one real-time connection handle. It dials in the background and
// reconnects on transport failure until Close is called or the server
// disconnects the namespace.
type Conn struct {
	id     string
	cfg    Config
	target *url.URL

	ctx    context.Context
	cancel context.CancelFunc

	// mu protects state and transport.
	mu        sync.Mutex
	state     State
	transport Transport

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

func newConn(cfg Config, target *url.URL) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	id := randx.ConnectionID()

	return &Conn{
		id:     id,
		cfg:    cfg,
		target: target,
		ctx:    ctx,
		cancel: cancel,
		state:  StateConnecting,
		events: make(chan Event, cfg.EventBuffer),
		done:   make(chan struct{}),
		logger: logx.Component("realtime").With().Str("conn_id", id).Logger(),
	}
}

// ID returns the handle's unique id.
func (c *Conn) ID() string {
	return c.id
}

// State returns StateConnecting, StateConnected, or StateAbsent once closed.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Transport returns the name of the live transport, or "" while not connected.
func (c *Conn) Transport() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.transport == nil {
		return ""
	}
	return c.transport.Name()
}

// Events delivers lifecycle notifications and server events. It is closed
// once the handle is done. Slow readers miss events rather than stall the channel.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Done is closed once the handle has shut down for good.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Emit sends an event with JSON-encodable args to the server.
func (c *Conn) Emit(ctx context.Context, name string, args ...any) error {
	c.mu.Lock()
	state, t := c.state, c.transport
	c.mu.Unlock()

	switch {
	case state == StateAbsent:
		return errs.NewError(errs.ErrConnectionClosed)
	case state != StateConnected || t == nil:
		return errs.NewError(errs.ErrConnectionNotReady)
	}

	data, err := encodeEvent(name, args...)
	if err != nil {
		return errs.NewError(errs.ErrEncodeFailed).WithCause(err)
	}

	if err := t.Send(ctx, Packet{Type: PacketMessage, Data: data}); err != nil {
		return errs.NewError(errs.ErrConnectionFailure).WithCause(err)
	}
	return nil
}

// Close disconnects the namespace, closes the transport and waits for the
// background loop to exit. It is safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		t, connected := c.transport, c.state == StateConnected
		c.state = StateAbsent
		c.mu.Unlock()

		if t != nil {
			if connected {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				_ = t.Send(ctx, Packet{Type: PacketMessage, Data: []byte{byte(MessageDisconnect)}})
				cancel()
			}
			_ = t.Close()
		}

		c.cancel()
		c.logger.Info().Msg("Connection closed by client")
	})

	<-c.done
}

// run is the dial and reconnect loop. It owns the events channel.
func (c *Conn) run() {
	defer func() {
		c.mu.Lock()
		c.state = StateAbsent
		c.transport = nil
		c.mu.Unlock()

		close(c.events)
		close(c.done)
	}()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.ReconnectDelay
	bo.MaxInterval = c.cfg.MaxReconnectDelay
	bo.MaxElapsedTime = 0

	attempt := func() error {
		err := c.session(bo)
		switch {
		case c.ctx.Err() != nil:
			return backoff.Permanent(c.ctx.Err())
		case errors.Is(err, errServerDisconnect):
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn().Err(err).Dur("retry_in", wait).Msg("Real-time connection attempt failed")
		c.publish(Event{Kind: EventError, Err: errs.NewError(errs.ErrConnectionFailure).WithCause(err)})
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(bo, c.ctx), notify)
	if errors.Is(err, errServerDisconnect) {
		c.logger.Info().Msg("Connection closed by server")
	}
}

// session dials one transport and serves it until it fails.
func (c *Conn) session(bo backoff.BackOff) error {
	t, err := c.dial()
	if err != nil {
		return err
	}
	defer t.Close()

	c.mu.Lock()
	if c.state == StateAbsent {
		c.mu.Unlock()
		return context.Canceled
	}
	c.transport = t
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.transport = nil
		if c.state == StateConnected {
			c.state = StateConnecting
		}
		c.mu.Unlock()
	}()

	hs, early, err := c.open(t)
	if err != nil {
		if errors.Is(err, errServerDisconnect) {
			c.publish(Event{Kind: EventError, Err: errs.NewError(errs.ErrConnectionFailure).WithCause(err)})
		}
		return err
	}

	c.mu.Lock()
	if c.state == StateAbsent {
		c.mu.Unlock()
		return context.Canceled
	}
	c.state = StateConnected
	c.mu.Unlock()

	bo.Reset()
	c.logger.Info().Str("transport", t.Name()).Str("sid", hs.SID).Msg("Real-time connection established")
	c.publish(Event{Kind: EventConnect})

	err = c.dispatch(t, early)
	if err == nil {
		err = c.serve(t, hs)
	}
	if c.ctx.Err() == nil {
		c.publish(Event{Kind: EventDisconnect, Err: err})
	}
	return err
}

// dial tries each configured transport in preference order.
func (c *Conn) dial() (Transport, error) {
	if c.target == nil {
		return nil, fmt.Errorf("socket url is not usable")
	}

	var failures []error

	for _, name := range c.cfg.Transports {
		dial, ok := c.cfg.Dialers[name]
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.DialTimeout)
		t, err := dial(ctx, c.target, c.cfg.Jar)
		cancel()
		if err == nil {
			return t, nil
		}

		c.logger.Debug().Err(err).Str("transport", name).Msg("Transport dial failed")
		failures = append(failures, fmt.Errorf("%s: %w", name, err))
		if c.ctx.Err() != nil {
			break
		}
	}

	if len(failures) == 0 {
		return nil, fmt.Errorf("no usable transport in %v", c.cfg.Transports)
	}
	return nil, errors.Join(failures...)
}

// open runs the Engine.IO open and Socket.IO namespace handshakes. Packets that
// arrived after the namespace ack are returned for the live session.
func (c *Conn) open(t Transport) (Handshake, []Packet, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.DialTimeout)
	defer cancel()

	var hs Handshake
	opened := false
	var queue []Packet

	next := func() (Packet, error) {
		for len(queue) == 0 {
			packets, err := t.Receive(ctx)
			if err != nil {
				return Packet{}, err
			}
			queue = packets
		}
		p := queue[0]
		queue = queue[1:]
		return p, nil
	}

	for {
		p, err := next()
		if err != nil {
			return Handshake{}, nil, err
		}

		switch {
		case !opened:
			if p.Type != PacketOpen {
				return Handshake{}, nil, fmt.Errorf("expected open packet, got %q", p.Type)
			}
			if hs, err = parseHandshake(p.Data); err != nil {
				return Handshake{}, nil, err
			}
			opened = true

			connect := Packet{Type: PacketMessage, Data: []byte{byte(MessageConnect)}}
			if err := t.Send(ctx, connect); err != nil {
				return Handshake{}, nil, err
			}

		case p.Type == PacketPing:
			if err := t.Send(ctx, Packet{Type: PacketPong, Data: p.Data}); err != nil {
				return Handshake{}, nil, err
			}

		case p.Type == PacketMessage:
			m, err := decodeMessage(p.Data)
			if err != nil {
				return Handshake{}, nil, err
			}
			switch m.Type {
			case MessageConnect:
				return hs, queue, nil
			case MessageConnectError:
				return Handshake{}, nil, fmt.Errorf("%w: connect rejected: %s", errServerDisconnect, string(m.Data))
			}

		case p.Type == PacketClose:
			return Handshake{}, nil, fmt.Errorf("server closed the transport during handshake")
		}
	}
}

// serve pumps packets until the transport fails or the server disconnects.
func (c *Conn) serve(t Transport, hs Handshake) error {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, hs.Liveness())
		packets, err := t.Receive(ctx)
		cancel()
		if err != nil {
			return err
		}

		if err := c.dispatch(t, packets); err != nil {
			return err
		}
	}
}

// dispatch handles packets received on a live session.
func (c *Conn) dispatch(t Transport, packets []Packet) error {
	for _, p := range packets {
		switch p.Type {
		case PacketPing:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := t.Send(ctx, Packet{Type: PacketPong, Data: p.Data})
			cancel()
			if err != nil {
				return err
			}

		case PacketClose:
			return fmt.Errorf("server closed the transport")

		case PacketMessage:
			m, err := decodeMessage(p.Data)
			if err != nil {
				c.logger.Warn().Err(err).Bytes("data", p.Data).Msg("Server sent invalid message")
				continue
			}
			if m.Namespace != "/" {
				// Only the default namespace is joined.
				c.logger.Debug().Str("namespace", m.Namespace).Msg("Ignoring message for another namespace")
				continue
			}

			switch m.Type {
			case MessageDisconnect:
				return errServerDisconnect

			case MessageEvent:
				name, args, err := eventFrame(m.Data)
				if err != nil {
					c.logger.Warn().Err(err).Msg("Server sent invalid event")
					continue
				}
				c.publish(Event{Kind: EventMessage, Name: name, Args: args})

			default:
				c.logger.Debug().Str("msg_type", string(m.Type)).Msg("Ignoring unsupported message type")
			}
		}
	}
	return nil
}

// publish queues ev without blocking.
func (c *Conn) publish(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn().
			Str("event_kind", ev.Kind.String()).
			Int("queue_len", len(c.events)).
			Msg("Event queue full, dropping event")
	}
}

// mergeTarget builds the Engine.IO endpoint URL for base and path.
func mergeTarget(base, path string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("socket url %q has no host", base)
	}

	u.Path = path
	q := u.Query()
	q.Set("EIO", "4")
	u.RawQuery = q.Encode()
	return u, nil
}
