package realtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"botclient/internal/pkg/logx"
	"botclient/internal/pkg/randx"
)

const (
	// TransportWebsocket and TransportPolling name the supported transports.
	TransportWebsocket = "websocket"
	TransportPolling   = "polling"

	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// timeout for the websocket opening handshake.
	handshakeWait = 10 * time.Second

	// maximum allowed size (in bytes) of a frame or polling body from the server.
	maxMessageSize = 1 << 20

	// minimum spacing between two long-polling GETs.
	pollInterval = 50 * time.Millisecond
)

// Transport moves Engine.IO packets over one underlying connection.
type Transport interface {
	// Name returns the transport name ("websocket" or "polling").
	Name() string

	// Send writes packets in order.
	Send(ctx context.Context, packets ...Packet) error

	// Receive blocks until at least one packet arrives, ctx is done or the
	// transport is closed.
	Receive(ctx context.Context) ([]Packet, error)

	// Close releases the connection. It is safe to call more than once.
	Close() error
}

// DialFunc opens a Transport against target, the Engine.IO endpoint with the
// EIO query parameter already set. jar may be nil.
type DialFunc func(ctx context.Context, target *url.URL, jar http.CookieJar) (Transport, error)

// DefaultDialers maps each supported transport name to its dialer.
func DefaultDialers() map[string]DialFunc {
	return map[string]DialFunc{
		TransportWebsocket: DialWebsocket,
		TransportPolling:   DialPolling,
	}
}

type wsTransport struct {
	conn *websocket.Conn

	// writeMu serializes writers; gorilla allows one concurrent writer.
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// DialWebsocket opens the websocket transport.
func DialWebsocket(ctx context.Context, target *url.URL, jar http.CookieJar) (Transport, error) {
	u := *target
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("transport", TransportWebsocket)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeWait,
		Jar:              jar,
	}

	conn, res, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if res != nil {
			return nil, fmt.Errorf("websocket handshake failed with status %d: %w", res.StatusCode, err)
		}
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)

	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) Name() string {
	return TransportWebsocket
}

func (t *wsTransport) Send(_ context.Context, packets ...Packet) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for _, p := range packets {
		if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		if err := t.conn.WriteMessage(websocket.TextMessage, EncodePacket(p)); err != nil {
			return err
		}
	}
	return nil
}

func (t *wsTransport) Receive(ctx context.Context) ([]Packet, error) {
	deadline, _ := ctx.Deadline()
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	p, err := DecodePacket(data)
	if err != nil {
		return nil, err
	}
	return []Packet{p}, nil
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()

		err = t.conn.Close()
	})
	return err
}

type pollingTransport struct {
	client *http.Client
	target *url.URL
	sid    string

	// pending holds the packets that arrived with the handshake response.
	pending []Packet

	// pace keeps a server that answers instantly from turning the poll loop into a spin.
	pace *rate.Limiter

	closed    context.Context
	closeFn   context.CancelFunc
	closeOnce sync.Once
}

// DialPolling opens the long-polling transport by performing the handshake GET.
func DialPolling(ctx context.Context, target *url.URL, jar http.CookieJar) (Transport, error) {
	u := *target
	q := u.Query()
	q.Set("transport", TransportPolling)
	u.RawQuery = q.Encode()

	closed, closeFn := context.WithCancel(context.Background())
	t := &pollingTransport{
		client: &http.Client{
			Transport: logx.Transport(nil),
			Jar:       jar,
		},
		target:  &u,
		pace:    rate.NewLimiter(rate.Every(pollInterval), 1),
		closed:  closed,
		closeFn: closeFn,
	}

	packets, err := t.get(ctx)
	if err != nil {
		closeFn()
		return nil, err
	}
	if len(packets) == 0 || packets[0].Type != PacketOpen {
		closeFn()
		return nil, fmt.Errorf("polling handshake did not start with an open packet")
	}

	hs, err := parseHandshake(packets[0].Data)
	if err != nil {
		closeFn()
		return nil, err
	}

	t.sid = hs.SID
	t.pending = packets
	return t, nil
}

func (t *pollingTransport) Name() string {
	return TransportPolling
}

func (t *pollingTransport) Send(ctx context.Context, packets ...Packet) error {
	ctx, cancel := t.bind(ctx)
	defer cancel()

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(), bytes.NewReader(EncodePayload(packets)))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	res, err := t.client.Do(r)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxMessageSize))

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("polling send failed with status %d", res.StatusCode)
	}
	return nil
}

func (t *pollingTransport) Receive(ctx context.Context) ([]Packet, error) {
	if t.pending != nil {
		packets := t.pending
		t.pending = nil
		return packets, nil
	}

	ctx, cancel := t.bind(ctx)
	defer cancel()

	if err := t.pace.Wait(ctx); err != nil {
		return nil, err
	}
	return t.get(ctx)
}

func (t *pollingTransport) Close() error {
	t.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if t.sid != "" {
			_ = t.Send(ctx, Packet{Type: PacketClose})
		}
		t.closeFn()
	})
	return nil
}

// bind returns a context cancelled by either ctx or Close.
func (t *pollingTransport) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(t.closed, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (t *pollingTransport) get(ctx context.Context) ([]Packet, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint(), nil)
	if err != nil {
		return nil, err
	}

	res, err := t.client.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxMessageSize))
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polling request failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	return DecodePayload(body)
}

func (t *pollingTransport) endpoint() string {
	u := *t.target
	q := u.Query()
	q.Set("t", randx.PollToken())
	if t.sid != "" {
		q.Set("sid", t.sid)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
