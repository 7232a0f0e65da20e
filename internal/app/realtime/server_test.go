package realtime

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testOpen = `{"sid":"%s","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`

// eioServer is a minimal Engine.IO v4 / Socket.IO v5 server for tests.
type eioServer struct {
	srv *httptest.Server

	// websocket and polling toggle the transports the server accepts.
	websocket bool
	polling   bool

	// afterConnect packets are sent right after the namespace ack.
	afterConnect []string

	// dropFirst closes the first websocket connection right after the ack.
	dropFirst bool

	mu          sync.Mutex
	received    []string
	cookies     []string
	connections int
	queues      map[string]chan string
}

func newEIOServer(t *testing.T, configure func(*eioServer)) *eioServer {
	t.Helper()

	s := &eioServer{websocket: true, polling: true, queues: make(map[string]chan string)}
	if configure != nil {
		configure(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/socket.io/", s.handle)
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *eioServer) URL() string {
	return s.srv.URL
}

func (s *eioServer) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

func (s *eioServer) Cookies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cookies...)
}

func (s *eioServer) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

func (s *eioServer) hasReceived(packet string) bool {
	for _, p := range s.Received() {
		if p == packet {
			return true
		}
	}
	return false
}

func (s *eioServer) record(packet string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, packet)
}

func (s *eioServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("EIO") != "4" {
		http.Error(w, "unsupported protocol version", http.StatusBadRequest)
		return
	}

	if c, err := r.Cookie("session"); err == nil {
		s.mu.Lock()
		s.cookies = append(s.cookies, c.Value)
		s.mu.Unlock()
	}

	switch r.URL.Query().Get("transport") {
	case TransportWebsocket:
		if !s.websocket {
			http.Error(w, "transport unknown", http.StatusBadRequest)
			return
		}
		s.serveWebsocket(w, r)
	case TransportPolling:
		if !s.polling {
			http.Error(w, "transport unknown", http.StatusBadRequest)
			return
		}
		s.servePolling(w, r)
	default:
		http.Error(w, "transport unknown", http.StatusBadRequest)
	}
}

func (s *eioServer) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.connections++
	n := s.connections
	s.mu.Unlock()

	write := func(p string) error {
		return conn.WriteMessage(websocket.TextMessage, []byte(p))
	}

	if err := write("0" + fmt.Sprintf(testOpen, fmt.Sprintf("ws%d", n))); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		packet := string(data)
		s.record(packet)

		if packet == "40" {
			if err := write(`40{"sid":"nsp"}`); err != nil {
				return
			}
			if s.dropFirst && n == 1 {
				return
			}
			for _, p := range s.afterConnect {
				if err := write(p); err != nil {
					return
				}
			}
		}
	}
}

func (s *eioServer) servePolling(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sid")

	if sid == "" {
		s.mu.Lock()
		s.connections++
		sid = fmt.Sprintf("poll%d", s.connections)
		s.queues[sid] = make(chan string, 64)
		s.mu.Unlock()

		_, _ = io.WriteString(w, "0"+fmt.Sprintf(testOpen, sid))
		return
	}

	s.mu.Lock()
	queue, ok := s.queues[sid]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "session id unknown", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		for _, packet := range strings.Split(string(body), "\x1e") {
			s.record(packet)
			if packet == "40" {
				queue <- `40{"sid":"nsp"}`
				for _, p := range s.afterConnect {
					queue <- p
				}
			}
		}
		_, _ = io.WriteString(w, "ok")

	case http.MethodGet:
		var packets []string
		select {
		case p := <-queue:
			packets = append(packets, p)
		case <-time.After(500 * time.Millisecond):
			packets = append(packets, "6")
		case <-r.Context().Done():
			return
		}
	drain:
		for {
			select {
			case p := <-queue:
				packets = append(packets, p)
			default:
				break drain
			}
		}
		_, _ = io.WriteString(w, strings.Join(packets, "\x1e"))
	}
}
