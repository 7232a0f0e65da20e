package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/limiter"
	"botclient/internal/pkg/logx"
)

func newTestClient(t *testing.T, h http.Handler, contract Contract) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api", Contract: contract, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsEmptyBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestRequest_SendsJSONHeadersAndRequestID(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}), Prefixed)

	body, err := c.Request(context.Background(), "/ping", Options{})
	require.NoError(t, err)

	assert.True(t, body.JSON)
	assert.Equal(t, "/api/ping", got.URL.Path)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.NotEmpty(t, got.Header.Get(logx.RequestIDHeader))
}

func TestRequest_TextBodyIsKeptAsText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}), Prefixed)

	body, err := c.Request(context.Background(), "/ping", Options{})
	require.NoError(t, err)

	assert.False(t, body.JSON)
	assert.Equal(t, "pong", body.Value())
}

func TestRequest_FailureMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMsg     string
	}{
		{"json error field", http.StatusUnauthorized, "application/json", `{"success":false,"error":"bad credentials"}`, "bad credentials"},
		{"text body", http.StatusBadRequest, "text/plain", "Faltan datos", "Faltan datos"},
		{"empty body", http.StatusInternalServerError, "", "", "Request failed"},
		{"json without error", http.StatusForbidden, "application/json", `{"success":false}`, "Request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}), Prefixed)

			_, err := c.Request(context.Background(), "/x", Options{Method: http.MethodPost})
			require.Error(t, err)

			assert.Equal(t, tt.wantMsg, err.Error())
			assert.True(t, errs.Is(err, errs.ErrRequestFailed))

			var customErr *errs.CustomError
			require.ErrorAs(t, err, &customErr)
			assert.Equal(t, tt.status, customErr.Status)
		})
	}
}

func TestRequest_TransportFailureIsRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Request(context.Background(), "/auth/login", Options{Method: http.MethodPost})
	require.Error(t, err)

	assert.True(t, errs.Is(err, errs.ErrRequestFailed))
	assert.Equal(t, "Request failed", err.Error())

	var customErr *errs.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Error(t, customErr.Err)
}

func TestRequest_CookiesTravelWithEveryCall(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"msg": "ok", "user_id": 7})
	})
	mux.HandleFunc("/api/chatbots", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "abc" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chatbots": []any{}})
	})
	c := newTestClient(t, mux, Prefixed)

	_, err := c.Login(context.Background(), Credentials{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	_, err = c.ListChatbots(context.Background(), "")
	assert.NoError(t, err)
}

func TestRequest_ThrottleCancelledIsRequestFailed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}), Prefixed)
	c.throttle = limiter.NewEndpointLimiter(0.001, 1)

	_, err := c.Request(context.Background(), "/x", Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Request(ctx, "/x", Options{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrRequestFailed))
}
