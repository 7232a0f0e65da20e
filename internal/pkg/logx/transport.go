/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains an http.RoundTripper decorator that logs the lifecycle of every
outbound request (method, path, status, latency and request id). Query strings are
left out of the log line so search terms and poll session ids do not leak into logs.
*/
package logx

import (
	"net/http"
	"time"
)

// RequestIDHeader is the header carrying the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type loggingTransport struct {
	next http.RoundTripper
}

// Transport wraps next (http.DefaultTransport when nil) with request logging.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	logger := Logger().With().
		Str("component", "http").
		Str("request_id", r.Header.Get(RequestIDHeader)).
		Str("request_method", r.Method).
		Str("request_host", r.URL.Host).
		Str("request_path", r.URL.Path).
		Logger()

	t1 := time.Now()
	res, err := t.next.RoundTrip(r)
	latency := time.Since(t1)

	if err != nil {
		logger.Warn().Err(err).Dur("latency", latency).Msg("Request failed before response")
		return nil, err
	}

	logEvent := logger.Debug()
	if res.StatusCode >= 500 {
		logEvent = logger.Error()
	} else if res.StatusCode >= 400 {
		logEvent = logger.Warn()
	}

	logEvent.
		Int("status", res.StatusCode).
		Int64("bytes", res.ContentLength).
		Dur("latency", latency).
		Msg("Request completed")

	return res, nil
}
