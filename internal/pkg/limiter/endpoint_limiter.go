/*
Package limiter provides client-side request pacing keyed by API endpoint.

It uses the Token Bucket algorithm (rate.Limiter) to keep a misbehaving caller
(a held-down key, a script loop) from flooding one backend endpoint. Pacing only
delays a request; it never drops or repeats one.
*/
package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// EndpointLimiter holds one token bucket per endpoint key.
// A nil *EndpointLimiter is valid and never waits.
type EndpointLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps an endpoint key (usually method + path) to its limiter.
	limits map[string]*rate.Limiter

	// r is the number of requests allowed per second for each endpoint.
	r rate.Limit

	// b is the burst size of each endpoint's bucket.
	b int
}

// NewEndpointLimiter returns a limiter allowing r requests per second with burst b
// per endpoint. A non-positive r disables pacing and returns nil.
func NewEndpointLimiter(r rate.Limit, b int) *EndpointLimiter {
	if r <= 0 {
		return nil
	}
	if b < 1 {
		b = 1
	}

	return &EndpointLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}
}

// GetLimiter returns the limiter for key, creating it on first use.
// It uses double-checked locking so concurrent first calls share one limiter.
func (l *EndpointLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[key]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[key] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// Wait blocks until a request to key may proceed or ctx is done.
func (l *EndpointLimiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.GetLimiter(key).Wait(ctx)
}
