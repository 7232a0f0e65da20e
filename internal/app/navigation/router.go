package navigation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/logx"
)

// DefaultMaxHops bounds how many redirects one navigation may follow.
const DefaultMaxHops = 8

// Loader renders or prepares the view of a matched route. It runs while the
// router is busy and must not navigate itself.
type Loader func(ctx context.Context, m *Match) error

// Route is one entry of the route table.
type Route struct {
	// Path may use ":param" or "{param}" segments. Child paths are relative to the parent.
	Path string

	// Name identifies the route in logs and views.
	Name string

	// Load runs once the transition is admitted.
	Load Loader

	// RequiresAuth marks the subtree as protected.
	RequiresAuth bool

	// Redirect, when set, sends any visit of Path to this path before hooks run.
	Redirect string

	Children []Route
}

// Match is a resolved location.
type Match struct {
	// Path is the requested path without query.
	Path string

	// Pattern is the chi pattern that matched.
	Pattern string

	// Name is the matched route's name.
	Name string

	Params map[string]string
	Query  url.Values

	// RequiresAuth is OR-ed across the matched route chain.
	RequiresAuth bool

	route *Route
}

// Location returns Path with its query string.
func (m *Match) Location() string {
	if len(m.Query) == 0 {
		return m.Path
	}
	return m.Path + "?" + m.Query.Encode()
}

// Param returns a path parameter by name.
func (m *Match) Param(name string) string {
	return m.Params[name]
}

type compiled struct {
	route        *Route
	requiresAuth bool
}

// Router is a guarded route table with history. It is safe for concurrent use,
// although navigations are serialized.
type Router struct {
	mux     *chi.Mux
	entries map[string]compiled
	hooks   []Hook
	maxHops int

	// mu serializes navigations and protects history.
	mu      sync.Mutex
	history []string
	pos     int
	current *Match

	logger zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithHook registers a pre-navigation hook. Hooks run in registration order.
func WithHook(h Hook) Option {
	return func(r *Router) {
		r.hooks = append(r.hooks, h)
	}
}

// WithMaxHops overrides DefaultMaxHops.
func WithMaxHops(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxHops = n
		}
	}
}

var colonParam = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// NewRouter compiles routes into a chi mux.
func NewRouter(routes []Route, opts ...Option) (*Router, error) {
	r := &Router{
		mux:     chi.NewRouter(),
		entries: make(map[string]compiled),
		maxHops: DefaultMaxHops,
		pos:     -1,
		logger:  logx.Component("navigation"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.compile("/", routes, false); err != nil {
		return nil, err
	}
	return r, nil
}

// BeforeEach registers a pre-navigation hook after construction.
func (r *Router) BeforeEach(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = append(r.hooks, h)
}

func (r *Router) compile(parent string, routes []Route, inherited bool) (err error) {
	defer func() {
		// chi panics on malformed patterns.
		if p := recover(); p != nil {
			err = fmt.Errorf("invalid route table under %s: %v", parent, p)
		}
	}()

	for i := range routes {
		route := &routes[i]

		full := route.Path
		if !strings.HasPrefix(full, "/") {
			full = path.Join(parent, full)
		}
		pattern := colonParam.ReplaceAllString(full, "{$1}")
		requiresAuth := inherited || route.RequiresAuth

		if _, dup := r.entries[pattern]; !dup {
			r.entries[pattern] = compiled{route: route, requiresAuth: requiresAuth}
			r.mux.Handle(pattern, http.NotFoundHandler())
		}

		if len(route.Children) > 0 {
			if err := r.compile(full, route.Children, requiresAuth); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resolve matches location against the table without running hooks or loaders.
func (r *Router) Resolve(location string) (*Match, error) {
	u, err := url.Parse(location)
	if err != nil || u.Path == "" {
		return nil, errs.NewError(errs.ErrRouteNotFound, location)
	}

	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, p) {
		return nil, errs.NewError(errs.ErrRouteNotFound, p)
	}

	pattern := rctx.RoutePattern()
	entry, ok := r.entries[pattern]
	if !ok {
		return nil, errs.NewError(errs.ErrRouteNotFound, p)
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}

	return &Match{
		Path:         p,
		Pattern:      pattern,
		Name:         entry.route.Name,
		Params:       params,
		Query:        u.Query(),
		RequiresAuth: entry.requiresAuth,
		route:        entry.route,
	}, nil
}

// Navigate moves to location and records it in history.
func (r *Router) Navigate(ctx context.Context, location string) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.transition(ctx, location)
	if m != nil {
		r.history = append(r.history[:r.pos+1], m.Location())
		r.pos = len(r.history) - 1
	}
	return m, err
}

// Back moves one entry back in history, deciding the transition afresh.
// At the start of history it returns the current match unchanged.
func (r *Router) Back(ctx context.Context) (*Match, error) {
	return r.step(ctx, -1)
}

// Forward moves one entry forward in history, deciding the transition afresh.
func (r *Router) Forward(ctx context.Context) (*Match, error) {
	return r.step(ctx, 1)
}

// Refresh re-runs the current location through hooks, e.g. after logout.
func (r *Router) Refresh(ctx context.Context) (*Match, error) {
	return r.step(ctx, 0)
}

// Current returns the current match, or nil before the first navigation.
func (r *Router) Current() *Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// History returns the recorded locations and the index of the current one.
func (r *Router) History() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.history...), r.pos
}

func (r *Router) step(ctx context.Context, delta int) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.pos + delta
	if r.pos < 0 || target < 0 || target >= len(r.history) {
		return r.current, nil
	}

	m, err := r.transition(ctx, r.history[target])
	if m != nil {
		// A redirected entry is replaced by where the user actually landed.
		r.pos = target
		r.history[target] = m.Location()
	}
	return m, err
}

// transition resolves, follows redirects, runs hooks and finally the loader.
// The caller holds r.mu.
func (r *Router) transition(ctx context.Context, location string) (*Match, error) {
	target := location

	for hop := 0; hop <= r.maxHops; hop++ {
		m, err := r.Resolve(target)
		if err != nil {
			return nil, err
		}

		if m.route.Redirect != "" {
			r.logger.Debug().Str("from", m.Path).Str("to", m.route.Redirect).Msg("Route redirect")
			target = m.route.Redirect
			continue
		}

		if redirect := r.runHooks(m); redirect != "" {
			r.logger.Info().
				Str("from", m.Path).
				Str("to", redirect).
				Str("route", m.Name).
				Msg("Navigation redirected")
			target = redirect
			continue
		}

		r.current = m
		if m.route.Load != nil {
			if err := m.route.Load(ctx, m); err != nil {
				return m, err
			}
		}
		return m, nil
	}

	return nil, errs.NewError(errs.ErrRedirectLoop, location)
}

func (r *Router) runHooks(to *Match) string {
	for _, hook := range r.hooks {
		if d := hook(to, r.current); !d.Proceed() {
			return d.Redirect
		}
	}
	return ""
}
