/*
Package api is the thin HTTP client every backend call goes through.

Each call sends and accepts JSON, carries the shared cookie jar so the backend
session cookie travels with it, and comes back either as a decoded resp.Body or as
a *errs.CustomError with code ErrRequestFailed and a human-readable message.
Callers never inspect status codes. There is no retry, caching or deduplication:
one invocation is exactly one attempt.
*/
package api

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/limiter"
	"botclient/internal/pkg/logx"
	"botclient/internal/pkg/randx"
	"botclient/internal/pkg/req"
	"botclient/internal/pkg/resp"
)

// DefaultTimeout bounds a single request when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Config holds the settings of a Client.
type Config struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// Contract selects the endpoint family of the deployment. Defaults to Prefixed.
	Contract Contract

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. Its Jar and Timeout are left alone.
	HTTPClient *http.Client

	// Jar carries the backend session cookie. A fresh jar is created when nil.
	Jar http.CookieJar

	// Throttle paces requests per endpoint. Nil disables pacing.
	Throttle *limiter.EndpointLimiter
}

// Options describes one request.
type Options struct {
	// Method defaults to GET.
	Method string

	// Body is JSON-encoded when non-nil.
	Body any

	// Query is merged into the request URL.
	Query url.Values
}

// Client performs backend calls. It is safe for concurrent use.
type Client struct {
	baseURL  string
	contract Contract
	http     *http.Client
	throttle *limiter.EndpointLimiter
	logger   zerolog.Logger
}

// NewJar returns a cookie jar suitable for sharing between the API client and
// the real-time channel.
func NewJar() http.CookieJar {
	// cookiejar.New only fails on a nil PublicSuffixList misuse, never with options set.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// New constructs a Client from cfg.
func New(cfg Config) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, errs.NewError(errs.ErrRequestFailed).
			WithMessage("invalid API base URL: " + cfg.BaseURL).
			WithCause(err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}

		jar := cfg.Jar
		if jar == nil {
			jar = NewJar()
		}

		httpClient = &http.Client{
			Transport: logx.Transport(nil),
			Jar:       jar,
			Timeout:   timeout,
		}
	}

	contract := cfg.Contract
	if contract.LoginPath == "" {
		contract = Prefixed
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		contract: contract,
		http:     httpClient,
		throttle: cfg.Throttle,
		logger:   logx.Component("api"),
	}, nil
}

// Contract returns the endpoint family the client talks to.
func (c *Client) Contract() Contract {
	return c.contract
}

// Request performs one call against path and applies the response contract.
func (c *Client) Request(ctx context.Context, path string, opts Options) (*resp.Body, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := req.JoinURL(c.baseURL, path, opts.Query)
	if err != nil {
		return nil, errs.NewError(errs.ErrEncodeFailed).WithCause(err)
	}

	r, cerr := req.NewJSON(ctx, method, target, opts.Body)
	if cerr != nil {
		return nil, cerr
	}

	requestID := randx.RequestID()
	r.Header.Set(logx.RequestIDHeader, requestID)

	if err := c.throttle.Wait(ctx, method+" "+path); err != nil {
		return nil, errs.NewError(errs.ErrRequestFailed).WithCause(err)
	}

	res, err := c.http.Do(r)
	if err != nil {
		c.logger.Debug().Err(err).Str("request_id", requestID).Msg("Transport failure")
		return nil, errs.NewError(errs.ErrRequestFailed).WithCause(err)
	}
	defer res.Body.Close()

	body, cerr := resp.Decode(res)
	if cerr != nil {
		return nil, cerr
	}

	return body, nil
}
