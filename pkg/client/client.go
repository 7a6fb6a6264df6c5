package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/calder-io/resilient-client/pkg/cache"
	"github.com/calder-io/resilient-client/pkg/scheduler"
	"github.com/calder-io/resilient-client/pkg/session"
	"github.com/calder-io/resilient-client/pkg/socket"
)

// AuthConfig names the credential endpoints on the API.
type AuthConfig struct {
	LoginPath    string
	RegisterPath string
	RefreshPath  string
	LogoutPath   string
}

// DefaultAuthConfig returns the conventional endpoint paths.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		LoginPath:    "/auth/login",
		RegisterPath: "/auth/register",
		RefreshPath:  "/auth/refresh",
		LogoutPath:   "/auth/logout",
	}
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API. Required unless Transport is set.
	BaseURL string

	// Transport overrides the default net/http transport (for testing or
	// custom wire handling).
	Transport Transport

	// Cache configures the response cache.
	Cache cache.Config

	// Scheduler configures request dispatch.
	Scheduler scheduler.Config

	// Session configures credential management.
	Session session.Config

	// SessionStore persists session blobs. Defaults to in-memory.
	SessionStore session.Store

	// Auth names the credential endpoints.
	Auth AuthConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		Cache:     cache.DefaultConfig(),
		Scheduler: scheduler.DefaultConfig(),
		Session:   session.DefaultConfig(),
		Auth:      DefaultAuthConfig(),
	}
}

// Options control a single request.
type Options struct {
	// Priority determines dispatch order. Zero value is PriorityNormal.
	Priority scheduler.Priority

	// TTL is the cache lifetime of the response. Zero falls back to the
	// cache's DefaultTTL.
	TTL time.Duration

	// Timeout is the per-request deadline, enforced by the scheduler
	// independently of any transport-level timeout.
	Timeout time.Duration

	// Cacheable marks a GET as servable from cache.
	Cacheable bool

	// Query parameters of the request.
	Query url.Values

	// Headers are merged into the request.
	Headers http.Header

	// Body is the request payload.
	Body []byte
}

// Client composes the cache, the scheduler, and the session manager over
// a Transport. Construct with New, tear down with Close.
type Client struct {
	transport Transport
	cache     *cache.Store
	scheduler *scheduler.Scheduler
	sessions  *session.Manager
	config    Config
	logger    zerolog.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.Transport == nil && cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL or transport is required")
	}
	if cfg.Auth == (AuthConfig{}) {
		cfg.Auth = DefaultAuthConfig()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = NewHTTPTransport(cfg.BaseURL)
	}

	c := &Client{
		transport: transport,
		cache:     cache.NewStore(cfg.Cache),
		scheduler: scheduler.New(cfg.Scheduler),
		config:    cfg,
		logger:    log.With().Str("component", "client").Logger(),
	}

	sessions, err := session.NewManager(&authAPI{client: c}, cfg.SessionStore, cfg.Session)
	if err != nil {
		c.cache.Close()
		c.scheduler.Close()
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	c.sessions = sessions

	return c, nil
}

// Request performs one API call: cacheable GETs are served from cache
// when possible, everything else is dispatched through the scheduler with
// the current access token attached. Successful mutations invalidate the
// cached entries under the request path. Exactly one transparent
// refresh-and-retry is performed on an authorization failure.
func (c *Client) Request(ctx context.Context, method, path string, opts Options) ([]byte, error) {
	start := time.Now()
	defer func() {
		RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	cacheKey := ""
	if opts.Cacheable && method == http.MethodGet {
		cacheKey = cache.Key{Path: path, Query: opts.Query}.String()
		if data, ok := c.cache.Get(cacheKey); ok {
			RequestsTotal.WithLabelValues(method, "cache_hit").Inc()
			return data, nil
		}
	}

	data, err := c.dispatch(ctx, method, path, opts)

	// Reactive refresh: exactly one transparent retry on a 401.
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Kind == AuthUnauthorized {
		data, err = c.retryAfterRefresh(ctx, method, path, opts, err)
	}

	if err != nil {
		RequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	RequestsTotal.WithLabelValues(method, "success").Inc()

	if cacheKey != "" {
		c.cache.Set(cacheKey, data, opts.TTL)
	} else if isMutation(method) {
		c.cache.InvalidatePrefix(cache.PrefixFor(path))
	}

	return data, nil
}

// Get performs a cacheable GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.Request(ctx, http.MethodGet, path, Options{Cacheable: true, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.Request(ctx, http.MethodPost, path, Options{Body: body})
}

// OpenSocket opens a persistent connection with the current access token
// attached to the handshake. The returned session reconnects on its own
// within the configured bounds; a first-handshake failure is returned as
// a SocketError while reconnection continues in the background.
func (c *Client) OpenSocket(ctx context.Context, socketURL string, cfg socket.Config) (*socket.Session, error) {
	cfg.URL = socketURL
	if cfg.Header == nil {
		cfg.Header = http.Header{}
	}
	if token, err := c.sessions.Token(); err == nil {
		cfg.Header.Set("Authorization", "Bearer "+token)
	}

	sess := socket.NewSession(cfg)
	if err := sess.Connect(ctx); err != nil {
		return sess, &SocketError{Err: err}
	}
	return sess, nil
}

// Auth exposes credential management: Login, Register, Logout,
// CurrentUser, and StateChanges.
func (c *Client) Auth() *session.Manager {
	return c.sessions
}

// CacheStats returns a snapshot of the response cache.
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// SchedulerStatus returns a snapshot of request dispatch load.
func (c *Client) SchedulerStatus() scheduler.Status {
	return c.scheduler.Status()
}

// CancelAll cancels every queued and running request.
func (c *Client) CancelAll() {
	c.scheduler.CancelAll()
}

// Close tears the client down: pending requests are cancelled and the
// cache janitor and session timers are stopped.
func (c *Client) Close() {
	c.scheduler.Close()
	c.cache.Close()
	c.sessions.Close()
}

// dispatch enqueues one transport call on the scheduler, attaching the
// access token current at dispatch time.
func (c *Client) dispatch(ctx context.Context, method, path string, opts Options) ([]byte, error) {
	token, _ := c.sessions.Token()

	result := <-c.scheduler.Enqueue(ctx, scheduler.Task{
		Priority: opts.Priority,
		Timeout:  opts.Timeout,
		Operation: func(taskCtx context.Context) ([]byte, error) {
			return c.execute(taskCtx, method, path, opts, token)
		},
	})
	return result.Data, result.Err
}

// retryAfterRefresh performs the single transparent refresh-and-retry.
// A second authorization failure clears the session for good.
func (c *Client) retryAfterRefresh(ctx context.Context, method, path string, opts Options, cause error) ([]byte, error) {
	if err := c.sessions.Refresh(ctx); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			// Nothing to refresh: surface the original 401.
			return nil, cause
		}
		AuthRetries.WithLabelValues("refresh_failed").Inc()
		return nil, &AuthError{Kind: AuthRefreshFailed, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Retrying request with refreshed token")

	data, err := c.dispatch(ctx, method, path, opts)

	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Kind == AuthUnauthorized {
		// The refreshed token was rejected too. Clear and give up.
		AuthRetries.WithLabelValues("still_unauthorized").Inc()
		c.sessions.Clear(ctx)
		return nil, &AuthError{Kind: AuthRefreshFailed, Err: err}
	}
	if err == nil {
		AuthRetries.WithLabelValues("success").Inc()
	}
	return data, err
}

// execute runs one transport call and classifies the response.
func (c *Client) execute(ctx context.Context, method, path string, opts Options, token string) ([]byte, error) {
	headers := http.Header{}
	for name, values := range opts.Headers {
		headers[name] = values
	}
	if token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.transport.Call(ctx, Request{
		Method:  method,
		Path:    path,
		Query:   opts.Query,
		Headers: headers,
		Body:    opts.Body,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Kind: AuthUnauthorized}
	case resp.StatusCode >= 400:
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp.Body, nil
}

// isMutation reports whether a method invalidates cached reads.
func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
