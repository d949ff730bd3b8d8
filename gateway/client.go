// Package gateway is the single path through which the console talks to the
// backend. It attaches the bearer token, refreshes an expired access token
// once per request and reports failures as typed errors.
package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/edu-console/internal/config"
	"github.com/jrsteele09/edu-console/token"
	"github.com/jrsteele09/edu-console/token/refresh"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 10 << 20
)

// SessionExpiredFunc is called after tokens have been discarded because a
// request could not be re-authorized.
type SessionExpiredFunc func(err error)

type Client struct {
	baseURL    string
	store      *token.Store
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	refresher  *refresh.Group
	logger     zerolog.Logger
	observer   TransitionFunc

	mu        sync.RWMutex
	onExpired []SessionExpiredFunc
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each HTTP attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransitionObserver is notified of every request state change.
func WithTransitionObserver(fn TransitionFunc) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// New returns a client for the API rooted at baseURL, keeping credentials in store.
func New(baseURL string, store *token.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.refresher = refresh.NewGroup(c.timeout)
	return c
}

// NewFromConfig builds a client from the API settings. Later options override
// the configured values.
func NewFromConfig(cfg config.APIConfig, store *token.Store, opts ...Option) *Client {
	rps, burst := cfg.GetRateLimit()
	base := []Option{
		WithTimeout(cfg.GetHTTPTimeout()),
		WithRateLimit(rps, burst),
	}
	return New(cfg.GetAPIBaseURL(), store, append(base, opts...)...)
}

// OnSessionExpired registers fn to run whenever a request ends in session expiry.
func (c *Client) OnSessionExpired(fn SessionExpiredFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = append(c.onExpired, fn)
}

// HasAccessToken reports whether an access token is on record.
func (c *Client) HasAccessToken(ctx context.Context) bool {
	_, ok := c.store.Get(ctx, token.AccessTokenKey)
	return ok
}

// Tokens returns the credentials currently on record.
func (c *Client) Tokens(ctx context.Context) token.Pair {
	return c.store.Pair(ctx)
}

// DiscardTokens clears both tokens.
func (c *Client) DiscardTokens(ctx context.Context) {
	c.store.Clear(ctx)
}

// RefreshExchanges returns how many refresh exchanges this client has started.
func (c *Client) RefreshExchanges() int64 {
	return c.refresher.Exchanges()
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// send performs one HTTP attempt. Any failure to obtain a response is
// returned as an *APIError with Status 0.
func (c *Client) send(ctx context.Context, method, path string, body []byte, access, requestID string) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(method, path, err)
		}
	}

	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}
	if access != "" {
		token.BearerToken(access).SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(method, path, err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) expiryHandlers() []SessionExpiredFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]SessionExpiredFunc(nil), c.onExpired...)
}

// expire discards the tokens and notifies the registered handlers.
func (c *Client) expire(ctx context.Context, cause error) error {
	c.DiscardTokens(ctx)
	err := &SessionExpiredError{Cause: cause}
	c.logger.Info().Err(cause).Msg("session expired, tokens discarded")
	for _, fn := range c.expiryHandlers() {
		fn(err)
	}
	return err
}
