// Package api is the HTTP client for the library REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"library-client/internal/domain"
	"library-client/internal/observability"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

var _ domain.LibraryAPI = (*Client)(nil)

// Client sends requests to the library API. Every call is a single attempt:
// failures are returned to the caller, never retried.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     domain.TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithTokenSource sets where the bearer token is read from.
func WithTokenSource(ts domain.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a library API client rooted at baseURL (e.g. http://host/api/).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetTokenSource attaches the session store after construction; the store
// itself needs the client to sign in, so the two are wired in two steps.
func (c *Client) SetTokenSource(ts domain.TokenSource) {
	c.tokens = ts
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one API call.
type request struct {
	method    string
	path      string // relative to the base URL, e.g. "borrow/5/"
	endpoint  string // stable metric label
	query     url.Values
	body      any
	scope     scope
	anonymous bool // never send the token (login, signup)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: domain.ErrUnknown, Message: "request throttled", Err: err}
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(r.path, "/")})
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	reqID := observability.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
		ctx = observability.WithRequestID(ctx, reqID)
	}
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.anonymous && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
	}

	log := observability.FromContext(ctx)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(r, "error", start)
		log.Warn("library api request failed",
			"method", r.method, "endpoint", r.endpoint, "error", err)
		return &Error{Kind: domain.ErrUnknown, Message: "could not reach the library service", Err: err}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	c.observe(r, status, start)

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Status: resp.StatusCode, Kind: domain.ErrUnknown, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(resp.StatusCode, payload, r.scope)
		log.Warn("library api rejected request",
			"method", r.method, "endpoint", r.endpoint, "status", resp.StatusCode, "error", apiErr.Message)
		return apiErr
	}

	log.Debug("library api request",
		"method", r.method, "endpoint", r.endpoint, "status", resp.StatusCode,
		"duration", time.Since(start))

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Status: resp.StatusCode, Kind: domain.ErrUnknown, Message: "invalid response from library API", Err: err}
	}
	return nil
}

func (c *Client) observe(r request, status string, start time.Time) {
	observability.APIRequestDuration.WithLabelValues("library", r.method, r.endpoint, status).
		Observe(time.Since(start).Seconds())
	observability.APIRequestsTotal.WithLabelValues("library", r.method, r.endpoint, status).Inc()
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
