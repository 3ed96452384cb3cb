// Package client is the single outbound gateway to the back-office API. Every
// call passes through a fixed chain of request and response middleware that
// attaches the bearer token, refreshes it when expired, and tears the session
// down on any 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twy/backoffice/internal/observability"
	"github.com/twy/backoffice/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultLoginPath is where a 401 sends the user
	DefaultLoginPath = "/login"
	// DefaultRefreshPath is the token refresh endpoint
	DefaultRefreshPath = "/refresh-token"
	// RequestIDHeader carries the per-request correlation ID
	RequestIDHeader = "X-Request-ID"
	// DefaultRefreshLeeway refreshes an access token this long before exp
	DefaultRefreshLeeway = 30 * time.Second
)

// Navigator performs a full navigation to an application route
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

// Navigate calls f(path)
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Options configures a Client
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Timeout     time.Duration
	LoginPath   string
	RefreshPath string
	// RefreshLeeway treats an access token as expired this long before its
	// exp claim. Backends drop a token at exp, so with zero leeway a stored
	// token is never seen expired and refresh only runs on a lagging clock.
	RefreshLeeway time.Duration
	// RefreshSingleFlight collapses concurrent refreshes into one call
	RefreshSingleFlight bool
	Navigator           Navigator
	Metrics             *observability.Metrics
	Logger              *zap.Logger
	Clock               func() time.Time
}

// DefaultOptions returns options for baseURL with single-flight refresh on
// and DefaultRefreshLeeway
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:             baseURL,
		Timeout:             30 * time.Second,
		LoginPath:           DefaultLoginPath,
		RefreshPath:         DefaultRefreshPath,
		RefreshLeeway:       DefaultRefreshLeeway,
		RefreshSingleFlight: true,
	}
}

// RequestContext is the per-call state handed through the middleware chain.
// SkipAuth is never sent on the wire.
type RequestContext struct {
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Header    http.Header
	SkipAuth  bool
	RequestID string
}

// Response is what the response middleware observes. Err is set when no
// response was received.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	Err        error
}

// RequestMiddleware runs before the request is sent. An error aborts the call.
type RequestMiddleware func(ctx context.Context, rc *RequestContext) error

// ResponseMiddleware runs after the response (or transport failure)
type ResponseMiddleware func(ctx context.Context, rc *RequestContext, resp *Response)

// Client sends API requests on behalf of the current session
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       *store.TokenStore
	navigator    Navigator
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
	loginPath    string
	refreshPath  string
	leeway       time.Duration
	singleFlight bool
	refreshGroup singleflight.Group

	requestChain  []RequestMiddleware
	responseChain []ResponseMiddleware
}

// New creates a Client over tokens
func New(tokens *store.TokenStore, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	refreshPath := opts.RefreshPath
	if refreshPath == "" {
		refreshPath = DefaultRefreshPath
	}

	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		httpClient:   httpClient,
		tokens:       tokens,
		navigator:    opts.Navigator,
		metrics:      opts.Metrics,
		logger:       logger,
		now:          now,
		loginPath:    loginPath,
		refreshPath:  refreshPath,
		leeway:       opts.RefreshLeeway,
		singleFlight: opts.RefreshSingleFlight,
	}
	c.requestChain = []RequestMiddleware{c.assignRequestID, c.authorize}
	c.responseChain = []ResponseMiddleware{c.recordMetrics, c.handleUnauthorized}
	return c
}

// Tokens returns the token store the client reads credentials from
func (c *Client) Tokens() *store.TokenStore {
	return c.tokens
}

// Option adjusts a single request
type Option func(*RequestContext)

// SkipAuth sends the request without credentials and without triggering a
// refresh. Used by login, signup, verification and password endpoints.
func SkipAuth() Option {
	return func(rc *RequestContext) { rc.SkipAuth = true }
}

// WithQuery adds query parameters
func WithQuery(params url.Values) Option {
	return func(rc *RequestContext) {
		if rc.Query == nil {
			rc.Query = url.Values{}
		}
		for k, vs := range params {
			for _, v := range vs {
				rc.Query.Add(k, v)
			}
		}
	}
}

// WithHeader sets a request header
func WithHeader(key, value string) Option {
	return func(rc *RequestContext) { rc.Header.Set(key, value) }
}

// NewRequest builds a RequestContext for method and path
func NewRequest(method, path string, body any, opts ...Option) *RequestContext {
	rc := &RequestContext{
		Method: method,
		Path:   path,
		Body:   body,
		Header: http.Header{},
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Get sends a GET and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, path string, out any, opts ...Option) error {
	return c.Do(ctx, NewRequest(http.MethodGet, path, nil, opts...), out)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.Do(ctx, NewRequest(http.MethodPost, path, body, opts...), out)
}

// Put sends body as JSON and decodes the response into out
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.Do(ctx, NewRequest(http.MethodPut, path, body, opts...), out)
}

// Patch sends body as JSON and decodes the response into out
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.Do(ctx, NewRequest(http.MethodPatch, path, body, opts...), out)
}

// Delete sends a DELETE and decodes the response into out
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...Option) error {
	return c.Do(ctx, NewRequest(http.MethodDelete, path, nil, opts...), out)
}

// Do runs rc through the middleware chain. Failures are returned as
// *APIError. out may be nil.
func (c *Client) Do(ctx context.Context, rc *RequestContext, out any) error {
	if rc.Header == nil {
		rc.Header = http.Header{}
	}
	for _, mw := range c.requestChain {
		if err := mw(ctx, rc); err != nil {
			return err
		}
	}

	resp := c.send(ctx, rc)
	for _, mw := range c.responseChain {
		mw(ctx, rc, resp)
	}

	if resp.Err != nil {
		return newTransportError(resp.Err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, resp.Body)
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &APIError{
			Type:    ErrorTypeInternal,
			Message: GenericErrorMessage,
			Status:  resp.StatusCode,
			Body:    resp.Body,
			Err:     fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// Do is the typed form of Client.Do
func Do[T any](ctx context.Context, c *Client, rc *RequestContext) (T, error) {
	var out T
	err := c.Do(ctx, rc, &out)
	return out, err
}

func (c *Client) send(ctx context.Context, rc *RequestContext) *Response {
	start := c.now()
	req, err := c.buildRequest(ctx, rc)
	if err != nil {
		return &Response{Err: err}
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return &Response{Err: err, Duration: c.now().Sub(start)}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &Response{Err: fmt.Errorf("failed to read response body: %w", err), Duration: c.now().Sub(start)}
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Duration:   c.now().Sub(start),
	}
}

func (c *Client) buildRequest(ctx context.Context, rc *RequestContext) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(rc.Path, "/")
	if len(rc.Query) > 0 {
		target += "?" + rc.Query.Encode()
	}

	var body io.Reader
	if rc.Body != nil {
		payload, err := json.Marshal(rc.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, rc.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range rc.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if rc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
