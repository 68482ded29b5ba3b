package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/go-resty/resty/v2"
)

// TokenSource supplies the bearer token for authenticated calls. ok is false when no
// session is stored.
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, bool)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, bool) { return f(ctx) }

// Config controls client construction. A zero Timeout means requests never time out.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	UserAgent    string
	Debug        bool
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l) }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client talks to the university backend. It is safe for concurrent use.
type Client struct {
	// auth serves /api/login and /api/auth/me and never retries.
	auth *resty.Client
	// rest serves every other endpoint with the configured retry policy.
	rest *resty.Client

	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        logger.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{baseURL: base, log: logger.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.auth = c.buildHTTPClient(cfg)
	c.rest = c.buildHTTPClient(cfg)
	if cfg.RetryCount > 0 {
		c.rest.
			SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(durationOr(cfg.RetryWait, 100*time.Millisecond)).
			SetRetryMaxWaitTime(durationOr(cfg.RetryMaxWait, 2*time.Second)).
			AddRetryCondition(retryCondition)
	}
	return c, nil
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) buildHTTPClient(cfg Config) *resty.Client {
	var rc *resty.Client
	if c.httpClient != nil {
		rc = resty.NewWithClient(c.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(c.baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Debug {
		rc.SetDebug(true)
	}
	return rc
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base URL scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL must have a host, got: %s", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// retryCondition retries transport failures and transient server statuses.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// call describes one request.
type call struct {
	method   string
	path     string
	token    string
	query    map[string]string
	body     any
	fallback string
}

// do executes the call and returns the raw body of a 2xx reply. Non-2xx replies become
// *APIError.
func (c *Client) do(ctx context.Context, rc *resty.Client, in call) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := rc.R().SetContext(ctx)
	if in.token != "" {
		req.SetAuthToken(in.token)
	}
	if in.body != nil {
		req.SetBody(in.body)
	}
	if len(in.query) > 0 {
		req.SetQueryParams(in.query)
	}

	start := time.Now()
	resp, err := req.Execute(in.method, in.path)
	if err != nil {
		c.log.Debug("API request failed", "method", in.method, "path", in.path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", in.method, in.path, err)
	}
	c.log.Debug("API request completed",
		"method", in.method,
		"path", in.path,
		"status", resp.StatusCode(),
		"duration", time.Since(start),
	)
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode(), in.path, resp.Body(), in.fallback)
	}
	return resp.Body(), nil
}

// bearer returns the stored token, or "" when no token source is configured or no
// session exists.
func (c *Client) bearer(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	tok, ok := c.tokens.Token(ctx)
	if !ok {
		return ""
	}
	return tok
}

// raw runs an authenticated-if-possible call against the retrying client.
func (c *Client) raw(ctx context.Context, in call) (json.RawMessage, error) {
	if in.token == "" {
		in.token = c.bearer(ctx)
	}
	body, err := c.do(ctx, c.rest, in)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(body), nil
}

/*
====================================================================================
AUTHENTICATION
====================================================================================
*/

// LoginFallbackMessage is reported when a rejected login carries no server message.
const LoginFallbackMessage = "Ошибка входа"

// Login posts credentials to /api/login. The request is never retried.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	body, err := c.do(ctx, c.auth, call{
		method:   http.MethodPost,
		path:     "/api/login",
		body:     creds,
		fallback: LoginFallbackMessage,
	})
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out.Raw = append(json.RawMessage(nil), body...)
	return &out, nil
}

// Me validates token against /api/auth/me and returns the identity it belongs to.
// The request is never retried.
func (c *Client) Me(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	body, err := c.do(ctx, c.auth, call{
		method:   http.MethodGet,
		path:     "/api/auth/me",
		token:    token,
		fallback: "Invalid session",
	})
	if err != nil {
		return nil, err
	}
	return decodeIdentity(body)
}

// decodeIdentity requires a JSON object with a non-empty id.
func decodeIdentity(body []byte) (*Identity, error) {
	var id Identity
	if err := json.Unmarshal(body, &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(id.ID) == "" {
		return nil, fmt.Errorf("%w: identity without id", ErrMalformedResponse)
	}
	return &id, nil
}
