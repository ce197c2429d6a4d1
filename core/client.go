package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ragline/ragline/store"
)

// DefaultTimeout bounds a request when neither the client nor the call
// sets one.
const DefaultTimeout = 30 * time.Second

// Config holds client-level settings. Zero values fall back to defaults
// in New.
type Config struct {
	// BaseURL is the backend address, without a trailing slash.
	BaseURL string
	// VersionPrefix is prepended to relative endpoints. Empty disables
	// prefixing.
	VersionPrefix string
	// HTTPClient performs the transport calls.
	HTTPClient *http.Client
	// Timeout is the default per-request timeout.
	Timeout time.Duration
	// Headers are sent on every request.
	Headers http.Header
	// Storage is the port the token store persists through.
	Storage store.Store
	// Retry, when set, is applied around non-streaming requests. The
	// client itself never retries.
	Retry RetryPolicy
	// Telemetry observes request lifecycles.
	Telemetry TelemetryHook
}

// Option configures a Client.
type Option func(*Config)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Config) { c.Headers = h }
}

// WithVersionPrefix overrides the path version segment. Empty disables it.
func WithVersionPrefix(prefix string) Option {
	return func(c *Config) { c.VersionPrefix = prefix }
}

// WithStorage sets the storage port backing the token store.
func WithStorage(s store.Store) Option {
	return func(c *Config) { c.Storage = s }
}

// WithRetryPolicy sets a caller-supplied retry policy.
func WithRetryPolicy(r RetryPolicy) Option {
	return func(c *Config) { c.Retry = r }
}

// WithTelemetry sets the telemetry hook.
func WithTelemetry(h TelemetryHook) Option {
	return func(c *Config) { c.Telemetry = h }
}

// Client talks to the RAG backend. Every feature-level call flows through
// Do or one of its specializations (OpenStream, Upload, Download), so the
// token lifecycle, timeout handling and error classification live in one
// place. Client is safe for concurrent use.
type Client struct {
	cfg    Config
	tokens *TokenStore
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	cfg := Config{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		VersionPrefix: DefaultVersionPrefix,
		Timeout:       DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Storage == nil {
		cfg.Storage = store.NewMemory()
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = NoopTelemetryHook{}
	}
	return &Client{cfg: cfg, tokens: NewTokenStore(cfg.Storage)}
}

// Tokens returns the session token store shared by every request.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// RequestOptions configure a single request.
type RequestOptions struct {
	// Method defaults to GET without a body and POST with one.
	Method string
	// Headers are merged over the client-level headers; last write wins
	// per key.
	Headers http.Header
	// DropHeaders removes headers after the merge, letting callers
	// conditionally omit a client-level default.
	DropHeaders []string
	// Body is nil, a *MultipartBody, an io.Reader of raw bytes, or any
	// JSON-serializable value.
	Body any
	// Timeout overrides the client default for this call.
	Timeout time.Duration
	// SkipAuth suppresses the Authorization header.
	SkipAuth bool
	// BaseURL overrides the client base URL for this call.
	BaseURL string
}

// Do executes a request and returns the unwrapped business payload.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	env, err := c.DoEnvelope(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// DoEnvelope executes a request and returns the full normalized envelope.
// Only login/register callers need this form: the envelope carries the
// token issued via the Authorization response header, which Do discards.
func (c *Client) DoEnvelope(ctx context.Context, endpoint string, opts RequestOptions) (*Envelope, error) {
	if endpoint == "" {
		return nil, &APIError{Status: 500, Code: CodeUnknownError, Message: "empty endpoint", Err: ErrUnknown}
	}

	start := time.Now()
	c.cfg.Telemetry.OnRequestStart(RequestStartEvent{
		Method:   effectiveMethod(opts),
		Endpoint: endpoint,
		Start:    start,
	})

	var env *Envelope
	var err error
retryLoop:
	for attempt := 0; ; attempt++ {
		env, err = c.doOnce(ctx, endpoint, opts)
		if err == nil || c.cfg.Retry == nil {
			break
		}
		delay, ok := c.cfg.Retry.NextDelay(attempt, err)
		if !ok {
			break
		}
		select {
		case <-ctx.Done():
			err = Classify(ctx.Err())
			break retryLoop
		case <-time.After(delay):
		}
	}

	status := 0
	if env != nil {
		status = env.Status
	} else if apiErr := (*APIError)(nil); errors.As(err, &apiErr) {
		status = apiErr.Status
	}
	c.cfg.Telemetry.OnRequestEnd(RequestEndEvent{
		Method:   effectiveMethod(opts),
		Endpoint: endpoint,
		Status:   status,
		Start:    start,
		End:      time.Now(),
		Err:      err,
	})
	return env, err
}

// effectiveMethod mirrors the defaulting doOnce applies.
func effectiveMethod(opts RequestOptions) string {
	if opts.Method != "" {
		return opts.Method
	}
	if opts.Body != nil {
		return http.MethodPost
	}
	return http.MethodGet
}

// doOnce performs a single attempt: build, send, normalize, classify.
func (c *Client) doOnce(ctx context.Context, endpoint string, opts RequestOptions) (*Envelope, error) {
	base := c.cfg.BaseURL
	if opts.BaseURL != "" {
		base = opts.BaseURL
	}
	resolved := joinEndpoint(base, c.cfg.VersionPrefix, endpoint)

	var body io.Reader
	var contentType string
	forceContentType := false
	switch b := opts.Body.(type) {
	case nil:
	case *MultipartBody:
		body = b.Reader()
		// The writer owns the content type; it carries the boundary.
		contentType = b.ContentType()
		forceContentType = true
	case io.Reader:
		body = b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, Classify(err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	// The cancel below both enforces the timeout and releases its timer
	// on every exit path, so repeated calls never accumulate timers.
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, effectiveMethod(opts), resolved, body)
	if err != nil {
		return nil, Classify(err)
	}
	c.applyHeaders(req, opts, contentType, forceContentType)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, Classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Classify(err)
	}

	env, err := c.normalize(resp, raw, isAuthEndpoint(resolved))
	if err != nil {
		return nil, Classify(err)
	}
	return env, nil
}

// applyHeaders merges client defaults, per-request headers, the content
// type and the ambient auth token onto the outgoing request. Multipart
// content types always win (the boundary lives there); a JSON content
// type is injected only when the caller set none.
func (c *Client) applyHeaders(req *http.Request, opts RequestOptions, contentType string, forceContentType bool) {
	for k, vs := range c.cfg.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range opts.Headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, k := range opts.DropHeaders {
		req.Header.Del(k)
	}

	if contentType != "" {
		if forceContentType {
			req.Header.Set("Content-Type", contentType)
		} else if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", contentType)
		}
	}

	if !opts.SkipAuth && req.Header.Get("Authorization") == "" {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok.Expose())
		}
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
}
