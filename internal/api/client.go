package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetdash/client-go/internal/apierrors"
)

// Default client bounds.
const (
	// DefaultTimeout bounds each request attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultUploadTimeout is the longer bound facades use for attachment
	// uploads via Request.Timeout.
	DefaultUploadTimeout = 60 * time.Second
	// DefaultMaxRetries is the retry count after the initial attempt.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the base backoff delay.
	DefaultRetryDelay = 250 * time.Millisecond
)

// Config configures the API client.
type Config struct {
	// BaseURL is the origin the dashboard is served from, e.g.
	// "https://fleet.example.com". Required.
	BaseURL string
	// HTTPClient overrides the default cookie-jar transport.
	HTTPClient *http.Client
	// Timeout bounds each request attempt. Defaults to DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the retry count after the initial attempt.
	MaxRetries int
	// RetryDelay is the base backoff delay.
	RetryDelay time.Duration
	// RetryOn overrides the status codes that trigger a retry.
	RetryOn []int
	// Logger receives debug/warn events. Defaults to slog.Default().
	Logger *slog.Logger
	// OnSessionExpired is invoked once per 401 response, after cached
	// credentials are cleared. The dashboard shell uses it to navigate
	// to the login page.
	OnSessionExpired func()
}

// Client is the HTTP gateway every resource facade talks through. It owns
// CSRF token lifecycle, per-attempt timeouts, retry with backoff, session
// invalidation on 401, and batch submission.
//
// Client is safe for concurrent use.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	timeout          time.Duration
	retry            *RetryConfig
	csrf             *csrfManager
	logger           *slog.Logger
	onSessionExpired func()
	ownJar           bool
}

// Option configures the API client.
type Option func(*Config)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetries sets the number of retries after the initial attempt.
func WithRetries(count int) Option {
	return func(c *Config) { c.MaxRetries = count }
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Config) { c.RetryDelay = delay }
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
// Default: 408, 429 and all 5xx.
func WithRetryOn(statusCodes []int) Option {
	return func(c *Config) { c.RetryOn = statusCodes }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithSessionExpiredHandler sets the 401 side-effect hook.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Config) { c.OnSessionExpired = fn }
}

// New creates a client for the given base URL using functional options.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := Config{BaseURL: baseURL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClient(cfg)
}

// NewClient creates a client from an explicit configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		retry.BaseDelay = cfg.RetryDelay
	}
	if len(cfg.RetryOn) > 0 {
		codes := make(map[int]struct{}, len(cfg.RetryOn))
		for _, code := range cfg.RetryOn {
			codes[code] = struct{}{}
		}
		retry.RetryableOn = func(statusCode int) bool {
			_, ok := codes[statusCode]
			return ok
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	ownJar := false
	if httpClient == nil {
		// Session auth travels via cookies; the client owns a jar so the
		// session cookie set at login is echoed on every call.
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar}
		ownJar = true
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:          strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:       httpClient,
		timeout:          timeout,
		retry:            retry,
		logger:           logger,
		onSessionExpired: cfg.OnSessionExpired,
		ownJar:           ownJar,
	}
	c.csrf = newCSRFManager(c.fetchCSRFToken)
	return c, nil
}

// SetHTTPClient sets a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
	c.ownJar = false
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// isMutating reports whether the method changes server state and therefore
// requires the CSRF token. GET and HEAD never carry it.
func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Do issues one logical request and decodes the JSON response into result.
// result may be nil when the caller does not need the body.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	return c.DoRequest(ctx, Request{Method: method, Path: path, Body: body}, result)
}

// DoRequest issues one logical request described by r. The descriptor is
// never mutated; each attempt builds a fresh *http.Request from it.
//
// Failure handling, in order: caller cancellation is terminal; a
// CSRF-flagged 403 triggers exactly one token refresh and re-issue outside
// the retry budget; transient failures (network, timeout, retryable status)
// are retried with backoff up to the attempt cap; everything else returns a
// typed error immediately.
func (c *Client) DoRequest(ctx context.Context, r Request, result any) error {
	payload, err := marshalBody(r.Body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	if isMutating(r.Method) {
		if _, err := c.csrf.EnsureToken(ctx); err != nil {
			return err
		}
	}

	requestID := uuid.NewString()
	timeout := c.timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}

	attempt := 0
	csrfRetried := false
	for {
		outcome := c.attempt(ctx, r, payload, requestID, timeout, result)
		if outcome.err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return outcome.err
		}

		// One-shot refresh-and-retry on anti-forgery rejection. This path
		// does not consume the general retry budget.
		if outcome.csrfRejected && !csrfRetried {
			csrfRetried = true
			c.logger.Debug("CSRF rejection, refreshing token",
				"method", r.Method, "path", r.Path)
			if _, err := c.csrf.RefreshToken(ctx); err != nil {
				return &apierrors.CSRFError{Message: "token refresh failed", Err: err}
			}
			continue
		}

		if c.shouldRetry(outcome, attempt) {
			c.logger.Debug("retrying request",
				"method", r.Method, "path", r.Path,
				"attempt", attempt+1, "status", outcome.status)
			if err := c.retry.Wait(ctx, attempt); err != nil {
				return outcome.err
			}
			attempt++
			continue
		}

		return outcome.err
	}
}

// shouldRetry applies the retry classification to one failed attempt.
// Network failures carry no status and are bounded only by the attempt cap;
// HTTP failures (including the synthesized 408 for timeouts) go through the
// status classifier.
func (c *Client) shouldRetry(o attemptOutcome, attempt int) bool {
	if !o.retryable {
		return false
	}
	if o.status == 0 {
		return attempt < c.retry.MaxRetries
	}
	return c.retry.ShouldRetry(attempt, o.status)
}

// attemptOutcome is the classified result of one network attempt.
type attemptOutcome struct {
	status       int
	err          error
	retryable    bool
	csrfRejected bool
}

// attempt issues exactly one HTTP call bounded by timeout.
func (c *Client) attempt(ctx context.Context, r Request, payload []byte, requestID string, timeout time.Duration, result any) attemptOutcome {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, r.Method, c.baseURL+r.Path, bodyReader)
	if err != nil {
		return attemptOutcome{err: fmt.Errorf("build request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if isMutating(r.Method) {
		if token := c.csrf.CurrentToken(); token != "" {
			req.Header.Set("X-CSRF-Token", token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, attemptCtx, r, timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return attemptOutcome{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.classifyTransportError(ctx, attemptCtx, r, timeout, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if result == nil || len(body) == 0 {
			return attemptOutcome{status: resp.StatusCode}
		}
		if err := json.Unmarshal(body, result); err != nil {
			return attemptOutcome{
				status: resp.StatusCode,
				err:    fmt.Errorf("decode response: %w", err),
			}
		}
		return attemptOutcome{status: resp.StatusCode}
	}

	srvErr := parseServerError(body)
	httpErr := &apierrors.HTTPError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Message:    srvErr.message(),
		RequestID:  srvErr.RequestID,
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Terminal: never retried. The session is gone; clear credentials
		// and signal the shell before surfacing the error.
		c.sessionExpired()
		return attemptOutcome{status: resp.StatusCode, err: httpErr}

	case resp.StatusCode == http.StatusForbidden && isCSRFRejection(srvErr):
		return attemptOutcome{
			status:       resp.StatusCode,
			err:          &apierrors.CSRFError{Message: srvErr.message()},
			csrfRejected: true,
		}

	default:
		return attemptOutcome{
			status:    resp.StatusCode,
			err:       httpErr,
			retryable: c.retry.RetryableOn(resp.StatusCode),
		}
	}
}

// classifyTransportError maps a failed transport call to a typed outcome.
func (c *Client) classifyTransportError(ctx, attemptCtx context.Context, r Request, timeout time.Duration, err error) attemptOutcome {
	if ctx.Err() != nil {
		// The caller cancelled; surface their context error unchanged.
		return attemptOutcome{err: ctx.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return attemptOutcome{
			status: apierrors.TimeoutStatusCode,
			err: &apierrors.TimeoutError{
				Operation: r.Method + " " + r.Path,
				Timeout:   timeout,
			},
			retryable: true,
		}
	}
	return attemptOutcome{
		err:       &apierrors.NetworkError{Err: err, URL: c.baseURL + r.Path},
		retryable: true,
	}
}

// sessionExpired clears cached credentials and fires the 401 hook.
func (c *Client) sessionExpired() {
	c.csrf.Invalidate()
	if c.ownJar {
		if jar, err := cookiejar.New(nil); err == nil {
			c.httpClient.Jar = jar
		}
	}
	c.logger.Warn("session expired, cached credentials cleared")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// EnsureCSRFToken eagerly acquires the anti-forgery token. Mutating calls
// do this lazily; callers that want the fetch out of the critical path can
// invoke it at startup.
func (c *Client) EnsureCSRFToken(ctx context.Context) error {
	_, err := c.csrf.EnsureToken(ctx)
	return err
}

// RefreshCSRFToken discards the cached token and fetches a new one.
func (c *Client) RefreshCSRFToken(ctx context.Context) error {
	_, err := c.csrf.RefreshToken(ctx)
	return err
}

// CurrentCSRFToken returns the cached token, or "" if none is ready.
func (c *Client) CurrentCSRFToken() string {
	return c.csrf.CurrentToken()
}

// CSRFState reports the token acquisition state.
func (c *Client) CSRFState() TokenState {
	return c.csrf.State()
}

// fetchCSRFToken acquires a token from the primary endpoint, falling back
// to the legacy auth path before giving up.
func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	token, primaryErr := c.fetchTokenFrom(ctx, CSRFTokenPath)
	if primaryErr == nil {
		return token, nil
	}
	c.logger.Debug("primary CSRF endpoint failed, trying fallback", "error", primaryErr)
	token, fallbackErr := c.fetchTokenFrom(ctx, CSRFTokenFallbackPath)
	if fallbackErr == nil {
		return token, nil
	}
	return "", fmt.Errorf("fetch CSRF token: %w", errors.Join(primaryErr, fallbackErr))
}

func (c *Client) fetchTokenFrom(ctx context.Context, path string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &apierrors.NetworkError{Err: err, URL: c.baseURL + path}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &apierrors.HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	var tokenResp csrfTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.value() == "" {
		return "", fmt.Errorf("token response missing token field")
	}
	return tokenResp.value(), nil
}

// marshalBody serializes a request body to JSON, trimming surrounding
// whitespace from top-level string fields. Returns nil for a nil body.
func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return trimStringFields(data), nil
}

// trimStringFields rewrites a JSON object so every top-level string value
// has surrounding whitespace removed. Non-object payloads and non-string
// fields pass through unchanged.
func trimStringFields(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return data
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return data
	}

	changed := false
	for key, raw := range fields {
		if len(raw) == 0 || raw[0] != '"' {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == s {
			continue
		}
		enc, err := json.Marshal(trimmed)
		if err != nil {
			continue
		}
		fields[key] = enc
		changed = true
	}
	if !changed {
		return data
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return data
	}
	return out
}

func parseServerError(body []byte) serverError {
	var srvErr serverError
	if len(body) > 0 {
		// Best effort; a non-JSON body leaves the struct zero-valued and
		// the raw bytes travel in HTTPError.Body.
		_ = json.Unmarshal(body, &srvErr)
	}
	return srvErr
}

func (e serverError) message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// isCSRFRejection reports whether a 403 payload is CSRF-shaped: either the
// conventional EBADCSRFTOKEN code or a message naming the token.
func isCSRFRejection(srvErr serverError) bool {
	if strings.EqualFold(srvErr.Code, "EBADCSRFTOKEN") {
		return true
	}
	for _, field := range []string{srvErr.Error, srvErr.Message} {
		if strings.Contains(strings.ToLower(field), "csrf") {
			return true
		}
	}
	return false
}
