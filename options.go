package fleetdash

import (
	"log/slog"
	"net/http"
	"time"
)

// Default client bounds. Attachment uploads get the longer window.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 60 * time.Second
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	httpClient       *http.Client
	timeout          time.Duration
	uploadTimeout    time.Duration
	retries          int
	retryDelay       time.Duration
	retryOn          []int
	logger           *slog.Logger
	onSessionExpired func()
	eagerCSRF        bool
}

// Option configures the client.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client. The client must carry a cookie
// jar for session authentication to work.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout. Default: 30 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithUploadTimeout sets the timeout for attachment uploads. Default: 60 seconds.
func WithUploadTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.uploadTimeout = timeout
	}
}

// WithRetries sets the number of retries after the initial attempt.
// Default: 3 (4 total attempts).
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.retries = count
	}
}

// WithRetryDelay sets the base backoff delay between retries.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *clientConfig) {
		c.retryDelay = delay
	}
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
// Default: 408, 429 and all 5xx.
func WithRetryOn(statusCodes []int) Option {
	return func(c *clientConfig) {
		c.retryOn = statusCodes
	}
}

// WithLogger sets the logger for retry, CSRF and session events.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithSessionExpiredHandler sets the hook invoked once per 401 response,
// after cached credentials are cleared. Dashboard shells use it to
// navigate to the login page.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *clientConfig) {
		c.onSessionExpired = fn
	}
}

// WithEagerCSRF acquires the anti-forgery token at construction instead of
// lazily on the first mutating call.
func WithEagerCSRF() Option {
	return func(c *clientConfig) {
		c.eagerCSRF = true
	}
}
