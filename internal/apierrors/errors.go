// Package apierrors provides shared error types for the FleetDash client.
package apierrors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = errors.New("client has been closed")

	// ErrSessionExpired is returned when the server rejects the session cookie (401).
	ErrSessionExpired = errors.New("session expired")

	// ErrForbidden is returned for non-CSRF 403 responses.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCSRFTokenUnavailable is returned when a CSRF token could not be
	// obtained from either token endpoint.
	ErrCSRFTokenUnavailable = errors.New("CSRF token unavailable")
)

// HTTPError represents a failure status returned by the FleetDash API.
// Body holds the raw response payload so callers can branch on structured
// error details the server includes.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Message    string
	RequestID  string
}

func (e *HTTPError) Error() string {
	if e.RequestID != "" {
		if e.Message != "" {
			return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
		}
		return fmt.Sprintf("API error %d (request_id: %s)", e.StatusCode, e.RequestID)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// Is implements errors.Is for sentinel error matching.
func (e *HTTPError) Is(target error) bool {
	switch e.StatusCode {
	case 401:
		return target == ErrSessionExpired
	case 403:
		return target == ErrForbidden
	case 404:
		return target == ErrNotFound
	case 429:
		return target == ErrRateLimited
	}
	return false
}

// NetworkError represents a transport-level failure with no HTTP response.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutStatusCode is the synthesized status reported for locally
// detected timeouts, matching 408 Request Timeout semantics.
const TimeoutStatusCode = 408

// TimeoutError represents an operation that exceeded its deadline. It is
// synthesized locally when a request context expires, never by the server.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Timeout)
}

// StatusCode returns the 408-equivalent code used for retry classification.
func (e *TimeoutError) StatusCode() int {
	return TimeoutStatusCode
}

// CSRFError represents an anti-forgery rejection that was not resolved by
// refreshing the token.
type CSRFError struct {
	Message string
	Err     error
}

func (e *CSRFError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("CSRF rejection: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("CSRF rejection: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *CSRFError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *CSRFError) Is(target error) bool {
	return target == ErrCSRFTokenUnavailable
}

// BatchValidationError reports batch entries rejected before submission.
// Problems holds one human-readable entry per offending request, each
// naming the index and the invalid field.
type BatchValidationError struct {
	Problems []string
}

func (e *BatchValidationError) Error() string {
	return fmt.Sprintf("batch validation failed: %s", strings.Join(e.Problems, "; "))
}
