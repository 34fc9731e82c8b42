// Package api provides HTTP client functionality for communicating with the
// FleetDash backend. It handles CSRF token lifecycle, request/response
// serialization, per-attempt timeouts, automatic retry with exponential
// backoff for transient failures, and multi-request batching.
//
// # Client Creation
//
// The package provides two ways to create a client:
//
//   - [NewClient]: Struct-based configuration for explicit, type-safe setup.
//   - [New]: Functional options pattern for flexible configuration.
//
// Both require a base URL. Session authentication travels via same-origin
// cookies on the client's jar; the client never stores a bearer token.
//
// # CSRF Protection
//
// State-changing requests (POST, PUT, PATCH, DELETE) carry the server-issued
// anti-forgery token in the X-CSRF-Token header. The token is fetched lazily
// on the first mutating call with single-flight deduplication: concurrent
// callers share one in-flight fetch. A 403 response with a CSRF-shaped
// payload triggers exactly one token refresh and re-issue, outside the
// general retry budget. GET and HEAD requests never carry the token.
//
// # Retry Behavior
//
// Failed requests are retried with exponential backoff: by default 3 retries
// (4 total attempts) on network failures, locally synthesized timeouts
// (classified as 408), 429 and all 5xx responses. Other 4xx responses are
// terminal, and a 401 additionally clears cached credentials and fires the
// session-expired hook before surfacing. Configure retry behavior with
// [Config.MaxRetries], [Config.RetryDelay], and [Config.RetryOn].
//
// # Error Handling
//
// Failures surface as the typed errors of the apierrors package:
// *HTTPError with status and raw body, *NetworkError, *TimeoutError,
// *CSRFError, and *BatchValidationError. Sentinels such as
// apierrors.ErrSessionExpired support errors.Is branching.
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use. Multiple goroutines may call
// methods on a single Client simultaneously; cancelling one call never
// affects other in-flight calls.
package api
