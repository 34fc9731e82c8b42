package fleetdash

import (
	"github.com/fleetdash/client-go/internal/apierrors"
)

// Sentinel errors for errors.Is() checks.
var (
	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = apierrors.ErrClientClosed

	// ErrSessionExpired is returned when the server rejects the session cookie (401).
	// The session-expired handler has already fired by the time a caller sees it.
	ErrSessionExpired = apierrors.ErrSessionExpired

	// ErrForbidden is returned for non-CSRF 403 responses.
	ErrForbidden = apierrors.ErrForbidden

	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = apierrors.ErrNotFound

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = apierrors.ErrRateLimited

	// ErrCSRFTokenUnavailable is returned when the anti-forgery token could
	// not be obtained from either token endpoint.
	ErrCSRFTokenUnavailable = apierrors.ErrCSRFTokenUnavailable
)

// Typed errors carried by every failure the client surfaces. Aliased from
// the shared internal package so errors.As works on values produced
// anywhere in the SDK.
type (
	// HTTPError is a failure status returned by the API, with the raw body.
	HTTPError = apierrors.HTTPError
	// NetworkError is a transport-level failure with no HTTP response.
	NetworkError = apierrors.NetworkError
	// TimeoutError is a locally synthesized deadline expiry (408-equivalent).
	TimeoutError = apierrors.TimeoutError
	// CSRFError is an anti-forgery rejection that one token refresh did not resolve.
	CSRFError = apierrors.CSRFError
	// BatchValidationError reports batch entries rejected before submission.
	BatchValidationError = apierrors.BatchValidationError
)
