package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// Request describes one logical API call. It is immutable once handed to the
// client; retry attempts each build a fresh *http.Request from it.
type Request struct {
	// Method is the HTTP verb (GET, POST, PUT, PATCH, DELETE).
	Method string
	// Path is the API path relative to the base URL, e.g. "/api/vehicles".
	Path string
	// Body is JSON-marshaled when non-nil. Top-level string fields are
	// trimmed of surrounding whitespace before serialization.
	Body any
	// Timeout overrides the client default for this request when > 0.
	Timeout time.Duration
	// Header holds extra headers merged into every attempt.
	Header http.Header
}

// BatchRequest is one entry in a batch envelope.
type BatchRequest struct {
	ID     string `json:"id,omitempty"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Body   any    `json:"body,omitempty"`
}

// BatchResult is the outcome of one batch entry. Results are positional:
// result[i] corresponds to request[i] regardless of individual success.
type BatchResult struct {
	ID      string          `json:"id,omitempty"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// batchEnvelope is the POST /api/batch request body.
type batchEnvelope struct {
	Requests []BatchRequest `json:"requests"`
}

// batchResponse is the POST /api/batch response body.
type batchResponse struct {
	Results []BatchResult `json:"results"`
}

// csrfTokenResponse is the token endpoint response. Older deployments use
// the "token" field name, newer ones "csrfToken"; both are accepted.
type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
	Token     string `json:"token"`
}

func (r *csrfTokenResponse) value() string {
	if r.CSRFToken != "" {
		return r.CSRFToken
	}
	return r.Token
}

// serverError is the conventional error payload shape returned by the API.
type serverError struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}
