package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/fleetdash/client-go/internal/apierrors"
)

// Batch limits and paths.
const (
	// BatchPath is the endpoint accepting batch envelopes.
	BatchPath = "/api/batch"
	// APIPathPrefix is the same-origin prefix every batch entry must be under.
	APIPathPrefix = "/api/"
	// MaxBatchSize is the largest number of requests in one envelope.
	MaxBatchSize = 50
)

// ExecuteBatch submits the given requests as one network round trip and
// returns results in input order: result[i] corresponds to requests[i].
// Individual sub-request failures are encoded per result and never fail
// the batch call itself.
//
// Validation runs before any network activity; violations return a
// *apierrors.BatchValidationError naming the offending entries.
func (c *Client) ExecuteBatch(ctx context.Context, requests []BatchRequest) ([]BatchResult, error) {
	if err := validateBatch(requests); err != nil {
		return nil, err
	}

	envelope := batchEnvelope{Requests: make([]BatchRequest, len(requests))}
	for i, req := range requests {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		envelope.Requests[i] = req
	}

	var resp batchResponse
	if err := c.Do(ctx, http.MethodPost, BatchPath, envelope, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) != len(requests) {
		return nil, fmt.Errorf("batch response has %d results, want %d",
			len(resp.Results), len(requests))
	}
	return resp.Results, nil
}

// validateBatch enforces the envelope limits: 1..MaxBatchSize entries,
// known HTTP verbs, and same-origin paths under the API prefix.
func validateBatch(requests []BatchRequest) error {
	if len(requests) == 0 {
		return &apierrors.BatchValidationError{
			Problems: []string{"batch is empty"},
		}
	}
	if len(requests) > MaxBatchSize {
		return &apierrors.BatchValidationError{
			Problems: []string{fmt.Sprintf("batch has %d requests, maximum is %d",
				len(requests), MaxBatchSize)},
		}
	}

	var problems []string
	for i, req := range requests {
		switch req.Method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			problems = append(problems,
				fmt.Sprintf("request %d: unsupported method %q", i, req.Method))
		}
		if !isAPIPath(req.Path) {
			problems = append(problems,
				fmt.Sprintf("request %d: path %q is not a same-origin API path", i, req.Path))
		}
	}
	if len(problems) > 0 {
		return &apierrors.BatchValidationError{Problems: problems}
	}
	return nil
}

// isAPIPath reports whether p is a relative path under the API prefix.
// Absolute URLs and protocol-relative paths are rejected.
func isAPIPath(p string) bool {
	if !strings.HasPrefix(p, APIPathPrefix) {
		return false
	}
	if strings.HasPrefix(p, "//") {
		return false
	}
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, APIPathPrefix)
}
