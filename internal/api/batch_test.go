package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fleetdash/client-go/internal/apierrors"
)

// batchEcho answers /api/batch by echoing one result per request, failing
// entries whose path contains "missing".
func batchEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != BatchPath {
			t.Errorf("path = %s, want %s", r.URL.Path, BatchPath)
		}
		var env batchEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Errorf("decode envelope: %v", err)
		}

		results := make([]BatchResult, len(env.Requests))
		for i, req := range env.Requests {
			if strings.Contains(req.Path, "missing") {
				results[i] = BatchResult{ID: req.ID, Success: false, Status: 404, Error: "not found"}
				continue
			}
			data, _ := json.Marshal(map[string]string{"path": req.Path})
			results[i] = BatchResult{ID: req.ID, Success: true, Status: 200, Data: data}
		}
		json.NewEncoder(w).Encode(batchResponse{Results: results})
	})
}

func TestClient_ExecuteBatch_PreservesOrder(t *testing.T) {
	server := httptest.NewServer(csrfHandler("tok", batchEcho(t)))
	defer server.Close()

	client := newTestClient(t, server.URL)

	requests := []BatchRequest{
		{Method: http.MethodGet, Path: "/api/vehicles/v-1"},
		{Method: http.MethodGet, Path: "/api/drivers/missing"},
		{Method: http.MethodGet, Path: "/api/work-orders/wo-3"},
	}
	results, err := client.ExecuteBatch(context.Background(), requests)
	if err != nil {
		t.Fatalf("ExecuteBatch() error = %v", err)
	}

	if len(results) != len(requests) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(requests))
	}
	if !results[0].Success || results[0].Status != 200 {
		t.Errorf("results[0] = %+v, want success", results[0])
	}
	if results[1].Success || results[1].Status != 404 || results[1].Error != "not found" {
		t.Errorf("results[1] = %+v, want 404 failure", results[1])
	}
	if !results[2].Success {
		t.Errorf("results[2] = %+v, want success", results[2])
	}

	var payload struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(results[2].Data, &payload); err != nil {
		t.Fatalf("decode result data: %v", err)
	}
	if payload.Path != "/api/work-orders/wo-3" {
		t.Errorf("results[2].Data.path = %q, want /api/work-orders/wo-3", payload.Path)
	}
}

func TestClient_ExecuteBatch_AssignsEntryIDs(t *testing.T) {
	var seenIDs []string
	server := httptest.NewServer(csrfHandler("tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env batchEnvelope
		json.NewDecoder(r.Body).Decode(&env)
		results := make([]BatchResult, len(env.Requests))
		for i, req := range env.Requests {
			seenIDs = append(seenIDs, req.ID)
			results[i] = BatchResult{ID: req.ID, Success: true, Status: 200}
		}
		json.NewEncoder(w).Encode(batchResponse{Results: results})
	})))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ExecuteBatch(context.Background(), []BatchRequest{
		{Method: http.MethodGet, Path: "/api/vehicles"},
		{ID: "caller-id", Method: http.MethodGet, Path: "/api/drivers"},
	})
	if err != nil {
		t.Fatalf("ExecuteBatch() error = %v", err)
	}

	if len(seenIDs) != 2 || seenIDs[0] == "" {
		t.Errorf("seenIDs = %v, want generated ID for entry 0", seenIDs)
	}
	if seenIDs[1] != "caller-id" {
		t.Errorf("seenIDs[1] = %q, want caller-supplied ID kept", seenIDs[1])
	}
}

func TestClient_ExecuteBatch_EmptyFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ExecuteBatch(context.Background(), nil)
	var valErr *apierrors.BatchValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error type = %T, want *BatchValidationError", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("network calls = %d, want 0", got)
	}
}

func TestClient_ExecuteBatch_OversizeFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	requests := make([]BatchRequest, MaxBatchSize+1)
	for i := range requests {
		requests[i] = BatchRequest{Method: http.MethodGet, Path: fmt.Sprintf("/api/vehicles/v-%d", i)}
	}

	_, err := client.ExecuteBatch(context.Background(), requests)
	var valErr *apierrors.BatchValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error type = %T, want *BatchValidationError", err)
	}
	if len(valErr.Problems) != 1 || !strings.Contains(valErr.Problems[0], "51") {
		t.Errorf("Problems = %v, want size violation naming 51", valErr.Problems)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("network calls = %d, want 0", got)
	}
}

func TestClient_ExecuteBatch_RejectsNonAPIPaths(t *testing.T) {
	client := newTestClient(t, "https://fleet.example.com")

	_, err := client.ExecuteBatch(context.Background(), []BatchRequest{
		{Method: http.MethodGet, Path: "/api/vehicles"},
		{Method: http.MethodGet, Path: "https://evil.example.com/api/vehicles"},
		{Method: http.MethodGet, Path: "/health"},
		{Method: "TRACE", Path: "/api/vehicles"},
	})

	var valErr *apierrors.BatchValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error type = %T, want *BatchValidationError", err)
	}
	joined := strings.Join(valErr.Problems, "\n")
	if !strings.Contains(joined, "https://evil.example.com/api/vehicles") {
		t.Errorf("Problems = %v, want offending absolute URL named", valErr.Problems)
	}
	if !strings.Contains(joined, `"/health"`) {
		t.Errorf("Problems = %v, want offending non-API path named", valErr.Problems)
	}
	if !strings.Contains(joined, "TRACE") {
		t.Errorf("Problems = %v, want unsupported method named", valErr.Problems)
	}
}

func TestClient_ExecuteBatch_ResultCountMismatch(t *testing.T) {
	server := httptest.NewServer(csrfHandler("tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchResponse{Results: []BatchResult{{Success: true, Status: 200}}})
	})))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ExecuteBatch(context.Background(), []BatchRequest{
		{Method: http.MethodGet, Path: "/api/vehicles"},
		{Method: http.MethodGet, Path: "/api/drivers"},
	})
	if err == nil || !strings.Contains(err.Error(), "want 2") {
		t.Errorf("err = %v, want result count mismatch", err)
	}
}

func TestIsAPIPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/vehicles", true},
		{"/api/vehicles?status=active", true},
		{"/api/", true},
		{"/health", false},
		{"/apix/vehicles", false},
		{"//evil.example.com/api/x", false},
		{"https://evil.example.com/api/x", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isAPIPath(tt.path); got != tt.want {
			t.Errorf("isAPIPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
