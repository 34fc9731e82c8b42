package main

import (
	"bytes"
	"encoding/json"
	"net/http"
)

type batchEntry struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

type batchEntryResult struct {
	ID      string          `json:"id,omitempty"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleBatch executes every envelope entry by re-dispatching it through
// the router and returns results in input order. Entry failures are
// encoded per result; the batch call itself succeeds.
func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var envelope struct {
		Requests []batchEntry `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid batch envelope"})
		return
	}
	if len(envelope.Requests) == 0 || len(envelope.Requests) > maxBatchSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch size out of range"})
		return
	}
	batchSizes.Observe(float64(len(envelope.Requests)))

	results := make([]batchEntryResult, len(envelope.Requests))
	for i, entry := range envelope.Requests {
		results[i] = s.executeEntry(r, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *server) executeEntry(parent *http.Request, entry batchEntry) batchEntryResult {
	var body *bytes.Reader
	if entry.Body != nil {
		body = bytes.NewReader(entry.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(parent.Context(), entry.Method, entry.Path, body)
	if err != nil {
		return batchEntryResult{ID: entry.ID, Status: http.StatusBadRequest, Error: err.Error()}
	}
	// Sub-requests inherit the envelope's credentials.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", parent.Header.Get("X-CSRF-Token"))
	for _, cookie := range parent.Cookies() {
		req.AddCookie(cookie)
	}

	rec := &bufferedResponse{status: http.StatusOK, header: http.Header{}}
	s.router.ServeHTTP(rec, req)

	result := batchEntryResult{ID: entry.ID, Status: rec.status}
	data := bytes.TrimSpace(rec.body.Bytes())
	if rec.status >= 200 && rec.status < 300 {
		result.Success = true
		if len(data) > 0 {
			result.Data = json.RawMessage(data)
		}
	} else {
		var srvErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &srvErr)
		result.Error = srvErr.Error
		if result.Error == "" {
			result.Error = srvErr.Message
		}
		if result.Error == "" {
			result.Error = http.StatusText(rec.status)
		}
	}
	return result
}

// bufferedResponse captures a sub-request's response in memory.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (r *bufferedResponse) Header() http.Header { return r.header }

func (r *bufferedResponse) Write(p []byte) (int, error) { return r.body.Write(p) }

func (r *bufferedResponse) WriteHeader(status int) { r.status = status }
