package fleetdash

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithRetryDelay(time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	client, err := New(baseURL, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

// fleetServer serves the CSRF token endpoint plus the given handler.
func fleetServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/csrf-token" {
			json.NewEncoder(w).Encode(map[string]string{"csrfToken": "test-token"})
			return
		}
		handler(w, r)
	}))
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestNew_InitializesServices(t *testing.T) {
	client := newTestClient(t, "https://fleet.example.com")

	if client.Vehicles == nil || client.Drivers == nil || client.WorkOrders == nil ||
		client.Inventory == nil || client.Maintenance == nil || client.Analytics == nil {
		t.Error("service facades not initialized")
	}
	if client.BaseURL() != "https://fleet.example.com" {
		t.Errorf("BaseURL() = %s", client.BaseURL())
	}
}

func TestClient_CloseRejectsFurtherCalls(t *testing.T) {
	client := newTestClient(t, "https://fleet.example.com")

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx := context.Background()
	if _, err := client.Vehicles.List(ctx, nil); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Vehicles.List after Close = %v, want ErrClientClosed", err)
	}
	if _, err := client.Batch(ctx, []BatchRequest{{Method: "GET", Path: "/api/vehicles"}}); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Batch after Close = %v, want ErrClientClosed", err)
	}
	if err := client.RefreshCSRFToken(ctx); !errors.Is(err, ErrClientClosed) {
		t.Errorf("RefreshCSRFToken after Close = %v, want ErrClientClosed", err)
	}
}

func TestClient_LegacyTokenMethodsAreNoOps(t *testing.T) {
	server := fleetServer(t, func(w http.ResponseWriter, r *http.Request) {
		// A bearer header must never appear; sessions are cookie-based.
		if r.Header.Get("Authorization") != "" {
			t.Errorf("Authorization = %q, want none", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[]`))
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetAuthToken("legacy-bearer")
	defer client.ClearAuthToken()

	if _, err := client.Vehicles.List(context.Background(), nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
}

func TestClient_EagerCSRF(t *testing.T) {
	var tokenFetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/csrf-token" {
			tokenFetches.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"csrfToken": "eager"})
			return
		}
		t.Errorf("unexpected path %s", r.URL.Path)
	}))
	defer server.Close()

	newTestClient(t, server.URL, WithEagerCSRF())

	if got := tokenFetches.Load(); got != 1 {
		t.Errorf("token fetches at construction = %d, want 1", got)
	}
}

func TestClient_SessionExpiredHandlerWiredThrough(t *testing.T) {
	server := fleetServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	var hookCalls atomic.Int32
	client := newTestClient(t, server.URL,
		WithSessionExpiredHandler(func() { hookCalls.Add(1) }))

	_, err := client.Vehicles.List(context.Background(), nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
	if got := hookCalls.Load(); got != 1 {
		t.Errorf("hook calls = %d, want 1", got)
	}
}

func TestClient_Batch_EndToEnd(t *testing.T) {
	server := fleetServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/batch" {
			t.Errorf("path = %s, want /api/batch", r.URL.Path)
		}
		var env struct {
			Requests []BatchRequest `json:"requests"`
		}
		json.NewDecoder(r.Body).Decode(&env)
		results := make([]BatchResult, len(env.Requests))
		for i, req := range env.Requests {
			results[i] = BatchResult{ID: req.ID, Success: true, Status: 200}
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	})
	defer server.Close()

	client := newTestClient(t, server.URL)

	results, err := client.Batch(context.Background(), []BatchRequest{
		{Method: "GET", Path: "/api/vehicles/v-1"},
		{Method: "GET", Path: "/api/drivers/d-1"},
	})
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
}

func TestClient_Batch_ValidatesLocally(t *testing.T) {
	client := newTestClient(t, "https://fleet.example.com")

	_, err := client.Batch(context.Background(), []BatchRequest{
		{Method: "GET", Path: "https://elsewhere.example.com/api/x"},
	})
	var valErr *BatchValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error type = %T, want *BatchValidationError", err)
	}
}

func TestVehicles_List_QueryParameters(t *testing.T) {
	server := fleetServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"status":   "active",
			"fleet":    "north",
			"assigned": "true",
			"page":     "2",
			"per_page": "25",
		}
		for key, value := range want {
			if q.Get(key) != value {
				t.Errorf("query %s = %q, want %q", key, q.Get(key), value)
			}
		}
		w.Write([]byte(`[{"id":"v-1","name":"Truck 1","status":"active"}]`))
	})
	defer server.Close()

	client := newTestClient(t, server.URL)

	assigned := true
	vehicles, err := client.Vehicles.List(context.Background(), &VehicleListOptions{
		Status:   "active",
		Fleet:    "north",
		Assigned: &assigned,
		Page:     2,
		PerPage:  25,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].ID != "v-1" {
		t.Errorf("vehicles = %+v, want one vehicle v-1", vehicles)
	}
}

func TestVehicles_CreateTrimsStrings(t *testing.T) {
	var received map[string]any
	server := fleetServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"v-2","name":"Van 2"}`))
	})
	defer server.Close()

	client := newTestClient(t, server.URL)

	created, err := client.Vehicles.Create(context.Background(), &Vehicle{
		Name: "  Van 2  ",
		VIN:  " WVWZZZ1JZXW000001 ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != "v-2" {
		t.Errorf("id = %q, want v-2", created.ID)
	}
	if received["name"] != "Van 2" {
		t.Errorf("sent name = %q, want trimmed", received["name"])
	}
	if received["vin"] != "WVWZZZ1JZXW000001" {
		t.Errorf("sent vin = %q, want trimmed", received["vin"])
	}
}

func TestWorkOrders_Lifecycle(t *testing.T) {
	server := fleetServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/work-orders":
			if r.Header.Get("X-CSRF-Token") != "test-token" {
				t.Errorf("X-CSRF-Token = %q, want test-token", r.Header.Get("X-CSRF-Token"))
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"wo-1","vehicleId":"v-1","title":"Oil change","status":"open"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/work-orders/wo-1/close":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	order, err := client.WorkOrders.Create(ctx, &WorkOrder{VehicleID: "v-1", Title: "Oil change"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if order.ID != "wo-1" || order.Status != "open" {
		t.Errorf("order = %+v", order)
	}

	if err := client.WorkOrders.Close(ctx, order.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
