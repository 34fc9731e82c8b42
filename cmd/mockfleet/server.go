package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBatchSize = 50

// vehicle mirrors the client's wire shape.
type vehicle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	VIN       string    `json:"vin"`
	Status    string    `json:"status"`
	Odometer  int64     `json:"odometer"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type workOrder struct {
	ID        string     `json:"id"`
	VehicleID string     `json:"vehicleId"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	OpenedAt  time.Time  `json:"openedAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

// server is an in-memory FleetDash backend for development and client
// testing. It issues CSRF tokens, enforces them on mutating requests, and
// implements the batch endpoint by re-dispatching through its own router.
type server struct {
	logger *slog.Logger

	mu         sync.RWMutex
	tokens     map[string]struct{}
	vehicles   map[string]*vehicle
	workOrders map[string]*workOrder

	router *mux.Router

	// Fault injection knobs for exercising client retry paths.
	failNext int
}

func newServer(logger *slog.Logger) *server {
	s := &server{
		logger:     logger,
		tokens:     make(map[string]struct{}),
		vehicles:   make(map[string]*vehicle),
		workOrders: make(map[string]*workOrder),
	}
	s.seed()
	s.router = s.buildRouter()
	return s
}

func (s *server) seed() {
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("v-%d", i)
		s.vehicles[id] = &vehicle{
			ID:        id,
			Name:      fmt.Sprintf("Truck %d", i),
			VIN:       fmt.Sprintf("1FTSW21R08ED%05d", i),
			Status:    "active",
			Odometer:  int64(40000 + i*12345),
			UpdatedAt: time.Now().UTC(),
		}
	}
}

func (s *server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/api/csrf-token", s.handleCSRFToken).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/csrf", s.handleCSRFToken).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireCSRF)

	api.HandleFunc("/vehicles", s.handleListVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", s.handleCreateVehicle).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", s.handleGetVehicle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", s.handleDeleteVehicle).Methods(http.MethodDelete)

	api.HandleFunc("/work-orders", s.handleListWorkOrders).Methods(http.MethodGet)
	api.HandleFunc("/work-orders", s.handleCreateWorkOrder).Methods(http.MethodPost)
	api.HandleFunc("/work-orders/{id}/close", s.handleCloseWorkOrder).Methods(http.MethodPost)

	api.HandleFunc("/analytics/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/batch", s.handleBatch).Methods(http.MethodPost)

	// Developer knobs, outside the API prefix.
	r.HandleFunc("/dev/fail", s.handleFailNext).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// instrument records request metrics and applies fault injection.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			s.mu.Lock()
			inject := s.failNext > 0
			if inject {
				s.failNext--
			}
			s.mu.Unlock()
			if inject {
				requestsTotal.WithLabelValues(r.Method, r.URL.Path, "503").Inc()
				http.Error(w, `{"error":"injected failure"}`, http.StatusServiceUnavailable)
				return
			}
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		requestLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requireCSRF enforces the anti-forgery token on mutating methods.
func (s *server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			token := r.Header.Get("X-CSRF-Token")
			s.mu.RLock()
			_, ok := s.tokens[token]
			s.mu.RUnlock()
			if !ok {
				csrfRejectedTotal.Inc()
				writeJSON(w, http.StatusForbidden, map[string]string{
					"code":    "EBADCSRFTOKEN",
					"message": "invalid csrf token",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	csrfIssuedTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (s *server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	s.mu.RLock()
	list := make([]*vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if status == "" || v.Status == status {
			list = append(list, v)
		}
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.RLock()
	v, ok := s.vehicles[id]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "vehicle not found"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	v.ID = "v-" + uuid.NewString()[:8]
	v.UpdatedAt = time.Now().UTC()
	if v.Status == "" {
		v.Status = "active"
	}

	s.mu.Lock()
	s.vehicles[v.ID] = &v
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, &v)
}

func (s *server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.vehicles[id]
	delete(s.vehicles, id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "vehicle not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleListWorkOrders(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.URL.Query().Get("vehicle_id")

	s.mu.RLock()
	list := make([]*workOrder, 0, len(s.workOrders))
	for _, wo := range s.workOrders {
		if vehicleID == "" || wo.VehicleID == vehicleID {
			list = append(list, wo)
		}
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleCreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var wo workOrder
	if err := json.NewDecoder(r.Body).Decode(&wo); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	wo.ID = "wo-" + uuid.NewString()[:8]
	wo.Status = "open"
	wo.OpenedAt = time.Now().UTC()

	s.mu.Lock()
	s.workOrders[wo.ID] = &wo
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, &wo)
}

func (s *server) handleCloseWorkOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	now := time.Now().UTC()

	s.mu.Lock()
	wo, ok := s.workOrders[id]
	if ok {
		wo.Status = "closed"
		wo.ClosedAt = &now
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "work order not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	active := 0
	for _, v := range s.vehicles {
		if v.Status == "active" {
			active++
		}
	}
	open := 0
	for _, wo := range s.workOrders {
		if wo.Status == "open" {
			open++
		}
	}
	summary := map[string]any{
		"totalVehicles":  len(s.vehicles),
		"activeVehicles": active,
		"openWorkOrders": open,
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, summary)
}

// handleFailNext arms fault injection: the next N API requests return 503.
func (s *server) handleFailNext(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n < 0 {
		n = 1
	}
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
	s.logger.Info("armed fault injection", "requests", n)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
