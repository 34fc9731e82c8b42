package fleetdash

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fleetdash/client-go/internal/api"
)

// Client is the FleetDash API client. Resource facades hang off it as
// service fields; all of them share one resilient gateway underneath.
type Client struct {
	apiClient *api.Client

	mu     sync.RWMutex
	closed bool

	// Resource facades. Thin per-domain method groups; every call funnels
	// through the same dispatcher.
	Vehicles    *VehiclesService
	Drivers     *DriversService
	WorkOrders  *WorkOrdersService
	Inventory   *InventoryService
	Maintenance *MaintenanceService
	Analytics   *AnalyticsService

	uploadTimeout time.Duration
}

// New creates a FleetDash client for the given origin, e.g.
// "https://fleet.example.com".
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	cfg := &clientConfig{
		timeout:       DefaultTimeout,
		uploadTimeout: DefaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	apiOpts := []api.Option{
		api.WithTimeout(cfg.timeout),
	}
	if cfg.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(cfg.httpClient))
	}
	if cfg.retries > 0 {
		apiOpts = append(apiOpts, api.WithRetries(cfg.retries))
	}
	if cfg.retryDelay > 0 {
		apiOpts = append(apiOpts, api.WithRetryDelay(cfg.retryDelay))
	}
	if len(cfg.retryOn) > 0 {
		apiOpts = append(apiOpts, api.WithRetryOn(cfg.retryOn))
	}
	if cfg.logger != nil {
		apiOpts = append(apiOpts, api.WithLogger(cfg.logger))
	}
	if cfg.onSessionExpired != nil {
		apiOpts = append(apiOpts, api.WithSessionExpiredHandler(cfg.onSessionExpired))
	}

	apiClient, err := api.New(baseURL, apiOpts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiClient:     apiClient,
		uploadTimeout: cfg.uploadTimeout,
	}
	c.Vehicles = &VehiclesService{client: c}
	c.Drivers = &DriversService{client: c}
	c.WorkOrders = &WorkOrdersService{client: c}
	c.Inventory = &InventoryService{client: c}
	c.Maintenance = &MaintenanceService{client: c}
	c.Analytics = &AnalyticsService{client: c}

	if cfg.eagerCSRF {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
		defer cancel()
		if err := apiClient.EnsureCSRFToken(ctx); err != nil {
			return nil, fmt.Errorf("eager CSRF acquisition: %w", err)
		}
	}

	return c, nil
}

// checkClosed returns ErrClientClosed if the client has been closed.
func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.apiClient.BaseURL()
}

// RefreshCSRFToken discards the cached anti-forgery token and fetches a new
// one. Normally unnecessary: the client refreshes automatically on a
// CSRF-flagged rejection.
func (c *Client) RefreshCSRFToken(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	return c.apiClient.RefreshCSRFToken(ctx)
}

// Batch submits up to 50 independent requests as one network round trip.
// Results come back in input order: result[i] corresponds to requests[i],
// and a failed entry never fails the batch call itself. Validation failures
// return a *BatchValidationError before any network activity.
func (c *Client) Batch(ctx context.Context, requests []BatchRequest) ([]BatchResult, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return c.apiClient.ExecuteBatch(ctx, requests)
}

// SetAuthToken is a deprecated no-op. Authentication moved to cookie-based
// sessions; the method is kept so older call sites keep compiling.
//
// Deprecated: session cookies are managed automatically.
func (c *Client) SetAuthToken(string) {}

// ClearAuthToken is a deprecated no-op, kept for API-shape compatibility
// with pre-session callers.
//
// Deprecated: session cookies are managed automatically.
func (c *Client) ClearAuthToken() {}

// Close marks the client closed. Subsequent calls fail with ErrClientClosed.
// In-flight requests are not interrupted; cancel their contexts instead.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// BatchRequest is one entry in a batch envelope.
type BatchRequest = api.BatchRequest

// BatchResult is the outcome of one batch entry.
type BatchResult = api.BatchResult
