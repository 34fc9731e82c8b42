package fleetdash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Part is one inventory line item (spare parts, fluids, consumables).
type Part struct {
	ID           string `json:"id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorderLevel"`
	UnitCents    int64  `json:"unitCents"`
	Location     string `json:"location,omitempty"`
}

// PartListOptions filters an inventory listing.
type PartListOptions struct {
	Category     string
	BelowReorder bool
	Page         int
	PerPage      int
}

func (o *PartListOptions) query() string {
	if o == nil {
		return ""
	}
	q := url.Values{}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if o.BelowReorder {
		q.Set("below_reorder", "true")
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	return q.Encode()
}

// InventoryService provides access to the parts inventory endpoints.
type InventoryService struct {
	client *Client
}

// List returns inventory items matching the given filters.
func (s *InventoryService) List(ctx context.Context, opts *PartListOptions) ([]Part, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	path := "/api/inventory"
	if q := opts.query(); q != "" {
		path += "?" + q
	}
	var parts []Part
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// Get returns a single part by ID.
func (s *InventoryService) Get(ctx context.Context, id string) (*Part, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var part Part
	path := fmt.Sprintf("/api/inventory/%s", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &part); err != nil {
		return nil, err
	}
	return &part, nil
}

// Create adds a part to the inventory.
func (s *InventoryService) Create(ctx context.Context, part *Part) (*Part, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var created Part
	if err := s.client.apiClient.Do(ctx, http.MethodPost, "/api/inventory", part, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AdjustQuantity applies a signed stock adjustment to a part.
func (s *InventoryService) AdjustQuantity(ctx context.Context, id string, delta int, reason string) (*Part, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var updated Part
	path := fmt.Sprintf("/api/inventory/%s/adjust", url.PathEscape(id))
	body := map[string]any{"delta": delta, "reason": reason}
	if err := s.client.apiClient.Do(ctx, http.MethodPatch, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a part from the inventory.
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	if err := s.client.checkClosed(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/inventory/%s", url.PathEscape(id))
	return s.client.apiClient.Do(ctx, http.MethodDelete, path, nil, nil)
}
