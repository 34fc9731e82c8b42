package fleetdash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fleetdash/client-go/internal/api"
)

// WorkOrder is a maintenance or repair job for a vehicle.
type WorkOrder struct {
	ID          string     `json:"id"`
	VehicleID   string     `json:"vehicleId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	CostCents   int64      `json:"costCents,omitempty"`
	OpenedAt    time.Time  `json:"openedAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}

// WorkOrderAttachment is a document attached to a work order (invoice,
// inspection photo, scanned report).
type WorkOrderAttachment struct {
	ID          string `json:"id"`
	WorkOrderID string `json:"workOrderId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// WorkOrderListOptions filters a work-order listing.
type WorkOrderListOptions struct {
	VehicleID string
	Status    string
	Priority  string
	Page      int
	PerPage   int
}

func (o *WorkOrderListOptions) query() string {
	if o == nil {
		return ""
	}
	q := url.Values{}
	if o.VehicleID != "" {
		q.Set("vehicle_id", o.VehicleID)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Priority != "" {
		q.Set("priority", o.Priority)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	return q.Encode()
}

// WorkOrdersService provides access to the work-order endpoints.
type WorkOrdersService struct {
	client *Client
}

// List returns work orders matching the given filters.
func (s *WorkOrdersService) List(ctx context.Context, opts *WorkOrderListOptions) ([]WorkOrder, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	path := "/api/work-orders"
	if q := opts.query(); q != "" {
		path += "?" + q
	}
	var orders []WorkOrder
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns a single work order by ID.
func (s *WorkOrdersService) Get(ctx context.Context, id string) (*WorkOrder, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var order WorkOrder
	path := fmt.Sprintf("/api/work-orders/%s", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Create opens a new work order.
func (s *WorkOrdersService) Create(ctx context.Context, order *WorkOrder) (*WorkOrder, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var created WorkOrder
	if err := s.client.apiClient.Do(ctx, http.MethodPost, "/api/work-orders", order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a work order's mutable fields.
func (s *WorkOrdersService) Update(ctx context.Context, id string, order *WorkOrder) (*WorkOrder, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var updated WorkOrder
	path := fmt.Sprintf("/api/work-orders/%s", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodPut, path, order, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Close transitions a work order to the closed state.
func (s *WorkOrdersService) Close(ctx context.Context, id string) error {
	if err := s.client.checkClosed(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/work-orders/%s/close", url.PathEscape(id))
	return s.client.apiClient.Do(ctx, http.MethodPost, path, nil, nil)
}

// ImportAttachment uploads attachment content for a work order. Uploads use
// the longer timeout window configured via WithUploadTimeout.
func (s *WorkOrdersService) ImportAttachment(ctx context.Context, id string, attachment *WorkOrderAttachment, contentBase64 string) (*WorkOrderAttachment, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"fileName":    attachment.FileName,
		"contentType": attachment.ContentType,
		"content":     contentBase64,
	}
	var created WorkOrderAttachment
	err := s.client.apiClient.DoRequest(ctx, api.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/api/work-orders/%s/attachments", url.PathEscape(id)),
		Body:    body,
		Timeout: s.client.uploadTimeout,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
