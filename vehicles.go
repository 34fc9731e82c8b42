package fleetdash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Vehicle is one tracked fleet vehicle.
type Vehicle struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	VIN          string    `json:"vin"`
	LicensePlate string    `json:"licensePlate,omitempty"`
	Status       string    `json:"status"`
	Odometer     int64     `json:"odometer"`
	FuelLevel    float64   `json:"fuelLevel,omitempty"`
	AssignedTo   string    `json:"assignedTo,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VehiclePosition is a GPS fix for a vehicle.
type VehiclePosition struct {
	VehicleID  string    `json:"vehicleId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKPH   float64   `json:"speedKph"`
	Heading    float64   `json:"heading"`
	RecordedAt time.Time `json:"recordedAt"`
}

// VehicleListOptions filters a vehicle listing. Zero-valued fields are omitted.
type VehicleListOptions struct {
	Status   string
	Fleet    string
	Assigned *bool
	Page     int
	PerPage  int
}

func (o *VehicleListOptions) query() string {
	if o == nil {
		return ""
	}
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Fleet != "" {
		q.Set("fleet", o.Fleet)
	}
	if o.Assigned != nil {
		q.Set("assigned", strconv.FormatBool(*o.Assigned))
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	return q.Encode()
}

// VehiclesService provides access to the vehicle endpoints.
type VehiclesService struct {
	client *Client
}

// List returns vehicles matching the given filters.
func (s *VehiclesService) List(ctx context.Context, opts *VehicleListOptions) ([]Vehicle, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	path := "/api/vehicles"
	if q := opts.query(); q != "" {
		path += "?" + q
	}
	var vehicles []Vehicle
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Get returns a single vehicle by ID.
func (s *VehiclesService) Get(ctx context.Context, id string) (*Vehicle, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var vehicle Vehicle
	path := fmt.Sprintf("/api/vehicles/%s", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// Create registers a new vehicle.
func (s *VehiclesService) Create(ctx context.Context, vehicle *Vehicle) (*Vehicle, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var created Vehicle
	if err := s.client.apiClient.Do(ctx, http.MethodPost, "/api/vehicles", vehicle, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a vehicle's mutable fields.
func (s *VehiclesService) Update(ctx context.Context, id string, vehicle *Vehicle) (*Vehicle, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var updated Vehicle
	path := fmt.Sprintf("/api/vehicles/%s", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodPut, path, vehicle, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a vehicle from the fleet.
func (s *VehiclesService) Delete(ctx context.Context, id string) error {
	if err := s.client.checkClosed(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/vehicles/%s", url.PathEscape(id))
	return s.client.apiClient.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Positions returns the latest GPS fixes for a vehicle.
func (s *VehiclesService) Positions(ctx context.Context, id string) ([]VehiclePosition, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var positions []VehiclePosition
	path := fmt.Sprintf("/api/vehicles/%s/positions", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}
