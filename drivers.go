package fleetdash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Driver is one fleet driver.
type Driver struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	LicenseNumber string    `json:"licenseNumber"`
	LicenseExpiry time.Time `json:"licenseExpiry"`
	Status        string    `json:"status"`
	VehicleID     string    `json:"vehicleId,omitempty"`
}

// DriverListOptions filters a driver listing.
type DriverListOptions struct {
	Status  string
	Page    int
	PerPage int
}

func (o *DriverListOptions) query() string {
	if o == nil {
		return ""
	}
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	return q.Encode()
}

// DriversService provides access to the driver endpoints.
type DriversService struct {
	client *Client
}

// List returns drivers matching the given filters.
func (s *DriversService) List(ctx context.Context, opts *DriverListOptions) ([]Driver, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	path := "/api/drivers"
	if q := opts.query(); q != "" {
		path += "?" + q
	}
	var drivers []Driver
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// Get returns a single driver by ID.
func (s *DriversService) Get(ctx context.Context, id string) (*Driver, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var driver Driver
	path := fmt.Sprintf("/api/drivers/%s", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// Create registers a new driver.
func (s *DriversService) Create(ctx context.Context, driver *Driver) (*Driver, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var created Driver
	if err := s.client.apiClient.Do(ctx, http.MethodPost, "/api/drivers", driver, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a driver's mutable fields.
func (s *DriversService) Update(ctx context.Context, id string, driver *Driver) (*Driver, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var updated Driver
	path := fmt.Sprintf("/api/drivers/%s", url.PathEscape(id))
	if err := s.client.apiClient.Do(ctx, http.MethodPut, path, driver, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a driver.
func (s *DriversService) Delete(ctx context.Context, id string) error {
	if err := s.client.checkClosed(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/drivers/%s", url.PathEscape(id))
	return s.client.apiClient.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Assign pairs a driver with a vehicle.
func (s *DriversService) Assign(ctx context.Context, driverID, vehicleID string) error {
	if err := s.client.checkClosed(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/drivers/%s/assignment", url.PathEscape(driverID))
	body := map[string]string{"vehicleId": vehicleID}
	return s.client.apiClient.Do(ctx, http.MethodPut, path, body, nil)
}
