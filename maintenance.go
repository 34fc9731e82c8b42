package fleetdash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// MaintenanceSchedule is a recurring service rule for a vehicle, triggered
// by mileage or elapsed time, whichever comes first.
type MaintenanceSchedule struct {
	ID           string     `json:"id"`
	VehicleID    string     `json:"vehicleId"`
	Service      string     `json:"service"`
	IntervalKM   int        `json:"intervalKm,omitempty"`
	IntervalDays int        `json:"intervalDays,omitempty"`
	LastDoneAt   *time.Time `json:"lastDoneAt,omitempty"`
	LastDoneKM   int64      `json:"lastDoneKm,omitempty"`
	NextDueAt    *time.Time `json:"nextDueAt,omitempty"`
}

// MaintenanceService provides access to the maintenance-schedule endpoints.
type MaintenanceService struct {
	client *Client
}

// ListSchedules returns all schedules for a vehicle.
func (s *MaintenanceService) ListSchedules(ctx context.Context, vehicleID string) ([]MaintenanceSchedule, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/vehicles/%s/maintenance", url.PathEscape(vehicleID))
	var schedules []MaintenanceSchedule
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// CreateSchedule adds a service rule to a vehicle.
func (s *MaintenanceService) CreateSchedule(ctx context.Context, schedule *MaintenanceSchedule) (*MaintenanceSchedule, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var created MaintenanceSchedule
	if err := s.client.apiClient.Do(ctx, http.MethodPost, "/api/maintenance", schedule, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkDone records a completed service against a schedule.
func (s *MaintenanceService) MarkDone(ctx context.Context, scheduleID string, odometerKM int64) error {
	if err := s.client.checkClosed(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/maintenance/%s/done", url.PathEscape(scheduleID))
	body := map[string]any{"odometerKm": odometerKM}
	return s.client.apiClient.Do(ctx, http.MethodPost, path, body, nil)
}

// DeleteSchedule removes a service rule.
func (s *MaintenanceService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	if err := s.client.checkClosed(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/maintenance/%s", url.PathEscape(scheduleID))
	return s.client.apiClient.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Due returns schedules due within the given horizon across the fleet.
func (s *MaintenanceService) Due(ctx context.Context, within time.Duration) ([]MaintenanceSchedule, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/maintenance/due?within_days=%d", int(within.Hours()/24))
	var schedules []MaintenanceSchedule
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}
