package fleetdash

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// FleetSummary aggregates fleet-wide status counts for the dashboard.
type FleetSummary struct {
	TotalVehicles    int   `json:"totalVehicles"`
	ActiveVehicles   int   `json:"activeVehicles"`
	InShopVehicles   int   `json:"inShopVehicles"`
	OpenWorkOrders   int   `json:"openWorkOrders"`
	OverdueServices  int   `json:"overdueServices"`
	TotalDistanceKM  int64 `json:"totalDistanceKm"`
	FuelCostCents    int64 `json:"fuelCostCents"`
	ServiceCostCents int64 `json:"serviceCostCents"`
}

// UtilizationPoint is one bucket in a utilization time series.
type UtilizationPoint struct {
	Date       time.Time `json:"date"`
	ActiveHrs  float64   `json:"activeHours"`
	IdleHrs    float64   `json:"idleHours"`
	DistanceKM float64   `json:"distanceKm"`
}

// AnalyticsService provides access to the reporting endpoints.
type AnalyticsService struct {
	client *Client
}

// Summary returns fleet-wide aggregates for the dashboard landing view.
func (s *AnalyticsService) Summary(ctx context.Context) (*FleetSummary, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	var summary FleetSummary
	if err := s.client.apiClient.Do(ctx, http.MethodGet, "/api/analytics/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Utilization returns per-day utilization buckets for a date range,
// optionally scoped to one vehicle.
func (s *AnalyticsService) Utilization(ctx context.Context, vehicleID string, from, to time.Time) ([]UtilizationPoint, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	if vehicleID != "" {
		q.Set("vehicle_id", vehicleID)
	}
	var points []UtilizationPoint
	path := "/api/analytics/utilization?" + q.Encode()
	if err := s.client.apiClient.Do(ctx, http.MethodGet, path, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}
