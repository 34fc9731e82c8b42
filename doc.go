// Package fleetdash provides a Go client for the FleetDash fleet-management
// API: vehicle tracking, drivers, work orders, inventory, and analytics.
//
// All calls go through a single resilient gateway that owns CSRF token
// lifecycle, per-request timeouts, retry with exponential backoff, session
// invalidation on 401, and multi-request batching. Session authentication
// travels via same-origin cookies; the client never stores a bearer token.
//
// Basic usage:
//
//	client, err := fleetdash.New("https://fleet.example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	vehicles, err := client.Vehicles.List(ctx, &fleetdash.VehicleListOptions{
//	    Status: "active",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, v := range vehicles {
//	    fmt.Println(v.Name, v.Status)
//	}
//
// Errors are typed; branch with errors.Is and errors.As:
//
//	if errors.Is(err, fleetdash.ErrSessionExpired) {
//	    // redirect to login
//	}
//
//	var httpErr *fleetdash.HTTPError
//	if errors.As(err, &httpErr) && httpErr.StatusCode == 422 {
//	    // render validation errors from httpErr.Body
//	}
package fleetdash
