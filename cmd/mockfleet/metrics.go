package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal tracks API requests by method, route and status.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockfleet_requests_total",
			Help: "Total number of API requests served",
		},
		[]string{"method", "route", "status"},
	)

	// csrfIssuedTotal tracks anti-forgery tokens issued.
	csrfIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mockfleet_csrf_tokens_issued_total",
			Help: "Total number of CSRF tokens issued",
		},
	)

	// csrfRejectedTotal tracks mutating requests rejected for a bad token.
	csrfRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mockfleet_csrf_rejections_total",
			Help: "Total number of requests rejected with EBADCSRFTOKEN",
		},
	)

	// batchSizes tracks batch envelope sizes.
	batchSizes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mockfleet_batch_size",
			Help:    "Number of sub-requests per batch envelope",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	// requestLatency tracks request handling latency.
	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mockfleet_request_latency_seconds",
			Help:    "Request handling latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
