package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks requests by method and result.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_requests_total",
			Help: "Total requests by method and result",
		},
		[]string{"method", "result"}, // result: "success", "error", "cache_hit"
	)

	// RequestDuration tracks end-to-end request duration by method,
	// including queueing time.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "End-to-end request duration in seconds by method",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method"},
	)

	// AuthRetries tracks transparent refresh-and-retry attempts after a
	// 401 response.
	AuthRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_auth_retries_total",
			Help: "Total transparent 401 refresh-and-retry attempts by outcome",
		},
		[]string{"outcome"}, // "success", "refresh_failed", "still_unauthorized"
	)
)
