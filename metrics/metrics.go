// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicbridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicbridge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musicbridge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Automation metrics
var (
	AutomationCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicbridge_automation_calls_total",
			Help: "Total number of calls into the OS automation layer",
		},
		[]string{"operation", "status"}, // status: ok, validation, launch, automation
	)

	AutomationCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicbridge_automation_call_duration_seconds",
			Help:    "Duration of OS automation calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		},
		[]string{"operation"},
	)
)

// Resolver metrics
var (
	ResolverOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicbridge_resolver_outcomes_total",
			Help: "Track resolutions by outcome",
		},
		[]string{"outcome"}, // exact, fuzzy, not_found, error
	)
)
