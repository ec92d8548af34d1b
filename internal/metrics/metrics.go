package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Appels amont (player_api.php)
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtc_upstream_requests_total",
			Help: "Total number of upstream player_api requests",
		},
		[]string{"action", "outcome"}, // outcome: ok, unreachable, timeout, rejected, decode, open
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xtc_upstream_request_duration_seconds",
			Help:    "Duration of upstream player_api requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "xtc_upstream_circuit_breaker_state",
			Help: "Upstream circuit breaker state per host (0=closed, 1=half-open, 2=open)",
		},
		[]string{"host"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtc_upstream_circuit_breaker_transitions_total",
			Help: "Total number of upstream circuit breaker state transitions",
		},
		[]string{"host", "from", "to"},
	)

	// Agrégation de la home
	HomeRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtc_home_rebuilds_total",
			Help: "Total number of per-account home snapshot rebuilds",
		},
		[]string{"outcome"}, // ok, failed
	)

	HomeRebuildPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xtc_home_rebuild_pass_duration_seconds",
			Help:    "Duration of a full home rebuild pass over every account",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	ProgressRetired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xtc_progress_retired_total",
			Help: "Total number of stale progress rows deleted by the sweep",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtc_events_dropped_total",
			Help: "Total number of bus events dropped for slow subscribers",
		},
		[]string{"topic"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xtc_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "status"},
	)
)
