// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_gateway_requests_total",
			Help: "Total number of remote gateway calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_gateway_request_duration_seconds",
			Help:    "Duration of remote gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DraftOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_draft_operations_total",
			Help: "Total number of draft store operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_submissions_total",
			Help: "Total number of lead submissions by outcome",
		},
		[]string{"outcome", "error_code"},
	)

	AddressSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_address_searches_total",
			Help: "Total number of address searches by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lead_active_sessions",
			Help: "Number of live visitor sessions",
		},
	)
)

// Outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeSkipped    = "skipped"
	OutcomeSuperseded = "superseded"
)
