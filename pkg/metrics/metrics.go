package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the feed reconciliation cycle. Registered on the default
// registry and exposed via /metrics in cmd/server.
var (
	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inmet_active_alerts",
		Help: "Number of alerts currently relevant to the configured municipality",
	})
	AlertTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inmet_alert_transitions_total",
		Help: "Total alert lifecycle transitions dispatched per cycle",
	}, []string{"action"})
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inmet_fetch_failures_total",
		Help: "Total failed fetches of the active alerts feed",
	})
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inmet_cycle_duration_seconds",
		Help:    "Duration of one fetch and reconcile cycle",
		Buckets: prometheus.DefBuckets,
	})
)

// Transition label values.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionRemoved = "removed"
)
