// Package metrics provides Prometheus metrics for the inventory worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/septivank/stockflow-worker/internal/inventory"
)

const namespace = "stockflow"

var (
	// Anomalies is the current anomaly count per product and severity
	Anomalies = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomalies",
			Help:      "Current number of detected anomalies by product and severity.",
		},
		[]string{"product", "severity"},
	)

	// AlertsTotal counts alerts emitted for new critical anomalies
	AlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Total number of critical anomaly alerts published.",
		},
	)

	// MessagesTotal counts consumed events by type and outcome
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of consumed inventory events by type and status.",
		},
		[]string{"type", "status"},
	)

	// RecomputeDurationSeconds is the latency of a full statistics and anomaly recomputation
	RecomputeDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a full statistics and anomaly recomputation in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
	)
)

// SetAnomalyCounts replaces the anomaly gauges with counts per product
func SetAnomalyCounts(counts map[string]map[inventory.Severity]int) {
	Anomalies.Reset()
	for product, bySeverity := range counts {
		for severity, n := range bySeverity {
			Anomalies.WithLabelValues(product, string(severity)).Set(float64(n))
		}
	}
}
