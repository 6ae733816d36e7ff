// Package alert decides when a recomputed anomaly set warrants a one-shot
// critical alert.
//
// Anomalies have no identity across recomputations, so the tracker compares
// critical-anomaly counts for the selected product. When several critical
// anomalies appear between two observations only the last one in detector
// order is reported.
package alert

import (
	"sync"

	"github.com/septivank/stockflow-worker/internal/anomaly"
	"github.com/septivank/stockflow-worker/internal/inventory"
)

// DefaultMessagePrefix is prepended to the anomaly message of an alert
const DefaultMessagePrefix = "FALLO DEL SISTEMA: "

// Alert is emitted when a new critical anomaly is observed
type Alert struct {
	Product  string             `json:"product"`
	Message  string             `json:"message"`
	Severity inventory.Severity `json:"severity"`
	Anomaly  inventory.Anomaly  `json:"anomaly"`
}

// Tracker remembers the previous critical count and selected product
type Tracker struct {
	mu              sync.Mutex
	messagePrefix   string
	observed        bool
	previousCount   int
	previousProduct string
}

// NewTracker creates a tracker with no baseline
func NewTracker(messagePrefix string) *Tracker {
	return &Tracker{messagePrefix: messagePrefix}
}

// Observe records the anomalies currently shown for product and returns an
// alert when the critical count grew since the last observation of the same
// product. The first observation and product switches only set the baseline.
func (t *Tracker) Observe(product string, anomalies []inventory.Anomaly) (Alert, bool) {
	critical := anomaly.Critical(anomalies)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.observed || product != t.previousProduct {
		t.observed = true
		t.previousProduct = product
		t.previousCount = len(critical)
		return Alert{}, false
	}

	grew := len(critical) > t.previousCount
	t.previousCount = len(critical)
	if !grew {
		return Alert{}, false
	}

	latest := critical[len(critical)-1]
	return Alert{
		Product:  product,
		Message:  t.messagePrefix + latest.Message,
		Severity: inventory.SeverityCritical,
		Anomaly:  latest,
	}, true
}

// Previous returns the stored baseline
func (t *Tracker) Previous() (product string, criticalCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.previousProduct, t.previousCount
}

// Reset forgets the baseline so the next observation is treated as the first
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observed = false
	t.previousProduct = ""
	t.previousCount = 0
}
