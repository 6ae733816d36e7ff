package service

import (
	"errors"
	"strings"
	"time"

	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/septivank/stockflow-worker/internal/validator"
)

// Event types consumed from the inventory exchange
const (
	EventRecordCreated   = "record.created"
	EventRecordDeleted   = "record.deleted"
	EventSettingsUpdated = "settings.updated"
	EventViewSelected    = "view.selected"
	EventProductRenamed  = "product.renamed"
)

const routingKeyPrefix = "inventory."

// ErrUnknownEventType is returned for events this worker does not handle
var ErrUnknownEventType = errors.New("unknown event type")

// Event is the envelope of every message on the inventory exchange
type Event struct {
	RequestID   string                     `json:"request_id"`
	Type        string                     `json:"type"`
	OccurredAt  time.Time                  `json:"occurred_at"`
	Record      *validator.RecordInput     `json:"record,omitempty"`
	RecordID    string                     `json:"record_id,omitempty"`
	ProductName string                     `json:"product_name,omitempty"`
	NewName     string                     `json:"new_name,omitempty"`
	Settings    *inventory.ProductSettings `json:"settings,omitempty"`
	View        *View                      `json:"view,omitempty"`
}

// resolveType prefers the explicit type and falls back to the routing key
// ("inventory.record.created" -> "record.created")
func (e Event) resolveType(routingKey string) string {
	if e.Type != "" {
		return e.Type
	}
	return strings.TrimPrefix(routingKey, routingKeyPrefix)
}

// View is the product and optional inclusive date range operators are
// looking at. Alerts are tracked for this view only.
type View struct {
	Product string `json:"product"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// AlertEvent is published when a new critical anomaly appears in the view
type AlertEvent struct {
	Product    string            `json:"product"`
	Message    string            `json:"message"`
	Severity   string            `json:"severity"`
	Anomaly    inventory.Anomaly `json:"anomaly"`
	DetectedAt time.Time         `json:"detected_at"`
}

// Snapshot is the result of one recomputation, published after every change
type Snapshot struct {
	View                 View                        `json:"view"`
	Stats                inventory.ProductStatistics `json:"stats"`
	Settings             inventory.ProductSettings   `json:"settings"`
	Baseline             float64                     `json:"baseline"`
	Anomalies            []inventory.Anomaly         `json:"anomalies"`
	WarningCount         int                         `json:"warning_count"`
	CriticalCount        int                         `json:"critical_count"`
	CriticalFailureCount int                         `json:"critical_failure_count"`
	ComputedAt           time.Time                   `json:"computed_at"`
}
