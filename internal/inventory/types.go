package inventory

import "time"

// DateLayout is the calendar-date format used for Record.Date
const DateLayout = "2006-01-02"

// DefaultTolerancePercent is applied to products without explicit settings
const DefaultTolerancePercent = 20.0

// Record is a single ingress or usage transaction for a product
type Record struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
	ProductName string    `json:"product_name"`
	IngressQty  float64   `json:"ingress_qty"`
	UsageQty    float64   `json:"usage_qty"`
}

// ProductSettings configures the anomaly baseline for one product.
// A nil or non-positive TargetAverage means the computed daily usage mean is used.
type ProductSettings struct {
	TargetAverage    *float64 `json:"target_average"`
	TolerancePercent float64  `json:"tolerance_percent"`
}

// HasTarget reports whether a manual baseline override is in effect
func (s ProductSettings) HasTarget() bool {
	return s.TargetAverage != nil && *s.TargetAverage > 0
}

// SettingsMap maps product name to its settings
type SettingsMap map[string]ProductSettings

// ProductStatistics summarizes a product's records at day granularity
type ProductStatistics struct {
	ProductName       string  `json:"product_name"`
	AverageIngress    float64 `json:"average_ingress"`
	AverageUsage      float64 `json:"average_usage"`
	TotalRecords      int     `json:"total_records"`
	StandardDeviation float64 `json:"standard_deviation"`
}

// AnomalyType classifies which detection rule produced an anomaly
type AnomalyType string

const (
	AnomalyMismatch      AnomalyType = "MISMATCH_INGRESS_USAGE"
	AnomalyDeviationHigh AnomalyType = "DEVIATION_HIGH"
	AnomalyDeviationLow  AnomalyType = "DEVIATION_LOW"
)

// Severity of an anomaly
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Anomaly is a classified finding for one product-day. Anomalies are
// recomputed on every call and carry no identity across calls.
type Anomaly struct {
	RecordID string      `json:"record_id"`
	Type     AnomalyType `json:"type"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
	Details  string      `json:"details"`
}
