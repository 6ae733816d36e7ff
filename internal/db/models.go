package db

import (
	"time"

	"github.com/septivank/stockflow-worker/internal/inventory"
)

// RecordRow represents an inventory record in the database
type RecordRow struct {
	Seq         int64
	ID          string
	RecordDate  string
	RecordedAt  time.Time
	ProductName string
	IngressQty  float64
	UsageQty    float64
	CreatedAt   time.Time
}

// ToRecord converts the row to the domain record
func (r RecordRow) ToRecord() inventory.Record {
	return inventory.Record{
		ID:          r.ID,
		Date:        r.RecordDate,
		Timestamp:   r.RecordedAt,
		ProductName: r.ProductName,
		IngressQty:  r.IngressQty,
		UsageQty:    r.UsageQty,
	}
}

// SettingsRow represents product settings in the database
type SettingsRow struct {
	ProductName      string
	TargetAverage    *float64
	TolerancePercent float64
	UpdatedAt        time.Time
}

// ToSettings converts the row to domain settings
func (s SettingsRow) ToSettings() inventory.ProductSettings {
	return inventory.ProductSettings{
		TargetAverage:    s.TargetAverage,
		TolerancePercent: s.TolerancePercent,
	}
}
