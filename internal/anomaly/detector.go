package anomaly

import (
	"fmt"
	"math"
	"strconv"

	"github.com/septivank/stockflow-worker/internal/inventory"
)

// Detector runs the balance and deviation rules over inventory records
type Detector struct {
	defaultTolerancePercent float64
}

// NewDetector creates a detector. defaultTolerancePercent applies to products
// missing from the settings map; non-positive values fall back to 20%.
func NewDetector(defaultTolerancePercent float64) *Detector {
	if defaultTolerancePercent <= 0 {
		defaultTolerancePercent = inventory.DefaultTolerancePercent
	}
	return &Detector{defaultTolerancePercent: defaultTolerancePercent}
}

// Detect returns the anomalies of every product present in records, products
// in first-seen order and days ascending within a product
func (d *Detector) Detect(records []inventory.Record, settings inventory.SettingsMap) []inventory.Anomaly {
	anomalies := []inventory.Anomaly{}

	for _, product := range inventory.Products(records) {
		productRecords := inventory.FilterByProduct(records, product)
		anomalies = append(anomalies, d.detectProduct(product, productRecords, d.SettingsFor(settings, product))...)
	}

	return anomalies
}

// SettingsFor resolves a product's settings, constructing the defaults
// (no target, detector tolerance) when the product is not configured
func (d *Detector) SettingsFor(settings inventory.SettingsMap, product string) inventory.ProductSettings {
	if s, ok := settings[product]; ok {
		return s
	}
	return inventory.ProductSettings{TargetAverage: nil, TolerancePercent: d.defaultTolerancePercent}
}

// Baseline is the manual target when set, otherwise the mean daily usage
func Baseline(stats inventory.ProductStatistics, settings inventory.ProductSettings) float64 {
	if settings.HasTarget() {
		return *settings.TargetAverage
	}
	return stats.AverageUsage
}

func (d *Detector) detectProduct(product string, records []inventory.Record, settings inventory.ProductSettings) []inventory.Anomaly {
	var anomalies []inventory.Anomaly

	stats := inventory.CalculateStats(records, product)

	baselineUsage := Baseline(stats, settings)
	toleranceDecimal := settings.TolerancePercent / 100

	for _, day := range inventory.AggregateByDate(records) {
		dayIngress := day.Ingress()
		dayUsage := day.Usage()
		reference := day.Last()

		if dayIngress != dayUsage {
			anomalies = append(anomalies, inventory.Anomaly{
				RecordID: reference.ID,
				Type:     inventory.AnomalyMismatch,
				Severity: inventory.SeverityCritical,
				Message:  fmt.Sprintf("Discrepancia de Balance (%s)", day.Date),
				Details: fmt.Sprintf("Producto: %s. Ingreso: %s | Uso: %s. Diferencia: %s",
					product, formatQty(dayIngress), formatQty(dayUsage), formatQty(dayIngress-dayUsage)),
			})
		}

		if baselineUsage <= 0 || dayUsage <= 0 {
			continue
		}

		diff := dayUsage - baselineUsage
		percentageDiff := math.Abs(diff) / baselineUsage
		if percentageDiff <= toleranceDecimal {
			continue
		}

		a := inventory.Anomaly{
			RecordID: reference.ID,
			Type:     inventory.AnomalyDeviationLow,
			Severity: inventory.SeverityWarning,
			Message:  "Consumo Bajo",
			Details: fmt.Sprintf("El uso de %s (%s) se desvía un %.0f%% del promedio esperado (%.0f). Tolerancia: %s%%",
				product, formatQty(dayUsage), math.Round(percentageDiff*100), math.Round(baselineUsage),
				formatQty(settings.TolerancePercent)),
		}
		if diff > 0 {
			a.Type = inventory.AnomalyDeviationHigh
			a.Message = "Pico de Consumo"
		}
		if percentageDiff > toleranceDecimal*2 {
			a.Severity = inventory.SeverityCritical
		}
		anomalies = append(anomalies, a)
	}

	return anomalies
}

// formatQty prints a quantity with the shortest exact representation
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
