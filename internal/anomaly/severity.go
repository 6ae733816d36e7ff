package anomaly

import (
	"sort"

	"github.com/septivank/stockflow-worker/internal/inventory"
)

// SortBySeverity returns a copy with critical anomalies first, otherwise
// keeping detector order
func SortBySeverity(anomalies []inventory.Anomaly) []inventory.Anomaly {
	sorted := make([]inventory.Anomaly, len(anomalies))
	copy(sorted, anomalies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity == inventory.SeverityCritical && sorted[j].Severity != inventory.SeverityCritical
	})
	return sorted
}

// Critical returns the critical subset, in detector order
func Critical(anomalies []inventory.Anomaly) []inventory.Anomaly {
	var out []inventory.Anomaly
	for _, a := range anomalies {
		if a.Severity == inventory.SeverityCritical {
			out = append(out, a)
		}
	}
	return out
}

// CountBySeverity tallies anomalies per severity
func CountBySeverity(anomalies []inventory.Anomaly) map[inventory.Severity]int {
	counts := map[inventory.Severity]int{
		inventory.SeverityWarning:  0,
		inventory.SeverityCritical: 0,
	}
	for _, a := range anomalies {
		counts[a.Severity]++
	}
	return counts
}
