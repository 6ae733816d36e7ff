package inventory

import "math"

// CalculateStats computes per-day averages and the population standard
// deviation of daily usage for one product. Same-day transactions are summed
// before averaging so a day counts once regardless of how many records it has.
func CalculateStats(records []Record, productName string) ProductStatistics {
	productRecords := FilterByProduct(records, productName)
	if len(productRecords) == 0 {
		return ProductStatistics{ProductName: productName}
	}

	days := AggregateByDate(productRecords)
	uniqueDays := float64(len(days))

	totalIngress := 0.0
	totalUsage := 0.0
	dailyUsages := make([]float64, 0, len(days))
	for _, day := range days {
		usage := day.Usage()
		totalIngress += day.Ingress()
		totalUsage += usage
		dailyUsages = append(dailyUsages, usage)
	}

	avgIngress := totalIngress / uniqueDays
	avgUsage := totalUsage / uniqueDays

	variance := 0.0
	for _, usage := range dailyUsages {
		variance += math.Pow(usage-avgUsage, 2)
	}
	variance /= uniqueDays

	return ProductStatistics{
		ProductName:       productName,
		AverageIngress:    avgIngress,
		AverageUsage:      avgUsage,
		TotalRecords:      len(productRecords),
		StandardDeviation: math.Sqrt(variance),
	}
}
