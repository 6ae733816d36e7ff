package inventory_test

import (
	"testing"

	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, date, product string, ingress, usage float64) inventory.Record {
	return inventory.Record{ID: id, Date: date, ProductName: product, IngressQty: ingress, UsageQty: usage}
}

func TestAggregateByDate_GroupsAndOrders(t *testing.T) {
	records := []inventory.Record{
		rec("3", "2023-10-02", "A", 0, 60),
		rec("1", "2023-10-01", "A", 100, 0),
		rec("2", "2023-10-01", "A", 0, 100),
	}

	groups := inventory.AggregateByDate(records)

	require.Len(t, groups, 2)
	assert.Equal(t, "2023-10-01", groups[0].Date)
	assert.Equal(t, "2023-10-02", groups[1].Date)
	assert.Equal(t, 100.0, groups[0].Ingress())
	assert.Equal(t, 100.0, groups[0].Usage())
	assert.Equal(t, "2", groups[0].Last().ID)
	assert.Equal(t, 60.0, groups[1].Usage())
}

func TestAggregateByDate_Empty(t *testing.T) {
	assert.Empty(t, inventory.AggregateByDate(nil))
}

func TestAggregateDaily_PerProduct(t *testing.T) {
	records := []inventory.Record{
		rec("1", "2023-10-02", "B", 5, 0),
		rec("2", "2023-10-01", "A", 10, 0),
		rec("3", "2023-10-01", "A", 0, 7),
		rec("4", "2023-10-01", "B", 0, 3),
	}

	daily := inventory.AggregateDaily(records)

	require.Len(t, daily, 3)
	assert.Equal(t, inventory.DailyAggregate{ProductName: "B", Date: "2023-10-01", SumUsage: 3}, daily[0])
	assert.Equal(t, inventory.DailyAggregate{ProductName: "B", Date: "2023-10-02", SumIngress: 5}, daily[1])
	assert.Equal(t, inventory.DailyAggregate{ProductName: "A", Date: "2023-10-01", SumIngress: 10, SumUsage: 7}, daily[2])
}

func TestFilterByDateRange(t *testing.T) {
	records := []inventory.Record{
		rec("1", "2023-10-01", "A", 1, 0),
		rec("2", "2023-10-02", "A", 1, 0),
		rec("3", "2023-10-03", "A", 1, 0),
	}

	assert.Len(t, inventory.FilterByDateRange(records, "", ""), 3)
	assert.Len(t, inventory.FilterByDateRange(records, "2023-10-02", ""), 2)
	assert.Len(t, inventory.FilterByDateRange(records, "", "2023-10-01"), 1)
	assert.Len(t, inventory.FilterByDateRange(records, "2023-10-02", "2023-10-02"), 1)
}

func TestProductSettings_HasTarget(t *testing.T) {
	positive, zero := 50.0, 0.0

	assert.True(t, inventory.ProductSettings{TargetAverage: &positive}.HasTarget())
	assert.False(t, inventory.ProductSettings{TargetAverage: &zero}.HasTarget())
	assert.False(t, inventory.ProductSettings{}.HasTarget())
}

func TestCalculateStats_SingleDayBalanced(t *testing.T) {
	records := []inventory.Record{
		rec("1", "2023-10-01", "A", 100, 0),
		rec("2", "2023-10-01", "A", 0, 100),
	}

	stats := inventory.CalculateStats(records, "A")

	assert.Equal(t, inventory.ProductStatistics{
		ProductName:       "A",
		AverageIngress:    100,
		AverageUsage:      100,
		TotalRecords:      2,
		StandardDeviation: 0,
	}, stats)
}

func TestCalculateStats_NoRecords(t *testing.T) {
	records := []inventory.Record{rec("1", "2023-10-01", "B", 10, 10)}

	stats := inventory.CalculateStats(records, "A")

	assert.Equal(t, inventory.ProductStatistics{ProductName: "A"}, stats)
}

func TestCalculateStats_DailyAveragesAndDeviation(t *testing.T) {
	// day 1 usage 40+60=100, day 2 usage 50: mean 75, population sd 25
	records := []inventory.Record{
		rec("1", "2023-10-01", "A", 150, 0),
		rec("2", "2023-10-01", "A", 0, 40),
		rec("3", "2023-10-01", "A", 0, 60),
		rec("4", "2023-10-02", "A", 0, 50),
		rec("5", "2023-10-02", "B", 0, 999),
	}

	stats := inventory.CalculateStats(records, "A")

	assert.Equal(t, 4, stats.TotalRecords)
	assert.InDelta(t, 75.0, stats.AverageIngress, 1e-9)
	assert.InDelta(t, 75.0, stats.AverageUsage, 1e-9)
	assert.InDelta(t, 25.0, stats.StandardDeviation, 1e-9)
}

func TestCalculateStats_Idempotent(t *testing.T) {
	records := []inventory.Record{
		rec("1", "2023-10-01", "A", 10, 3),
		rec("2", "2023-10-03", "A", 0, 9),
	}

	assert.Equal(t, inventory.CalculateStats(records, "A"), inventory.CalculateStats(records, "A"))
}
