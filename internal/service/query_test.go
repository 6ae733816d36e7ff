package service_test

import (
	"context"
	"testing"

	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/septivank/stockflow-worker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore() *memStore {
	store := newMemStore()
	store.records = []inventory.Record{
		{ID: "1", Date: "2023-10-01", ProductName: "Harina", IngressQty: 10},
		{ID: "2", Date: "2023-10-01", ProductName: "Harina", UsageQty: 10},
		{ID: "3", Date: "2023-10-02", ProductName: "Azucar", UsageQty: 5},
		{ID: "4", Date: "2023-10-03", ProductName: "Harina", IngressQty: 30},
		{ID: "5", Date: "2023-10-03", ProductName: "Harina", UsageQty: 30},
	}
	return store
}

func TestQuery_ProductsAndReport(t *testing.T) {
	store := seededStore()
	target := 25.0
	store.settings["Harina"] = inventory.ProductSettings{TargetAverage: &target, TolerancePercent: 10}
	p := newProcessor(store, &fakePublisher{})
	ctx := context.Background()

	products, err := p.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Harina", "Azucar"}, products)

	report, err := p.Report(ctx, repository.RecordFilter{Product: "Harina"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, report.Stats.AverageUsage)
	assert.Equal(t, 4, report.Stats.TotalRecords)
	assert.Equal(t, 25.0, report.Baseline)

	report, err = p.Report(ctx, repository.RecordFilter{Product: "Azucar"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, report.Settings.TolerancePercent)
	assert.Nil(t, report.Settings.TargetAverage)
	assert.Equal(t, 5.0, report.Baseline)
}

func TestQuery_Daily(t *testing.T) {
	p := newProcessor(seededStore(), &fakePublisher{})

	daily, err := p.Daily(context.Background(), repository.RecordFilter{Product: "Harina", Start: "2023-10-02"})

	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, inventory.DailyAggregate{ProductName: "Harina", Date: "2023-10-03", SumIngress: 30, SumUsage: 30}, daily[0])
}

func TestQuery_AnomaliesCriticalFirst(t *testing.T) {
	p := newProcessor(seededStore(), &fakePublisher{})

	anomalies, err := p.Anomalies(context.Background(), repository.RecordFilter{})

	require.NoError(t, err)
	require.NotEmpty(t, anomalies)
	assert.Equal(t, inventory.SeverityCritical, anomalies[0].Severity)
	assert.Equal(t, "2", anomalies[0].RecordID)
	for i, a := range anomalies {
		if a.Severity == inventory.SeverityWarning {
			for _, later := range anomalies[i:] {
				assert.Equal(t, inventory.SeverityWarning, later.Severity)
			}
			break
		}
	}
}
