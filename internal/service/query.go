package service

import (
	"context"
	"fmt"

	"github.com/septivank/stockflow-worker/internal/anomaly"
	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/septivank/stockflow-worker/internal/repository"
)

// ProductReport is the statistics view of one product
type ProductReport struct {
	Stats    inventory.ProductStatistics `json:"stats"`
	Settings inventory.ProductSettings   `json:"settings"`
	Baseline float64                     `json:"baseline"`
}

// Products lists known products in first-seen order
func (s *ProcessorService) Products(ctx context.Context) ([]string, error) {
	records, err := s.store.ListRecords(ctx, repository.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return inventory.Products(records), nil
}

// Report computes the statistics of a product within an optional date range
func (s *ProcessorService) Report(ctx context.Context, filter repository.RecordFilter) (ProductReport, error) {
	records, err := s.store.ListRecords(ctx, filter)
	if err != nil {
		return ProductReport{}, fmt.Errorf("failed to load records: %w", err)
	}
	settings, err := s.store.GetSettingsMap(ctx)
	if err != nil {
		return ProductReport{}, fmt.Errorf("failed to load settings: %w", err)
	}

	stats := inventory.CalculateStats(records, filter.Product)
	productSettings := s.detector.SettingsFor(settings, filter.Product)

	return ProductReport{
		Stats:    stats,
		Settings: productSettings,
		Baseline: anomaly.Baseline(stats, productSettings),
	}, nil
}

// Daily returns per product-day totals matching filter
func (s *ProcessorService) Daily(ctx context.Context, filter repository.RecordFilter) ([]inventory.DailyAggregate, error) {
	records, err := s.store.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return inventory.AggregateDaily(records), nil
}

// Anomalies detects anomalies for records matching filter, critical first.
// An empty product covers every product.
func (s *ProcessorService) Anomalies(ctx context.Context, filter repository.RecordFilter) ([]inventory.Anomaly, error) {
	records, err := s.store.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	settings, err := s.store.GetSettingsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return anomaly.SortBySeverity(s.detector.Detect(records, settings)), nil
}

// Settings returns the configured product settings
func (s *ProcessorService) Settings(ctx context.Context) (inventory.SettingsMap, error) {
	settings, err := s.store.GetSettingsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}
