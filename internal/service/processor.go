package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/septivank/stockflow-worker/internal/alert"
	"github.com/septivank/stockflow-worker/internal/anomaly"
	"github.com/septivank/stockflow-worker/internal/config"
	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/septivank/stockflow-worker/internal/logging"
	"github.com/septivank/stockflow-worker/internal/metrics"
	"github.com/septivank/stockflow-worker/internal/mq"
	"github.com/septivank/stockflow-worker/internal/repository"
	"github.com/septivank/stockflow-worker/internal/validator"
	"go.uber.org/zap"
)

// Store is the persistence the processor depends on
type Store interface {
	InsertRecord(ctx context.Context, record inventory.Record) (inventory.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, filter repository.RecordFilter) ([]inventory.Record, error)
	GetSettingsMap(ctx context.Context) (inventory.SettingsMap, error)
	UpsertSettings(ctx context.Context, product string, settings inventory.ProductSettings) error
	RenameProduct(ctx context.Context, oldName, newName string) error
}

// EventPublisher publishes outgoing events
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// ProcessorService applies inventory events and recomputes statistics and
// anomalies from scratch after each one
type ProcessorService struct {
	store     Store
	publisher EventPublisher
	detector  *anomaly.Detector
	validator *validator.Validator
	tracker   *alert.Tracker
	cfg       *config.Config
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.RWMutex
	view View
}

// NewProcessorService creates a new processor service
func NewProcessorService(
	store Store,
	publisher EventPublisher,
	detector *anomaly.Detector,
	validator *validator.Validator,
	tracker *alert.Tracker,
	cfg *config.Config,
	logger *zap.Logger,
) *ProcessorService {
	return &ProcessorService{
		store:     store,
		publisher: publisher,
		detector:  detector,
		validator: validator,
		tracker:   tracker,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessMessage applies one inventory event and recomputes
func (s *ProcessorService) ProcessMessage(ctx context.Context, routingKey string, body []byte) error {
	var msg Event
	if err := json.Unmarshal(body, &msg); err != nil {
		metrics.MessagesTotal.WithLabelValues("unknown", "malformed").Inc()
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	eventType := msg.resolveType(routingKey)
	reqLogger := logging.WithRequestID(s.logger, msg.RequestID).With(zap.String("event_type", eventType))
	reqLogger.Info("processing message")

	if err := s.apply(ctx, eventType, msg, reqLogger); err != nil {
		metrics.MessagesTotal.WithLabelValues(eventType, "failed").Inc()
		return err
	}

	if _, err := s.Recompute(ctx, reqLogger); err != nil {
		metrics.MessagesTotal.WithLabelValues(eventType, "failed").Inc()
		return err
	}

	metrics.MessagesTotal.WithLabelValues(eventType, "ok").Inc()
	reqLogger.Info("message processed successfully")
	return nil
}

func (s *ProcessorService) apply(ctx context.Context, eventType string, msg Event, logger *zap.Logger) error {
	switch eventType {
	case EventRecordCreated:
		if msg.Record == nil {
			return fmt.Errorf("%s: missing record", eventType)
		}
		receivedAt := msg.OccurredAt
		if receivedAt.IsZero() {
			receivedAt = s.now()
		}
		record, result := s.validator.ValidateRecord(*msg.Record, receivedAt)
		if !result.IsValid {
			logger.Warn("record rejected", zap.String("reason", result.Reason))
			return fmt.Errorf("invalid record: %s", result.Reason)
		}
		stored, err := s.store.InsertRecord(ctx, record)
		if err != nil {
			return mq.Retryable(fmt.Errorf("failed to store record: %w", err))
		}
		logger.Debug("record stored",
			zap.String("record_id", stored.ID),
			zap.String("product", stored.ProductName),
			zap.String("date", stored.Date),
		)

	case EventRecordDeleted:
		if msg.RecordID == "" {
			return fmt.Errorf("%s: missing record_id", eventType)
		}
		err := s.store.DeleteRecord(ctx, msg.RecordID)
		if errors.Is(err, repository.ErrRecordNotFound) {
			logger.Warn("record already deleted", zap.String("record_id", msg.RecordID))
		} else if err != nil {
			return mq.Retryable(fmt.Errorf("failed to delete record: %w", err))
		}

	case EventSettingsUpdated:
		if msg.Settings == nil {
			return fmt.Errorf("%s: missing settings", eventType)
		}
		if result := s.validator.ValidateSettings(msg.ProductName, *msg.Settings); !result.IsValid {
			return fmt.Errorf("invalid settings: %s", result.Reason)
		}
		if err := s.store.UpsertSettings(ctx, msg.ProductName, *msg.Settings); err != nil {
			return mq.Retryable(fmt.Errorf("failed to store settings: %w", err))
		}
		logging.WithProduct(logger, msg.ProductName).Info("settings updated",
			zap.Float64("tolerance_percent", msg.Settings.TolerancePercent),
			zap.Bool("manual_target", msg.Settings.HasTarget()),
		)

	case EventViewSelected:
		if msg.View == nil {
			return fmt.Errorf("%s: missing view", eventType)
		}
		s.SelectView(*msg.View)
		logging.WithProduct(logger, msg.View.Product).Info("view selected",
			zap.String("start", msg.View.Start),
			zap.String("end", msg.View.End),
		)

	case EventProductRenamed:
		oldName, newName := strings.TrimSpace(msg.ProductName), strings.TrimSpace(msg.NewName)
		if oldName == "" || newName == "" {
			return fmt.Errorf("%s: product_name and new_name are required", eventType)
		}
		if oldName == newName {
			return fmt.Errorf("%s: new name equals current name %q", eventType, oldName)
		}
		err := s.store.RenameProduct(ctx, oldName, newName)
		switch {
		case errors.Is(err, repository.ErrProductExists):
			logger.Warn("rename rejected", zap.String("product", oldName), zap.String("new_name", newName))
			return fmt.Errorf("rename rejected: %w", err)
		case errors.Is(err, repository.ErrProductNotFound):
			logger.Warn("product to rename not found", zap.String("product", oldName))
		case err != nil:
			return mq.Retryable(fmt.Errorf("failed to rename product: %w", err))
		}
		s.renameView(oldName, newName)
		logging.WithProduct(logger, newName).Info("product renamed", zap.String("old_name", oldName))

	default:
		return fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	return nil
}

// SelectView changes the view alerts are tracked for
func (s *ProcessorService) SelectView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// renameView keeps the selected view on a renamed product. The tracker then
// sees a product switch, so a rename never alerts.
func (s *ProcessorService) renameView(oldName, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Product == oldName {
		s.view.Product = newName
	}
}

// CurrentView returns the selected view. With no explicit selection the
// first product seen in records is used.
func (s *ProcessorService) CurrentView(records []inventory.Record) View {
	s.mu.RLock()
	v := s.view
	s.mu.RUnlock()

	if v.Product == "" {
		if products := inventory.Products(records); len(products) > 0 {
			v.Product = products[0]
		}
	}
	return v
}

// Recompute rebuilds statistics and anomalies from the full record set,
// feeds the change tracker and publishes the alert and snapshot events
func (s *ProcessorService) Recompute(ctx context.Context, logger *zap.Logger) (*Snapshot, error) {
	start := s.now()

	records, err := s.store.ListRecords(ctx, repository.RecordFilter{})
	if err != nil {
		return nil, mq.Retryable(fmt.Errorf("failed to load records: %w", err))
	}
	settings, err := s.store.GetSettingsMap(ctx)
	if err != nil {
		return nil, mq.Retryable(fmt.Errorf("failed to load settings: %w", err))
	}

	criticalFailures := 0
	counts := make(map[string]map[inventory.Severity]int)
	for _, product := range inventory.Products(records) {
		productAnomalies := s.detector.Detect(inventory.FilterByProduct(records, product), settings)
		counts[product] = anomaly.CountBySeverity(productAnomalies)
		criticalFailures += counts[product][inventory.SeverityCritical]
	}
	metrics.SetAnomalyCounts(counts)

	view := s.CurrentView(records)
	viewRecords := inventory.FilterByDateRange(inventory.FilterByProduct(records, view.Product), view.Start, view.End)
	viewAnomalies := s.detector.Detect(viewRecords, settings)
	stats := inventory.CalculateStats(viewRecords, view.Product)
	productSettings := s.detector.SettingsFor(settings, view.Product)
	viewCounts := anomaly.CountBySeverity(viewAnomalies)

	snapshot := &Snapshot{
		View:                 view,
		Stats:                stats,
		Settings:             productSettings,
		Baseline:             anomaly.Baseline(stats, productSettings),
		Anomalies:            anomaly.SortBySeverity(viewAnomalies),
		WarningCount:         viewCounts[inventory.SeverityWarning],
		CriticalCount:        viewCounts[inventory.SeverityCritical],
		CriticalFailureCount: criticalFailures,
		ComputedAt:           s.now().UTC(),
	}
	metrics.RecomputeDurationSeconds.Observe(s.now().Sub(start).Seconds())

	productLogger := logging.WithProduct(logger, view.Product)
	productLogger.Debug("recomputed",
		zap.Int("records", len(records)),
		zap.Int("view_records", len(viewRecords)),
		zap.Int("critical", snapshot.CriticalCount),
		zap.Int("warning", snapshot.WarningCount),
		zap.Int("critical_failures", criticalFailures),
	)

	if a, fired := s.tracker.Observe(view.Product, viewAnomalies); fired {
		metrics.AlertsTotal.Inc()
		productLogger.Warn("new critical anomaly", zap.String("message", a.Message))
		event := AlertEvent{
			Product:    a.Product,
			Message:    a.Message,
			Severity:   string(a.Severity),
			Anomaly:    a.Anomaly,
			DetectedAt: snapshot.ComputedAt,
		}
		// the tracker already moved on, so a failed publish is logged rather than retried
		if err := s.publisher.Publish(ctx, s.cfg.RabbitMQ.AlertRoutingKey, event); err != nil {
			productLogger.Error("failed to publish alert", zap.Error(err))
		}
	}

	if err := s.publisher.Publish(ctx, s.cfg.RabbitMQ.SnapshotRoutingKey, snapshot); err != nil {
		productLogger.Error("failed to publish snapshot", zap.Error(err))
	}

	return snapshot, nil
}
