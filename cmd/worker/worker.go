package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/septivank/stockflow-worker/internal/alert"
	"github.com/septivank/stockflow-worker/internal/anomaly"
	"github.com/septivank/stockflow-worker/internal/api"
	"github.com/septivank/stockflow-worker/internal/config"
	"github.com/septivank/stockflow-worker/internal/db"
	"github.com/septivank/stockflow-worker/internal/mq"
	"github.com/septivank/stockflow-worker/internal/repository"
	"github.com/septivank/stockflow-worker/internal/service"
	"github.com/septivank/stockflow-worker/internal/validator"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func startWorker(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	processor *service.ProcessorService,
) (*mq.Consumer, error) {
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:       conn,
		Queue:            cfg.RabbitMQ.EventsQueue,
		DLQQueue:         cfg.RabbitMQ.DLQQueue,
		Exchange:         cfg.RabbitMQ.EventsExchange,
		RoutingKey:       cfg.RabbitMQ.EventsRoutingKey,
		PrefetchCount:    cfg.RabbitMQ.PrefetchCount,
		Logger:           logger,
		MessageProcessor: processor.ProcessMessage,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			// seed the alert baseline from stored records
			if _, err := processor.Recompute(startCtx, logger); err != nil {
				logger.Warn("initial recompute failed", zap.Error(err))
			}
			logger.Info("starting worker consumer",
				zap.String("queue", cfg.RabbitMQ.EventsQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
				return err
			}
			logger.Info("worker stopped gracefully")
			return nil
		},
	})

	return consumer, nil
}

// ProvideRepository creates a new repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvideAnomalyDetector creates a new anomaly detector instance
func ProvideAnomalyDetector(cfg *config.Config) *anomaly.Detector {
	return anomaly.NewDetector(cfg.Anomaly.DefaultTolerancePercent)
}

// ProvideValidator creates a new validator instance
func ProvideValidator(cfg *config.Config) *validator.Validator {
	return validator.NewValidator(cfg.Validation.FutureToleranceMinutes)
}

// ProvideAlertTracker creates the critical anomaly change tracker
func ProvideAlertTracker(cfg *config.Config) *alert.Tracker {
	return alert.NewTracker(cfg.Alert.MessagePrefix)
}

// ProvidePublisher creates a publisher on the alert exchange
func ProvidePublisher(lc fx.Lifecycle, conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.AlertExchange, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

// ProvideProcessorService creates a new processor service instance
func ProvideProcessorService(
	repo *repository.Repository,
	publisher *mq.Publisher,
	detector *anomaly.Detector,
	validator *validator.Validator,
	tracker *alert.Tracker,
	cfg *config.Config,
	logger *zap.Logger,
) *service.ProcessorService {
	return service.NewProcessorService(repo, publisher, detector, validator, tracker, cfg, logger)
}

// ProvideAPIHandler serves the processor's read side
func ProvideAPIHandler(processor *service.ProcessorService, logger *zap.Logger) *api.Handler {
	return api.NewHandler(processor, logger.Named("http"))
}

// ProvideRouter builds the HTTP router
func ProvideRouter(h *api.Handler) *chi.Mux {
	return api.NewRouter(h)
}

// ProvideHTTPServer creates the HTTP server on the service port
func ProvideHTTPServer(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config, router *chi.Mux) *http.Server {
	return api.NewServer(lc, logger, cfg.ServicePort, router)
}

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL, cfg.Database.AutoMigrate)
}

// ProvideMQConnection creates a new RabbitMQ connection instance
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}
