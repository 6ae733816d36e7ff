package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/septivank/stockflow-worker/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const lifecycleTimeout = 30 * time.Second

func main() {
	loadEnv()

	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			ProvideDBPool,
			ProvideRepository,
			ProvideAnomalyDetector,
			ProvideValidator,
			ProvideAlertTracker,
			ProvideMQConnection,
			ProvidePublisher,
			ProvideProcessorService,
			ProvideAPIHandler,
			ProvideRouter,
			ProvideHTTPServer,
		),
		fx.Invoke(startWorker),
		fx.Invoke(func(*http.Server) {}),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bootLogger, _ := newLogger(&config.Config{ServiceName: "stockflow-worker", LogLevel: "info"})
	bootLogger.Info("starting application...", zap.Duration("timeout", lifecycleTimeout))

	startCtx, startCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		if errors.Is(startCtx.Err(), context.DeadlineExceeded) {
			bootLogger.Error("application did not start in time; check that PostgreSQL and RabbitMQ are reachable")
		}
		bootLogger.Fatal("failed to start application", zap.Error(err))
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		bootLogger.Error("error stopping app", zap.Error(err))
	}
}

// loadEnv loads the first .env found in the working directory or up to two
// parents. Containers usually inject variables directly and have none.
func loadEnv() {
	candidates := []string{".env", filepath.Join("..", "..", ".env")}
	if wd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(wd)
		candidates = append(candidates,
			filepath.Join(parent, ".env"),
			filepath.Join(filepath.Dir(parent), ".env"),
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			abs, _ := filepath.Abs(path)
			fmt.Printf("Loaded environment from: %s\n", abs)
			return
		}
	}
	fmt.Println("No .env file found, using system environment variables")
}
