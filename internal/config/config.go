package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/septivank/stockflow-worker/internal/alert"
	"github.com/septivank/stockflow-worker/internal/inventory"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	LogLevel    string
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Validation  ValidationConfig
	Anomaly     AnomalyConfig
	Alert       AlertConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL         string
	AutoMigrate bool
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	URL                string
	EventsExchange     string
	EventsQueue        string
	EventsRoutingKey   string
	AlertExchange      string
	AlertRoutingKey    string
	SnapshotRoutingKey string
	DLQQueue           string
	PrefetchCount      int
}

// ValidationConfig holds validation settings
type ValidationConfig struct {
	FutureToleranceMinutes int
}

// AnomalyConfig holds anomaly detection settings
type AnomalyConfig struct {
	DefaultTolerancePercent float64
}

// AlertConfig holds alerting settings
type AlertConfig struct {
	MessagePrefix string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "stockflow-worker"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8081),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			AutoMigrate: getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
		},
		RabbitMQ: RabbitMQConfig{
			URL:                getEnv("RABBITMQ_URL", ""),
			EventsExchange:     getEnv("RABBITMQ_EVENTS_EXCHANGE", "stockflow.inventory.exchange"),
			EventsQueue:        getEnv("RABBITMQ_EVENTS_QUEUE", "stockflow.inventory.queue"),
			EventsRoutingKey:   getEnv("RABBITMQ_EVENTS_ROUTING_KEY", "inventory.#"),
			AlertExchange:      getEnv("RABBITMQ_ALERT_EXCHANGE", "stockflow.alerts.exchange"),
			AlertRoutingKey:    getEnv("RABBITMQ_ALERT_ROUTING_KEY", "alert.anomaly.critical"),
			SnapshotRoutingKey: getEnv("RABBITMQ_SNAPSHOT_ROUTING_KEY", "analysis.snapshot"),
			DLQQueue:           getEnv("RABBITMQ_DLQ_QUEUE", "stockflow.inventory.dlq"),
			PrefetchCount:      getEnvAsInt("RABBITMQ_PREFETCH", 1),
		},
		Validation: ValidationConfig{
			FutureToleranceMinutes: getEnvAsInt("VALIDATION_FUTURE_TOLERANCE_MINUTES", 10),
		},
		Anomaly: AnomalyConfig{
			DefaultTolerancePercent: getEnvAsFloat("ANOMALY_DEFAULT_TOLERANCE_PERCENT", inventory.DefaultTolerancePercent),
		},
		Alert: AlertConfig{
			MessagePrefix: getEnv("ALERT_MESSAGE_PREFIX", alert.DefaultMessagePrefix),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required but not set in environment variables")
	}
	if cfg.Anomaly.DefaultTolerancePercent <= 0 {
		return nil, fmt.Errorf("ANOMALY_DEFAULT_TOLERANCE_PERCENT must be greater than zero, got %v", cfg.Anomaly.DefaultTolerancePercent)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
