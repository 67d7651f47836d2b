// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Kafka   KafkaConfig
	DLQ     DLQConfig
	Retry   RetryConfig
	Worker  WorkerConfig
	Queue   QueueConfig
	Metrics MetricsConfig
	Logging LoggingConfig
	Service ServiceConfig
}

// KafkaConfig holds Kafka connection settings for the SNS envelope topic
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// DLQConfig holds dead-letter queue settings
type DLQConfig struct {
	Brokers []string
	Topic   string
}

// RetryConfig holds retry policy for transient processing failures.
// Decode and validation failures are never retried.
type RetryConfig struct {
	MaxAttempts int
	BaseDelayMs time.Duration
	MaxDelayMs  time.Duration
	Multiplier  float64
}

// WorkerConfig holds worker pool settings
type WorkerConfig struct {
	Count int
}

// QueueConfig holds internal queue settings
type QueueConfig struct {
	Size int
}

// MetricsConfig holds Prometheus endpoint settings
type MetricsConfig struct {
	Port string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service settings
type ServiceConfig struct {
	Name string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Kafka configuration
	cfg.Kafka.Brokers = splitBrokers(os.Getenv("KAFKA_BROKERS"))
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required and must contain at least one valid broker address")
	}

	kafkaTopic := os.Getenv("KAFKA_TOPIC")
	if kafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC is required")
	}
	cfg.Kafka.Topic = kafkaTopic
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", "snsstream-consumer")

	// DLQ configuration, defaults to the main cluster
	cfg.DLQ.Brokers = splitBrokers(os.Getenv("DLQ_BROKERS"))
	if len(cfg.DLQ.Brokers) == 0 {
		cfg.DLQ.Brokers = cfg.Kafka.Brokers
	}
	cfg.DLQ.Topic = getEnv("DLQ_TOPIC", cfg.Kafka.Topic+".dlq")

	// Retry configuration
	var err error
	if cfg.Retry.MaxAttempts, err = getEnvInt("RETRY_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxAttempts < 0 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must not be negative, got: %d", cfg.Retry.MaxAttempts)
	}
	baseDelay, err := getEnvInt("RETRY_BASE_DELAY_MS", 100)
	if err != nil {
		return nil, err
	}
	maxDelay, err := getEnvInt("RETRY_MAX_DELAY_MS", 5000)
	if err != nil {
		return nil, err
	}
	if baseDelay <= 0 || maxDelay < baseDelay {
		return nil, fmt.Errorf("retry delays must satisfy 0 < RETRY_BASE_DELAY_MS <= RETRY_MAX_DELAY_MS, got: %d, %d", baseDelay, maxDelay)
	}
	cfg.Retry.BaseDelayMs = time.Duration(baseDelay) * time.Millisecond
	cfg.Retry.MaxDelayMs = time.Duration(maxDelay) * time.Millisecond
	multiplier, err := strconv.ParseFloat(getEnv("RETRY_MULTIPLIER", "2.0"), 64)
	if err != nil || multiplier < 1 {
		return nil, fmt.Errorf("RETRY_MULTIPLIER must be a number >= 1")
	}
	cfg.Retry.Multiplier = multiplier

	// Worker and queue configuration
	if cfg.Worker.Count, err = getEnvInt("WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.Worker.Count <= 0 {
		return nil, fmt.Errorf("WORKER_COUNT must be greater than 0, got: %d", cfg.Worker.Count)
	}
	if cfg.Queue.Size, err = getEnvInt("QUEUE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.Queue.Size <= 0 {
		return nil, fmt.Errorf("QUEUE_SIZE must be greater than 0, got: %d", cfg.Queue.Size)
	}

	// Metrics configuration
	cfg.Metrics.Port = getEnv("METRICS_PORT", "9090")

	// Logging configuration
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	// Service configuration
	cfg.Service.Name = getEnv("SERVICE_NAME", "snsstream")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got: %q", key, value)
	}
	return n, nil
}

// splitBrokers parses a comma-separated broker list, dropping blanks
func splitBrokers(value string) []string {
	parts := strings.Split(value, ",")
	brokers := make([]string, 0, len(parts))
	for _, broker := range parts {
		broker = strings.TrimSpace(broker)
		if broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
