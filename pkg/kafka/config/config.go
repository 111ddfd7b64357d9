package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Balancers accepted by KAFKA_PRODUCER_BALANCER. "hash" keeps every event of
// one aggregate on one partition.
var Balancers = []string{"hash", "crc32", "least_bytes", "round_robin"}

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

// Config holds the settings of the domain event producer.
type Config struct {
	Brokers  []string
	ClientID string

	Balancer       string
	MaxAttempts    int
	BatchTimeout   time.Duration
	RequireAcks    int // -1 all, 0 none, 1 leader
	Compression    string
	Async          bool
	PublishTimeout time.Duration

	EnableMiddleware bool
}

// Load reads the producer settings from the environment and validates them.
func Load() (*Config, error) {
	cfg := &Config{
		Brokers:  splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		ClientID: getEnvStr(EnvKafkaClientID, DefaultClientID),

		Balancer:       strings.ToLower(getEnvStr(EnvKafkaProducerBalancer, DefaultProducerBalancer)),
		MaxAttempts:    getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		BatchTimeout:   getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		RequireAcks:    getEnvInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		Compression:    strings.ToLower(getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression)),
		Async:          getEnvBool(EnvKafkaProducerAsync, DefaultProducerAsync),
		PublishTimeout: getEnvDuration(EnvKafkaPublishTimeout, DefaultPublishTimeout),

		EnableMiddleware: getEnvBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (cfg *Config) Validate() error {
	var problems []string

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "At least one Kafka broker is required")
	}
	if cfg.ClientID == "" {
		problems = append(problems, "ClientID cannot be empty")
	}
	if !oneOf(cfg.Balancer, Balancers) {
		problems = append(problems, fmt.Sprintf("Balancer must be one of %v, got: %s", Balancers, cfg.Balancer))
	}
	if cfg.MaxAttempts <= 0 {
		problems = append(problems, fmt.Sprintf("MaxAttempts must be positive, got: %d", cfg.MaxAttempts))
	}
	if cfg.BatchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("BatchTimeout must be positive, got: %s", cfg.BatchTimeout))
	}
	if cfg.PublishTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("PublishTimeout must be positive, got: %s", cfg.PublishTimeout))
	}
	if !oneOf(cfg.Compression, compressions) {
		problems = append(problems, fmt.Sprintf("Compression must be one of %v, got: %s", compressions, cfg.Compression))
	}
	if cfg.RequireAcks < -1 || cfg.RequireAcks > 1 {
		problems = append(problems, fmt.Sprintf("RequireAcks must be -1, 0, or 1, got: %d", cfg.RequireAcks))
	}
	// An async writer reports failures out of band, so the DLQ would never fire.
	if cfg.Async && cfg.RequireAcks != 0 {
		problems = append(problems, "Async publishing requires RequireAcks=0")
	}

	if len(problems) > 0 {
		errMsg := "Kafka configuration validation failed:\n"
		for i, p := range problems {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return fmt.Errorf("%s", errMsg)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// LogConfiguration logs through any slog-style key/value function.
func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}
	logFunc("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"client_id", cfg.ClientID,
		"balancer", cfg.Balancer,
		"max_attempts", cfg.MaxAttempts,
		"batch_timeout", cfg.BatchTimeout,
		"require_acks", cfg.RequireAcks,
		"compression", cfg.Compression,
		"async", cfg.Async,
		"publish_timeout", cfg.PublishTimeout,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
