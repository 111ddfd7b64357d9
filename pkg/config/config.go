package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"yxplore/pkg/client"
	"yxplore/pkg/logger"

	"github.com/shopspring/decimal"
)

var (
	mongoURIRegex    = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialsRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	currencyRegex    = regexp.MustCompile(`^[A-Z]{3}$`)
	iataRegex        = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OfferCacheTTL time.Duration

	EventsEnabled  bool
	EventsTopic    string
	EventsDLQTopic string

	DuffelBaseURL     string
	DuffelAPIVersion  string
	DuffelLiveMode    bool
	DuffelTestAPIKey  string
	DuffelLiveAPIKey  string
	DuffelTimeout     time.Duration
	DuffelMaxRetries  int
	DuffelRetryDelay  time.Duration
	DuffelSearchLimit int

	TracingEnabled bool
	JaegerEndpoint string
	Environment    string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultCommissionRate decimal.Decimal
	DefaultCurrency       string
	ReferenceAttempts     int
	MaxTransitionRetries  int
	ExpirySchedule        string
	ExpiryBatchSize       int

	DefaultAgencyName    string
	DefaultAgencyCountry string
	DefaultAgencyCity    string
	DefaultAgencyAddress string
	DefaultAgencyIATA    string
	DefaultAgencyPhone   string
	DefaultAgencyEmail   string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),
		OfferCacheTTL: getEnvDuration(EnvOfferCacheTTL, DefaultOfferCacheTTL),

		EventsEnabled:  getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		EventsTopic:    getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQTopic: getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),

		DuffelBaseURL:     getEnvStr(EnvDuffelBaseURL, DefaultDuffelBaseURL),
		DuffelAPIVersion:  getEnvStr(EnvDuffelAPIVersion, DefaultDuffelAPIVersion),
		DuffelLiveMode:    getEnvBool(EnvDuffelLiveMode, DefaultDuffelLiveMode),
		DuffelTestAPIKey:  getEnvStr(EnvDuffelTestAPIKey, ""),
		DuffelLiveAPIKey:  getEnvStr(EnvDuffelLiveAPIKey, ""),
		DuffelTimeout:     getEnvDuration(EnvDuffelTimeout, DefaultDuffelTimeout),
		DuffelMaxRetries:  getEnvNum(EnvDuffelMaxRetries, DefaultDuffelMaxRetries),
		DuffelRetryDelay:  getEnvDuration(EnvDuffelRetryDelay, DefaultDuffelRetryDelay),
		DuffelSearchLimit: getEnvNum(EnvDuffelSearchLimit, DefaultDuffelSearchLimit),

		TracingEnabled: getEnvBool(EnvTracingEnabled, DefaultTracingEnabled),
		JaegerEndpoint: getEnvStr(EnvJaegerEndpoint, DefaultJaegerEndpoint),
		Environment:    getEnvStr(EnvEnvironment, DefaultEnvironment),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultCommissionRate: getEnvDecimal(EnvDefaultCommissionRate, DefaultCommissionRate),
		DefaultCurrency:       strings.ToUpper(getEnvStr(EnvDefaultCurrency, DefaultCurrency)),
		ReferenceAttempts:     getEnvNum(EnvReferenceAttempts, DefaultReferenceAttempts),
		MaxTransitionRetries:  getEnvNum(EnvMaxTransitionRetries, DefaultMaxTransitionRetries),
		ExpirySchedule:        getEnvStr(EnvExpirySchedule, DefaultExpirySchedule),
		ExpiryBatchSize:       getEnvNum(EnvExpiryBatchSize, DefaultExpiryBatchSize),

		DefaultAgencyName:    getEnvStr(EnvDefaultAgencyName, DefaultAgencyName),
		DefaultAgencyCountry: getEnvStr(EnvDefaultAgencyCountry, DefaultAgencyCountry),
		DefaultAgencyCity:    getEnvStr(EnvDefaultAgencyCity, DefaultAgencyCity),
		DefaultAgencyAddress: getEnvStr(EnvDefaultAgencyAddress, DefaultAgencyAddress),
		DefaultAgencyIATA:    getEnvStr(EnvDefaultAgencyIATA, DefaultAgencyIATA),
		DefaultAgencyPhone:   getEnvStr(EnvDefaultAgencyPhone, DefaultAgencyPhone),
		DefaultAgencyEmail:   getEnvStr(EnvDefaultAgencyEmail, DefaultAgencyEmail),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, logger.INFO),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// DuffelAPIKey returns the key matching the configured mode.
func (cfg *Config) DuffelAPIKey() string {
	if cfg.DuffelLiveMode {
		return cfg.DuffelLiveAPIKey
	}
	return cfg.DuffelTestAPIKey
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.OfferCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("OfferCacheTTL must be positive, got: %s", cfg.OfferCacheTTL))
	}

	if cfg.EventsEnabled && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when events are enabled")
	}

	if u, err := url.Parse(cfg.DuffelBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("DuffelBaseURL must be an absolute URL, got: %s", cfg.DuffelBaseURL))
	}
	if cfg.DuffelAPIVersion == "" {
		errors = append(errors, "DuffelAPIVersion cannot be empty")
	}
	if cfg.DuffelTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("DuffelTimeout must be positive, got: %s", cfg.DuffelTimeout))
	}
	if cfg.DuffelMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("DuffelMaxRetries cannot be negative, got: %d", cfg.DuffelMaxRetries))
	}
	if cfg.DuffelRetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("DuffelRetryDelay cannot be negative, got: %s", cfg.DuffelRetryDelay))
	}
	if cfg.DuffelSearchLimit <= 0 || cfg.DuffelSearchLimit > 200 {
		errors = append(errors, fmt.Sprintf("DuffelSearchLimit must be between 1 and 200, got: %d", cfg.DuffelSearchLimit))
	}

	if cfg.TracingEnabled && cfg.JaegerEndpoint == "" {
		errors = append(errors, "JaegerEndpoint cannot be empty when tracing is enabled")
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.DefaultCommissionRate.IsNegative() || cfg.DefaultCommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		errors = append(errors, fmt.Sprintf("DefaultCommissionRate must be between 0 and 100, got: %s", cfg.DefaultCommissionRate))
	}
	if !currencyRegex.MatchString(cfg.DefaultCurrency) {
		errors = append(errors, fmt.Sprintf("DefaultCurrency must be a 3-letter ISO code, got: %s", cfg.DefaultCurrency))
	}
	if cfg.ReferenceAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ReferenceAttempts must be positive, got: %d", cfg.ReferenceAttempts))
	}
	if cfg.MaxTransitionRetries <= 0 {
		errors = append(errors, fmt.Sprintf("MaxTransitionRetries must be positive, got: %d", cfg.MaxTransitionRetries))
	}
	if cfg.ExpirySchedule == "" {
		errors = append(errors, "ExpirySchedule cannot be empty")
	}
	if cfg.ExpiryBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("ExpiryBatchSize must be positive, got: %d", cfg.ExpiryBatchSize))
	}

	if strings.TrimSpace(cfg.DefaultAgencyName) == "" {
		errors = append(errors, "DefaultAgencyName cannot be empty")
	}
	if cfg.DefaultAgencyIATA != "" && !iataRegex.MatchString(cfg.DefaultAgencyIATA) {
		errors = append(errors, fmt.Sprintf("DefaultAgencyIATA must be 3 letters, got: %s", cfg.DefaultAgencyIATA))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"offer_cache_ttl", cfg.OfferCacheTTL,
		"events_enabled", cfg.EventsEnabled,
		"events_topic", cfg.EventsTopic,
		"duffel_base_url", cfg.DuffelBaseURL,
		"duffel_api_version", cfg.DuffelAPIVersion,
		"duffel_live_mode", cfg.DuffelLiveMode,
		"duffel_api_key_set", cfg.DuffelAPIKey() != "",
		"duffel_timeout", cfg.DuffelTimeout,
		"duffel_max_retries", cfg.DuffelMaxRetries,
		"duffel_retry_delay", cfg.DuffelRetryDelay,
		"tracing_enabled", cfg.TracingEnabled,
		"environment", cfg.Environment,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_commission_rate", cfg.DefaultCommissionRate.StringFixed(2),
		"default_currency", cfg.DefaultCurrency,
		"reference_attempts", cfg.ReferenceAttempts,
		"max_transition_retries", cfg.MaxTransitionRetries,
		"expiry_schedule", cfg.ExpirySchedule,
		"default_agency", cfg.DefaultAgencyName,
	)
}

func redactMongoURI(uri string) string {
	return credentialsRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(fallback)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
