package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "yxplore"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisDB       = 0
	DefaultOfferCacheTTL = 15 * time.Minute

	DefaultEventsEnabled  = false
	DefaultEventsTopic    = "yxplore.domain-events"
	DefaultEventsDLQTopic = "yxplore.domain-events.dlq"

	DefaultDuffelBaseURL     = "https://api.duffel.com/air"
	DefaultDuffelAPIVersion  = "v2"
	DefaultDuffelLiveMode    = false
	DefaultDuffelTimeout     = 30 * time.Second
	DefaultDuffelMaxRetries  = 3
	DefaultDuffelRetryDelay  = 1 * time.Second
	DefaultDuffelSearchLimit = 50

	DefaultTracingEnabled = false
	DefaultJaegerEndpoint = "http://localhost:14268/api/traces"
	DefaultEnvironment    = "development"

	DefaultPort = "8080"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 45 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultCommissionRate       = "5.00"
	DefaultCurrency             = "EUR"
	DefaultReferenceAttempts    = 10
	DefaultMaxTransitionRetries = 3
	DefaultExpirySchedule       = "@every 5m"
	DefaultExpiryBatchSize      = 200

	DefaultAgencyName    = "YXplore Travel Agency"
	DefaultAgencyCountry = "France"
	DefaultAgencyCity    = "Paris"
	DefaultAgencyAddress = "123 Avenue des Champs-Élysées, 75008 Paris"
	DefaultAgencyIATA    = "YXA"
	DefaultAgencyPhone   = "+33 1 23 45 67 89"
	DefaultAgencyEmail   = "contact@yxplore-travel.com"
)
