package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvOfferCacheTTL = "OFFER_CACHE_TTL"

	EnvEventsEnabled  = "EVENTS_ENABLED"
	EnvEventsTopic    = "EVENTS_TOPIC"
	EnvEventsDLQTopic = "EVENTS_DLQ_TOPIC"

	EnvDuffelBaseURL     = "DUFFEL_BASE_URL"
	EnvDuffelAPIVersion  = "DUFFEL_API_VERSION"
	EnvDuffelLiveMode    = "DUFFEL_LIVE_MODE"
	EnvDuffelTestAPIKey  = "DUFFEL_TEST_API_KEY"
	EnvDuffelLiveAPIKey  = "DUFFEL_LIVE_API_KEY"
	EnvDuffelTimeout     = "DUFFEL_TIMEOUT"
	EnvDuffelMaxRetries  = "DUFFEL_MAX_RETRIES"
	EnvDuffelRetryDelay  = "DUFFEL_RETRY_DELAY"
	EnvDuffelSearchLimit = "DUFFEL_SEARCH_LIMIT"

	EnvTracingEnabled = "TRACING_ENABLED"
	EnvJaegerEndpoint = "JAEGER_ENDPOINT"
	EnvEnvironment    = "ENVIRONMENT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultCommissionRate = "BOOKING_DEFAULT_COMMISSION_RATE"
	EnvDefaultCurrency       = "BOOKING_DEFAULT_CURRENCY"
	EnvReferenceAttempts     = "BOOKING_REFERENCE_ATTEMPTS"
	EnvMaxTransitionRetries  = "BOOKING_MAX_TRANSITION_RETRIES"
	EnvExpirySchedule        = "BOOKING_EXPIRY_SCHEDULE"
	EnvExpiryBatchSize       = "BOOKING_EXPIRY_BATCH_SIZE"

	EnvDefaultAgencyName    = "DEFAULT_AGENCY_NAME"
	EnvDefaultAgencyCountry = "DEFAULT_AGENCY_COUNTRY"
	EnvDefaultAgencyCity    = "DEFAULT_AGENCY_CITY"
	EnvDefaultAgencyAddress = "DEFAULT_AGENCY_ADDRESS"
	EnvDefaultAgencyIATA    = "DEFAULT_AGENCY_IATA"
	EnvDefaultAgencyPhone   = "DEFAULT_AGENCY_PHONE"
	EnvDefaultAgencyEmail   = "DEFAULT_AGENCY_EMAIL"
)
