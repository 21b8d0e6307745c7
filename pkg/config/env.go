package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

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

	EnvSettlementBaseURL        = "SETTLEMENT_BASE_URL"
	EnvSettlementConnectTimeout = "SETTLEMENT_CONNECT_TIMEOUT"
	EnvSettlementRequestTimeout = "SETTLEMENT_REQUEST_TIMEOUT"
	EnvSettlementMaxRetries     = "SETTLEMENT_MAX_RETRIES"
	EnvSettlementRetryBackoff   = "SETTLEMENT_RETRY_BACKOFF"
	EnvSettlementBackoffCap     = "SETTLEMENT_BACKOFF_CAP"
	EnvSettlementAutoSubmit     = "SETTLEMENT_AUTO_SUBMIT"

	EnvPropertyServiceBaseURL = "PROPERTY_SERVICE_BASE_URL"
	EnvPlatformWalletAddress  = "PLATFORM_WALLET_ADDRESS"

	EnvAllowSameDayTurnover  = "ALLOW_SAME_DAY_TURNOVER"
	EnvAvailabilityLockTTL   = "AVAILABILITY_LOCK_TTL"
	EnvPendingReservationTTL = "PENDING_RESERVATION_TTL"
	EnvExpirerInterval       = "EXPIRER_INTERVAL"

	EnvOutboxPollInterval = "OUTBOX_POLL_INTERVAL"
	EnvOutboxBatchSize    = "OUTBOX_BATCH_SIZE"
)
