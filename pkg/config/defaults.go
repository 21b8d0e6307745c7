package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "reserva"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSettlementBaseURL        = "http://localhost:8085"
	DefaultSettlementConnectTimeout = 10 * time.Second
	DefaultSettlementRequestTimeout = 30 * time.Second
	DefaultSettlementMaxRetries     = 3
	DefaultSettlementRetryBackoff   = 100 * time.Millisecond
	DefaultSettlementBackoffCap     = 3 * time.Second
	DefaultSettlementAutoSubmit     = true

	DefaultPropertyServiceBaseURL = "http://localhost:8082"
	DefaultPlatformWalletAddress  = "0x0000000000000000000000000000000000000000"

	DefaultAllowSameDayTurnover  = false
	DefaultAvailabilityLockTTL   = 10 * time.Second
	DefaultPendingReservationTTL = 30 * time.Minute
	DefaultExpirerInterval       = 5 * time.Minute

	DefaultOutboxPollInterval = 1 * time.Second
	DefaultOutboxBatchSize    = 100

	DefaultPaginationLimit = 100
)
