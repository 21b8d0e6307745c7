package config

import (
	"fmt"
	"os"
	"regexp"
	"reserva/pkg/client"
	"reserva/pkg/logger"
	"strconv"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

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

	SettlementBaseURL        string
	SettlementConnectTimeout time.Duration
	SettlementRequestTimeout time.Duration
	SettlementMaxRetries     int
	SettlementRetryBackoff   time.Duration
	SettlementBackoffCap     time.Duration
	SettlementAutoSubmit     bool

	PropertyServiceBaseURL string
	PlatformWalletAddress  string

	// AllowSameDayTurnover switches the overlap predicate from
	// inclusive-inclusive (a check-out date equal to another booking's
	// check-in date conflicts) to half-open intervals.
	AllowSameDayTurnover  bool
	AvailabilityLockTTL   time.Duration
	PendingReservationTTL time.Duration
	ExpirerInterval       time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

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

		SettlementBaseURL:        getEnvStr(EnvSettlementBaseURL, DefaultSettlementBaseURL),
		SettlementConnectTimeout: getEnvDuration(EnvSettlementConnectTimeout, DefaultSettlementConnectTimeout),
		SettlementRequestTimeout: getEnvDuration(EnvSettlementRequestTimeout, DefaultSettlementRequestTimeout),
		SettlementMaxRetries:     getEnvNum(EnvSettlementMaxRetries, DefaultSettlementMaxRetries),
		SettlementRetryBackoff:   getEnvDuration(EnvSettlementRetryBackoff, DefaultSettlementRetryBackoff),
		SettlementBackoffCap:     getEnvDuration(EnvSettlementBackoffCap, DefaultSettlementBackoffCap),
		SettlementAutoSubmit:     getEnvBool(EnvSettlementAutoSubmit, DefaultSettlementAutoSubmit),

		PropertyServiceBaseURL: getEnvStr(EnvPropertyServiceBaseURL, DefaultPropertyServiceBaseURL),
		PlatformWalletAddress:  getEnvStr(EnvPlatformWalletAddress, DefaultPlatformWalletAddress),

		AllowSameDayTurnover:  getEnvBool(EnvAllowSameDayTurnover, DefaultAllowSameDayTurnover),
		AvailabilityLockTTL:   getEnvDuration(EnvAvailabilityLockTTL, DefaultAvailabilityLockTTL),
		PendingReservationTTL: getEnvDuration(EnvPendingReservationTTL, DefaultPendingReservationTTL),
		ExpirerInterval:       getEnvDuration(EnvExpirerInterval, DefaultExpirerInterval),

		OutboxPollInterval: getEnvDuration(EnvOutboxPollInterval, DefaultOutboxPollInterval),
		OutboxBatchSize:    getEnvNum(EnvOutboxBatchSize, DefaultOutboxBatchSize),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
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

func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		problems = append(problems, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		problems = append(problems, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		problems = append(problems, "MongoDatabaseName cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout":         cfg.MongoConnTimeout,
		"RateLimitWindow":          cfg.RateLimitWindow,
		"RequestTimeout":           cfg.RequestTimeout,
		"IdempotencyTTL":           cfg.IdempotencyTTL,
		"ReadTimeout":              cfg.ReadTimeout,
		"WriteTimeout":             cfg.WriteTimeout,
		"IdleTimeout":              cfg.IdleTimeout,
		"ShutdownTimeout":          cfg.ShutdownTimeout,
		"SettlementConnectTimeout": cfg.SettlementConnectTimeout,
		"SettlementRequestTimeout": cfg.SettlementRequestTimeout,
		"SettlementRetryBackoff":   cfg.SettlementRetryBackoff,
		"SettlementBackoffCap":     cfg.SettlementBackoffCap,
		"AvailabilityLockTTL":      cfg.AvailabilityLockTTL,
		"PendingReservationTTL":    cfg.PendingReservationTTL,
		"ExpirerInterval":          cfg.ExpirerInterval,
		"OutboxPollInterval":       cfg.OutboxPollInterval,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		problems = append(problems, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		problems = append(problems, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.SettlementMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("SettlementMaxRetries cannot be negative, got: %d", cfg.SettlementMaxRetries))
	}
	if cfg.OutboxBatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("OutboxBatchSize must be positive, got: %d", cfg.OutboxBatchSize))
	}
	if cfg.SettlementBackoffCap < cfg.SettlementRetryBackoff {
		problems = append(problems, fmt.Sprintf("SettlementBackoffCap (%s) must be >= SettlementRetryBackoff (%s)", cfg.SettlementBackoffCap, cfg.SettlementRetryBackoff))
	}
	if cfg.SettlementBaseURL == "" {
		problems = append(problems, "SettlementBaseURL cannot be empty")
	}
	if cfg.PropertyServiceBaseURL == "" {
		problems = append(problems, "PropertyServiceBaseURL cannot be empty")
	}

	if len(problems) > 0 {
		msg := "Configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"settlement_base_url", cfg.SettlementBaseURL,
		"settlement_connect_timeout", cfg.SettlementConnectTimeout,
		"settlement_request_timeout", cfg.SettlementRequestTimeout,
		"settlement_max_retries", cfg.SettlementMaxRetries,
		"settlement_auto_submit", cfg.SettlementAutoSubmit,
		"property_service_base_url", cfg.PropertyServiceBaseURL,
		"allow_same_day_turnover", cfg.AllowSameDayTurnover,
		"availability_lock_ttl", cfg.AvailabilityLockTTL,
		"pending_reservation_ttl", cfg.PendingReservationTTL,
		"outbox_poll_interval", cfg.OutboxPollInterval,
		"outbox_batch_size", cfg.OutboxBatchSize,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
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

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
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
