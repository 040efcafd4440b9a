package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"carelink/pkg/client"
	"carelink/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	StoreDriver       string

	Port      string
	LogLevel  string
	LogFormat string

	JWTSecret string
	JWTIssuer string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout           time.Duration
	TransactionTimeout       time.Duration
	IdempotencyTTL           time.Duration
	IdempotencyRedisAddr     string
	IdempotencyRedisPassword string
	IdempotencyRedisDB       int
	MaxRequestSize           int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	EventsEnabled      bool
	BookingEventsTopic string
	BookingEventsDLQ   string

	ChatHistoryLimit     int
	ChatCatchupLimit     int
	ChatMaxMessageLength int
	VisitHistoryLimit    int

	SocketSendBuffer     int
	SocketWriteTimeout   time.Duration
	SocketPongWait       time.Duration
	SocketEventTimeout   time.Duration
	SocketEventRate      float64
	SocketEventBurst     int
	SocketMaxMessageSize int
	SocketAllowedOrigins []string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the process environment.
// Invalid configuration is fatal.
func Load(serviceName string) *Config {
	dotenvErr := godotenv.Load()

	cfg := FromEnv(serviceName)
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to load .env file", "error", dotenvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from the environment without validating it.
func FromEnv(serviceName string) *Config {
	logLevel := getEnvStr(EnvLogLevel, DefaultLogLevel)
	logFormat := getEnvStr(EnvLogFormat, DefaultLogFormat)

	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		StoreDriver:       strings.ToLower(getEnvStr(EnvStoreDriver, DefaultStoreDriver)),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  logLevel,
		LogFormat: logFormat,

		JWTSecret: getEnvStr(EnvJWTSecret, ""),
		JWTIssuer: getEnvStr(EnvJWTIssuer, DefaultJWTIssuer),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:           getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		TransactionTimeout:       getEnvDuration(EnvTransactionTimeout, DefaultTransactionTimeout),
		IdempotencyTTL:           getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		IdempotencyRedisAddr:     getEnvStr(EnvIdempotencyRedisAddr, ""),
		IdempotencyRedisPassword: getEnvStr(EnvIdempotencyRedisPassword, ""),
		IdempotencyRedisDB:       getEnvNum(EnvIdempotencyRedisDB, DefaultIdempotencyRedisDB),
		MaxRequestSize:           getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		EventsEnabled:      getEnvBool(EnvEventsEnabled, false),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		BookingEventsDLQ:   getEnvStr(EnvBookingEventsDLQ, DefaultBookingEventsDLQ),

		ChatHistoryLimit:     getEnvNum(EnvChatHistoryLimit, DefaultChatHistoryLimit),
		ChatCatchupLimit:     getEnvNum(EnvChatCatchupLimit, DefaultChatCatchupLimit),
		ChatMaxMessageLength: getEnvNum(EnvChatMaxMessageLength, DefaultChatMaxMessageLength),
		VisitHistoryLimit:    getEnvNum(EnvVisitHistoryLimit, DefaultVisitHistoryLimit),

		SocketSendBuffer:     getEnvNum(EnvSocketSendBuffer, DefaultSocketSendBuffer),
		SocketWriteTimeout:   getEnvDuration(EnvSocketWriteTimeout, DefaultSocketWriteTimeout),
		SocketPongWait:       getEnvDuration(EnvSocketPongWait, DefaultSocketPongWait),
		SocketEventTimeout:   getEnvDuration(EnvSocketEventTimeout, DefaultSocketEventTimeout),
		SocketEventRate:      getEnvFloat(EnvSocketEventRate, DefaultSocketEventRate),
		SocketEventBurst:     getEnvNum(EnvSocketEventBurst, DefaultSocketEventBurst),
		SocketMaxMessageSize: getEnvNum(EnvSocketMaxMessageSize, DefaultSocketMaxMessageSize),
		SocketAllowedOrigins: getEnvList(EnvSocketAllowedOrigins),

		Log: logger.New(logger.Config{
			Level:     logLevel,
			Format:    logFormat,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) UsesMemoryStore() bool {
	return cfg.StoreDriver == StoreDriverMemory
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoreDriverMemory:
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be %q or %q, got: %s", StoreDriverMongo, StoreDriverMemory, cfg.StoreDriver))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.TransactionTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("TransactionTimeout must be positive, got: %s", cfg.TransactionTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
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

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.EventsEnabled && cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty when booking events are enabled")
	}

	if cfg.ChatHistoryLimit <= 0 {
		errors = append(errors, fmt.Sprintf("ChatHistoryLimit must be positive, got: %d", cfg.ChatHistoryLimit))
	}
	if cfg.ChatCatchupLimit < cfg.ChatHistoryLimit {
		errors = append(errors, fmt.Sprintf("ChatCatchupLimit (%d) must be >= ChatHistoryLimit (%d)", cfg.ChatCatchupLimit, cfg.ChatHistoryLimit))
	}
	if cfg.ChatMaxMessageLength <= 0 {
		errors = append(errors, fmt.Sprintf("ChatMaxMessageLength must be positive, got: %d", cfg.ChatMaxMessageLength))
	}
	if cfg.VisitHistoryLimit <= 0 {
		errors = append(errors, fmt.Sprintf("VisitHistoryLimit must be positive, got: %d", cfg.VisitHistoryLimit))
	}

	if cfg.SocketSendBuffer <= 0 {
		errors = append(errors, fmt.Sprintf("SocketSendBuffer must be positive, got: %d", cfg.SocketSendBuffer))
	}
	if cfg.SocketWriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("SocketWriteTimeout must be positive, got: %s", cfg.SocketWriteTimeout))
	}
	if cfg.SocketPongWait <= 0 {
		errors = append(errors, fmt.Sprintf("SocketPongWait must be positive, got: %s", cfg.SocketPongWait))
	}
	if cfg.SocketEventTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("SocketEventTimeout must be positive, got: %s", cfg.SocketEventTimeout))
	}
	if cfg.SocketEventRate <= 0 || cfg.SocketEventBurst <= 0 {
		errors = append(errors, fmt.Sprintf("SocketEventRate and SocketEventBurst must be positive, got: %v/%d", cfg.SocketEventRate, cfg.SocketEventBurst))
	}
	if cfg.SocketMaxMessageSize <= 0 {
		errors = append(errors, fmt.Sprintf("SocketMaxMessageSize must be positive, got: %d", cfg.SocketMaxMessageSize))
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
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_issuer", cfg.JWTIssuer,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"transaction_timeout", cfg.TransactionTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"idempotency_redis", cfg.IdempotencyRedisAddr != "",
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"events_enabled", cfg.EventsEnabled,
		"booking_events_topic", cfg.BookingEventsTopic,
		"chat_history_limit", cfg.ChatHistoryLimit,
		"chat_catchup_limit", cfg.ChatCatchupLimit,
		"socket_send_buffer", cfg.SocketSendBuffer,
		"socket_event_rate", cfg.SocketEventRate,
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

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
