package config

import "time"

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carelink"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultStoreDriver       = StoreDriverMongo

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultJWTIssuer = ""

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout     = 30 * time.Second
	DefaultTransactionTimeout = 10 * time.Second
	DefaultIdempotencyTTL     = 24 * time.Hour
	DefaultMaxRequestSize     = 1 * 1024 * 1024 // 1MB
	DefaultIdempotencyRedisDB = 0

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
	DefaultPageSize        = 10

	DefaultBookingEventsTopic = "booking-events"
	DefaultBookingEventsDLQ   = "dlq-booking-events"

	DefaultChatHistoryLimit     = 50
	DefaultChatCatchupLimit     = 500
	DefaultChatMaxMessageLength = 2000
	DefaultVisitHistoryLimit    = 20

	DefaultSocketSendBuffer     = 64
	DefaultSocketWriteTimeout   = 10 * time.Second
	DefaultSocketPongWait       = 60 * time.Second
	DefaultSocketEventTimeout   = 10 * time.Second
	DefaultSocketEventRate      = 10.0
	DefaultSocketEventBurst     = 20
	DefaultSocketMaxMessageSize = 8 * 1024
)
