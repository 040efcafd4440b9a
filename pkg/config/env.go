package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvStoreDriver       = "STORE_DRIVER"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret = "JWT_SECRET"
	EnvJWTIssuer = "JWT_ISSUER"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout           = "REQUEST_TIMEOUT"
	EnvTransactionTimeout       = "TRANSACTION_TIMEOUT"
	EnvIdempotencyTTL           = "IDEMPOTENCY_TTL"
	EnvIdempotencyRedisAddr     = "IDEMPOTENCY_REDIS_ADDR"
	EnvIdempotencyRedisPassword = "IDEMPOTENCY_REDIS_PASSWORD"
	EnvIdempotencyRedisDB       = "IDEMPOTENCY_REDIS_DB"
	EnvMaxRequestSize           = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvEventsEnabled      = "BOOKING_EVENTS_ENABLED"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQ   = "BOOKING_EVENTS_DLQ"

	EnvChatHistoryLimit     = "CHAT_HISTORY_LIMIT"
	EnvChatCatchupLimit     = "CHAT_CATCHUP_LIMIT"
	EnvChatMaxMessageLength = "CHAT_MAX_MESSAGE_LENGTH"
	EnvVisitHistoryLimit    = "VISIT_HISTORY_LIMIT"

	EnvSocketSendBuffer     = "SOCKET_SEND_BUFFER"
	EnvSocketWriteTimeout   = "SOCKET_WRITE_TIMEOUT"
	EnvSocketPongWait       = "SOCKET_PONG_WAIT"
	EnvSocketEventTimeout   = "SOCKET_EVENT_TIMEOUT"
	EnvSocketEventRate      = "SOCKET_EVENT_RATE"
	EnvSocketEventBurst     = "SOCKET_EVENT_BURST"
	EnvSocketMaxMessageSize = "SOCKET_MAX_MESSAGE_SIZE"
	EnvSocketAllowedOrigins = "SOCKET_ALLOWED_ORIGINS"
)
