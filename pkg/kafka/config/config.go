package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"carelink/pkg/logger"
)

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 all replicas, 0 none, 1 leader
	Compression  string // none, gzip, snappy, lz4, zstd
	Async        bool
}

type ConsumerConfig struct {
	GroupID           string
	StartOffset       int64 // -1 newest, -2 oldest
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
}

// Config is shared by the booking event publisher and the notifier.
type Config struct {
	Brokers          []string
	Producer         ProducerConfig
	Consumer         ConsumerConfig
	EnableMiddleware bool
}

var compressions = map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}

func Load() (*Config, error) {
	cfg := &Config{
		Brokers: splitBrokers(envStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		Producer: ProducerConfig{
			MaxAttempts:  envInt(EnvProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: envDuration(EnvProducerBatchTimeout, DefaultProducerBatchTimeout),
			RequireAcks:  envInt(EnvProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  strings.ToLower(envStr(EnvProducerCompression, DefaultProducerCompression)),
			Async:        envBool(EnvProducerAsync, DefaultProducerAsync),
		},
		Consumer: ConsumerConfig{
			GroupID:           envStr(EnvConsumerGroupID, DefaultConsumerGroupID),
			StartOffset:       int64(envInt(EnvConsumerStartOffset, DefaultConsumerStartOffset)),
			MinBytes:          envInt(EnvConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          envInt(EnvConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           envDuration(EnvConsumerMaxWait, DefaultConsumerMaxWait),
			CommitInterval:    envDuration(EnvConsumerCommitInterval, DefaultConsumerCommitInterval),
			HeartbeatInterval: envDuration(EnvConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    envDuration(EnvConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  envDuration(EnvConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        envInt(EnvConsumerMaxRetries, DefaultConsumerMaxRetries),
		},
		EnableMiddleware: envBool(EnvEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(len(cfg.Brokers) > 0, "at least one broker is required")

	p := cfg.Producer
	check(p.MaxAttempts > 0, "producer max attempts must be positive, got %d", p.MaxAttempts)
	check(p.BatchTimeout > 0, "producer batch timeout must be positive, got %s", p.BatchTimeout)
	check(p.RequireAcks >= -1 && p.RequireAcks <= 1, "producer require acks must be -1, 0 or 1, got %d", p.RequireAcks)
	check(compressions[p.Compression], "producer compression %q is not supported", p.Compression)

	c := cfg.Consumer
	check(c.GroupID != "", "consumer group id cannot be empty")
	check(c.StartOffset == -1 || c.StartOffset == -2, "consumer start offset must be -1 (newest) or -2 (oldest), got %d", c.StartOffset)
	check(c.MinBytes > 0 && c.MaxBytes >= c.MinBytes, "consumer byte bounds are invalid: min %d max %d", c.MinBytes, c.MaxBytes)
	check(c.MaxWait > 0, "consumer max wait must be positive, got %s", c.MaxWait)
	check(c.CommitInterval > 0, "consumer commit interval must be positive, got %s", c.CommitInterval)
	check(c.HeartbeatInterval > 0 && c.HeartbeatInterval < c.SessionTimeout,
		"consumer heartbeat interval %s must be positive and below session timeout %s", c.HeartbeatInterval, c.SessionTimeout)
	check(c.RebalanceTimeout > 0, "consumer rebalance timeout must be positive, got %s", c.RebalanceTimeout)
	check(c.MaxRetries >= 0, "consumer max retries cannot be negative, got %d", c.MaxRetries)

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"producer_async", cfg.Producer.Async,
		"consumer_group_id", cfg.Consumer.GroupID,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func envStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
