package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultConsumerGroupID, cfg.Consumer.GroupID)
	assert.Equal(t, -1, cfg.Producer.RequireAcks)
	assert.True(t, cfg.EnableMiddleware)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvProducerCompression, "LZ4")
	t.Setenv(EnvConsumerStartOffset, "-2")
	t.Setenv(EnvConsumerMaxWait, "2s")
	t.Setenv(EnvEnableMiddleware, "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "lz4", cfg.Producer.Compression)
	assert.Equal(t, int64(-2), cfg.Consumer.StartOffset)
	assert.Equal(t, 2*time.Second, cfg.Consumer.MaxWait)
	assert.False(t, cfg.EnableMiddleware)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no brokers", func(c *Config) { c.Brokers = nil }, "broker"},
		{"bad acks", func(c *Config) { c.Producer.RequireAcks = 2 }, "require acks"},
		{"bad compression", func(c *Config) { c.Producer.Compression = "brotli" }, "brotli"},
		{"empty group", func(c *Config) { c.Consumer.GroupID = "" }, "group id"},
		{"explicit offset", func(c *Config) { c.Consumer.StartOffset = 42 }, "start offset"},
		{"heartbeat too slow", func(c *Config) { c.Consumer.HeartbeatInterval = time.Minute }, "heartbeat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
