package kafka_middleware

import (
	"context"
	"time"

	"carelink/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	messagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_kafka_messages_published_total",
			Help: "Messages handed to Kafka by topic and result.",
		},
		[]string{"topic", "result"},
	)

	publishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carelink_kafka_publish_duration_seconds",
			Help:    "Time spent publishing a message.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	messagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_kafka_messages_consumed_total",
			Help: "Messages handled by topic, event type and result.",
		},
		[]string{"topic", "event_type", "result"},
	)

	consumeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carelink_kafka_consume_duration_seconds",
			Help:    "Time spent handling a message.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

func init() {
	prometheus.MustRegister(messagesPublished, publishDuration, messagesConsumed, consumeDuration)
}

// MetricsProducerMiddleware tracks producer metrics
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		publishDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		messagesPublished.WithLabelValues(msg.Topic, result(err)).Inc()

		return err
	}
}

// MetricsConsumerMiddleware tracks consumer metrics
func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		consumeDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		messagesConsumed.WithLabelValues(msg.Topic, msg.GetEventType(), result(err)).Inc()

		return err
	}
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
