package events

import (
	"context"

	"carelink/pkg/kafka"
	kafka_config "carelink/pkg/kafka/config"
	kafka_middleware "carelink/pkg/kafka/middleware"
	"carelink/pkg/logger"
	"carelink/pkg/middleware"
)

const source = "bookings"

type kafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher publishes booking events keyed by booking id, so every
// event of one booking lands on the same partition in order.
func NewKafkaPublisher(cfg *kafka_config.Config, topic, dlqTopic string, log *logger.Logger) (Publisher, error) {
	producer, err := kafka.NewProducer(cfg, topic, dlqTopic, log)
	if err != nil {
		return nil, err
	}
	if cfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}
	return &kafkaPublisher{producer: producer}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(source).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
