package kafka_middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"carelink/pkg/kafka"
	"carelink/pkg/logger"
)

// RecoveryConsumerMiddleware turns a handler panic into a permanent error so
// the message is dead-lettered instead of crashing the consumer.
func RecoveryConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic while processing message",
					"topic", msg.Topic,
					"offset", msg.Offset,
					"event_id", msg.GetEventID(),
					"panic", r,
					"stack", string(debug.Stack()),
				)
				err = kafka.NewPermanentError("handler panicked", fmt.Errorf("%v", r))
			}
		}()
		return next(ctx, msg)
	}
}
