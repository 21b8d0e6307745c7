package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"reserva/internal/events"
	"reserva/pkg/config"
	"reserva/pkg/kafka"
	kafka_config "reserva/pkg/kafka/config"
	kafka_middleware "reserva/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const (
	ServiceName   = "notifier"
	consumerGroup = "reservation-notifications"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg := kafka_config.Load()
	processed := events.NewProcessedEventRepository(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	consumers := make([]*kafka.Consumer, 0, len(events.Topics))

	for _, topic := range events.Topics {
		consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Log, topic, consumerGroup, events.TopicReservationsDLQ, notify(cfg))
		if err != nil {
			cfg.Log.Fatal("Failed to create consumer", "topic", topic, "error", err)
		}
		consumer.Use(events.DedupMiddleware(processed))
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
		consumers = append(consumers, consumer)

		wg.Add(1)
		go func(c *kafka.Consumer, topic string) {
			defer wg.Done()
			if err := c.Start(ctx); err != nil && err != context.Canceled {
				cfg.Log.Error("Consumer stopped", "topic", topic, "error", err)
			}
		}(consumer, topic)
	}

	cfg.Log.Info("Notification consumer started",
		"group", consumerGroup,
		"topics", len(events.Topics),
	)

	<-ctx.Done()
	for _, consumer := range consumers {
		_ = consumer.Close()
	}
	wg.Wait()

	cfg.Log.Info("Notification consumer stopped gracefully")
}

// notify is a stand-in delivery channel: lifecycle events are logged
// where a real deployment would fan out to email or push.
func notify(cfg *config.Config) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event events.BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("malformed event payload", err)
		}

		cfg.Log.Info("Reservation notification",
			"event_type", event.EventType,
			"reservation_id", event.ReservationID,
			"property_id", event.PropertyID,
			"user_id", event.UserID,
			"status", event.Status,
		)
		return nil
	}
}
