package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reserva/internal/events"
	"reserva/pkg/config"
	"reserva/pkg/kafka"
	kafka_config "reserva/pkg/kafka/config"
	kafka_middleware "reserva/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const ServiceName = "relay"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg := kafka_config.Load()

	publishers := make(map[string]events.EventPublisher, len(events.Topics))
	producers := make([]*kafka.Producer, 0, len(events.Topics))
	for _, topic := range events.Topics {
		producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, topic, events.TopicReservationsDLQ)
		if err != nil {
			cfg.Log.Fatal("Failed to create producer", "topic", topic, "error", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		publishers[topic] = producer
		producers = append(producers, producer)
	}
	defer func() {
		for _, producer := range producers {
			_ = producer.Close()
		}
	}()

	relay := events.NewRelay(
		events.NewOutboxRepository(cfg),
		publishers,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		ServiceName,
		cfg.Log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting outbox relay",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"topics", len(events.Topics),
	)

	if err := relay.Run(ctx); err != nil && err != context.Canceled {
		cfg.Log.Fatal("Relay stopped", "error", err)
	}

	cfg.Log.Info("Relay stopped gracefully")
}
