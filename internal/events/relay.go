package events

import (
	"context"
	"time"

	"reserva/pkg/kafka"
	"reserva/pkg/logger"
)

// EventPublisher is the slice of kafka.Producer the relay needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Relay drains the outbox and publishes each row to its topic. Rows are
// only stamped published after the broker acks, so a crash between
// publish and stamp redelivers; consumers dedup on the event ID.
type Relay struct {
	outbox       OutboxRepository
	publishers   map[string]EventPublisher
	pollInterval time.Duration
	batchSize    int
	source       string
	log          *logger.Logger
}

func NewRelay(
	outbox OutboxRepository,
	publishers map[string]EventPublisher,
	pollInterval time.Duration,
	batchSize int,
	source string,
	log *logger.Logger,
) *Relay {
	return &Relay{
		outbox:       outbox,
		publishers:   publishers,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		source:       source,
		log:          log,
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.log.Error("Outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of unpublished events in creation order.
// A publish failure stops the batch so ordering per reservation is kept.
func (r *Relay) Drain(ctx context.Context) error {
	pending, err := r.outbox.FindUnpublished(ctx, r.batchSize)
	if err != nil {
		return err
	}

	for _, event := range pending {
		publisher, ok := r.publishers[event.Topic]
		if !ok {
			r.log.Error("No publisher for topic, skipping event",
				"topic", event.Topic,
				"event_id", event.EventID,
			)
			continue
		}

		msg := kafka.NewMessage().
			WithKey(event.Key).
			WithRawValue(event.Payload).
			WithEventID(event.EventID).
			WithEventType(event.EventType).
			WithSchemaVersion(SchemaVersion).
			WithSource(r.source).
			Build()

		if err := publisher.Publish(ctx, msg); err != nil {
			r.log.Error("Failed to publish outbox event",
				"topic", event.Topic,
				"event_id", event.EventID,
				"error", err,
			)
			return err
		}

		if err := r.outbox.MarkPublished(ctx, event.ID); err != nil {
			return err
		}
	}

	return nil
}
