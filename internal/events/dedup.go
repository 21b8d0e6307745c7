package events

import (
	"context"
	"fmt"
	"time"

	"reserva/pkg/config"
	"reserva/pkg/kafka"
	"reserva/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const ProcessedCollectionName = "Processed_events"

// ProcessedEventRepository remembers handled deliveries. MarkProcessed
// returns false when the event was already recorded.
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, id string) (bool, error)
}

type mongoProcessedEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewProcessedEventRepository(cfg *config.Config) ProcessedEventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProcessedEventRepository{
		cfg:        cfg,
		collection: db.Collection(ProcessedCollectionName),
	}
}

func (r *mongoProcessedEventRepository) MarkProcessed(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, &model.ProcessedEvent{
		ID:          id,
		ProcessedAt: time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record processed event: %w", err)
	}

	return true, nil
}

// DedupMiddleware drops deliveries already seen. At-least-once delivery
// plus this filter gives consumers effectively-once processing.
func DedupMiddleware(repo ProcessedEventRepository) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		id := DedupKey(msg.GetEventType(), msg.Key, msg.GetEventID())

		fresh, err := repo.MarkProcessed(ctx, id)
		if err != nil {
			return kafka.NewTransientError("dedup store unavailable", err)
		}
		if !fresh {
			return nil
		}

		return next(ctx, msg)
	}
}

func DedupKey(eventType, key, eventID string) string {
	return fmt.Sprintf("%s:%s:%s", eventType, key, eventID)
}
