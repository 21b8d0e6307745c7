package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"reserva/pkg/config"
	"reserva/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const OutboxCollectionName = "Outbox_events"

// OutboxRepository stages events alongside the state change that causes
// them. Stage is called with a transaction's SessionContext so the event
// row commits atomically with the reservation write.
type OutboxRepository interface {
	Stage(ctx context.Context, event *model.OutboxEvent) error
	FindUnpublished(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

type mongoOutboxRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewOutboxRepository(cfg *config.Config) OutboxRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoOutboxRepository{
		cfg:        cfg,
		collection: db.Collection(OutboxCollectionName),
	}
}

func (r *mongoOutboxRepository) Stage(ctx context.Context, event *model.OutboxEvent) error {
	event.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to stage outbox event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

func (r *mongoOutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"published_at": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.OutboxEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}

	return events, nil
}

func (r *mongoOutboxRepository) MarkPublished(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid outbox event id: %s", id)
	}

	now := time.Now().UTC()
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"published_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}

// Stage marshals a lifecycle event into an outbox row keyed by
// reservation ID. Call with the SessionContext of the transaction that
// performs the state change.
func Stage(ctx context.Context, repo OutboxRepository, topic string, event *BookingEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.EventType = topic

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return repo.Stage(ctx, &model.OutboxEvent{
		Topic:     topic,
		Key:       strconv.FormatInt(event.ReservationID, 10),
		EventID:   uuid.New().String(),
		EventType: topic,
		Payload:   payload,
	})
}
