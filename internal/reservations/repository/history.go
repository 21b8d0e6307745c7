package repository

import (
	"context"
	"fmt"
	"reserva/pkg/config"
	"reserva/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const HistoryCollectionName = "Reservation_status_history"

type HistoryRepository interface {
	Append(ctx context.Context, row *model.ReservationStatusHistory) error
	FindByReservation(ctx context.Context, reservationID int64) ([]*model.ReservationStatusHistory, error)
}

type mongoHistoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewHistoryRepository(cfg *config.Config) HistoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHistoryRepository{
		cfg:        cfg,
		collection: db.Collection(HistoryCollectionName),
	}
}

func (r *mongoHistoryRepository) Append(ctx context.Context, row *model.ReservationStatusHistory) error {
	row.ChangedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, row)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		row.ID = oid.Hex()
	}
	return nil
}

func (r *mongoHistoryRepository) FindByReservation(ctx context.Context, reservationID int64) ([]*model.ReservationStatusHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx,
		bson.M{"reservation_id": reservationID},
		options.Find().SetSort(bson.D{{Key: "changed_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find status history: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*model.ReservationStatusHistory
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status history: %w", err)
	}

	return rows, nil
}
