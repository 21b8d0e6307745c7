package repository

import (
	"context"
	"fmt"
	"reserva/pkg/config"
	"reserva/pkg/model"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Property_locks"

// PropertyLockRepository provides per-property advisory locks
type PropertyLockRepository interface {
	Acquire(ctx context.Context, propertyID int64) (*model.PropertyLock, error)
	Release(ctx context.Context, lockID string) error
}

type mongoPropertyLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewPropertyLockRepository(cfg *config.Config) PropertyLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPropertyLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. A duplicate key error means another
// writer holds the property; callers map that to a conflict.
func (r *mongoPropertyLockRepository) Acquire(ctx context.Context, propertyID int64) (*model.PropertyLock, error) {
	now := time.Now().UTC()
	lock := &model.PropertyLock{
		ID:        strconv.FormatInt(propertyID, 10),
		ExpiresAt: now.Add(r.cfg.AvailabilityLockTTL),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoPropertyLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	if err != nil {
		return fmt.Errorf("failed to release property lock: %w", err)
	}
	return nil
}
