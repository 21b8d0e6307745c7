package repository

import (
	"context"
	"errors"
	"fmt"
	availabilityerrors "reserva/internal/availability/errors"
	"reserva/pkg/config"
	mongotx "reserva/pkg/db/mongo"
	"reserva/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Availability_blocks"

type BlockRepository interface {
	Create(ctx context.Context, block *model.AvailabilityBlock) error
	FindByID(ctx context.Context, id string) (*model.AvailabilityBlock, error)
	FindOverlapping(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time, inclusive bool) ([]*model.AvailabilityBlock, error)
	FindActiveByProperty(ctx context.Context, propertyID int64) ([]*model.AvailabilityBlock, error)
	FindActiveByReservation(ctx context.Context, reservationID int64) ([]*model.AvailabilityBlock, error)
	Retire(ctx context.Context, id string) error
	RetireByReservation(ctx context.Context, reservationID int64) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBlockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewBlockRepository(cfg *config.Config) BlockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBlockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction, where wrapping the SessionContext would break session
// semantics.
func (r *mongoBlockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBlockRepository) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	block.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, block)
	if err != nil {
		return fmt.Errorf("failed to create availability block: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		block.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBlockRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityBlock, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, id)
	}

	var block model.AvailabilityBlock
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find availability block: %w", err)
	}

	return &block, nil
}

// FindOverlapping returns active blocks intersecting the requested date
// range. Inclusive treats touching endpoints as a conflict; otherwise
// back-to-back stays are allowed.
func (r *mongoBlockRepository) FindOverlapping(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time, inclusive bool) ([]*model.AvailabilityBlock, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"property_id": propertyID,
		"retired":     false,
	}
	if inclusive {
		filter["date_start"] = bson.M{"$lte": dateEnd}
		filter["date_end"] = bson.M{"$gte": dateStart}
	} else {
		filter["date_start"] = bson.M{"$lt": dateEnd}
		filter["date_end"] = bson.M{"$gt": dateStart}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date_start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.AvailabilityBlock
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode availability blocks: %w", err)
	}

	return blocks, nil
}

func (r *mongoBlockRepository) FindActiveByProperty(ctx context.Context, propertyID int64) ([]*model.AvailabilityBlock, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"property_id": propertyID, "retired": false}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date_start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find blocks for property: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.AvailabilityBlock
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode availability blocks: %w", err)
	}

	return blocks, nil
}

func (r *mongoBlockRepository) FindActiveByReservation(ctx context.Context, reservationID int64) ([]*model.AvailabilityBlock, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"reservation_id": reservationID, "retired": false}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocks for reservation: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.AvailabilityBlock
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode availability blocks: %w", err)
	}

	return blocks, nil
}

func (r *mongoBlockRepository) Retire(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"retired": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to retire availability block: %w", err)
	}

	if result.MatchedCount == 0 {
		return availabilityerrors.ErrNotFound
	}

	return nil
}

// RetireByReservation retires every active block of a reservation and
// returns how many it touched. Zero matches is not an error, release is
// idempotent.
func (r *mongoBlockRepository) RetireByReservation(ctx context.Context, reservationID int64) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"reservation_id": reservationID, "retired": false},
		bson.M{"$set": bson.M{"retired": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to retire blocks for reservation: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *mongoBlockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
