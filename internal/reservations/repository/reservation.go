package repository

import (
	"context"
	"errors"
	"fmt"
	reservationerrors "reserva/internal/reservations/errors"
	"reserva/pkg/config"
	mongotx "reserva/pkg/db/mongo"
	"reserva/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reservations"

	SequenceName = "reservations"
)

type ReservationRepository interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id int64) (*model.Reservation, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error)
	FindByUser(ctx context.Context, userID int64, limit int, offset int64) ([]*model.Reservation, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to string, extra bson.M) (bool, error)
	SetBlockchainTxHash(ctx context.Context, id int64, hash string) error
	SetEscrowReleased(ctx context.Context, id int64, txHash string) error
	ExistsOverlappingForUser(ctx context.Context, userID, propertyID int64, dateStart, dateEnd time.Time, inclusive bool) (bool, error)
	FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Reservation, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	sequences  mongotx.SequenceGenerator
	txManager  mongotx.TransactionManager
}

func NewReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		sequences:  mongotx.NewSequenceGenerator(db),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction, where wrapping the SessionContext would break session
// semantics.
func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoReservationRepository) NextID(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	return r.sequences.Next(ctx, SequenceName)
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reservation.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id int64) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var reservation model.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &reservation, nil
}

func (r *mongoReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) FindByUser(ctx context.Context, userID int64, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations for user: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	return count, nil
}

// UpdateStatusIf applies the status change only when the document still
// carries the expected current status. False means another writer moved
// the reservation first.
func (r *mongoReservationRepository) UpdateStatusIf(ctx context.Context, id int64, from, to string, extra bson.M) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{"status": to}
	for k, v := range extra {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update reservation status: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoReservationRepository) SetBlockchainTxHash(ctx context.Context, id int64, hash string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"blockchain_tx_hash": hash}},
	)
	if err != nil {
		return fmt.Errorf("failed to set blockchain tx hash: %w", err)
	}

	if result.MatchedCount == 0 {
		return reservationerrors.ErrNotFound
	}

	return nil
}

func (r *mongoReservationRepository) SetEscrowReleased(ctx context.Context, id int64, txHash string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"escrow_released":        true,
			"escrow_release_tx_hash": txHash,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set escrow released: %w", err)
	}

	if result.MatchedCount == 0 {
		return reservationerrors.ErrNotFound
	}

	return nil
}

// ExistsOverlappingForUser reports whether the user already holds a live
// reservation on the property intersecting the requested dates.
func (r *mongoReservationRepository) ExistsOverlappingForUser(ctx context.Context, userID, propertyID int64, dateStart, dateEnd time.Time, inclusive bool) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"user_id":     userID,
		"property_id": propertyID,
		"status": bson.M{"$in": []string{
			model.StatusPending,
			model.StatusConfirmed,
			model.StatusCheckedIn,
		}},
	}
	if inclusive {
		filter["check_in_date"] = bson.M{"$lte": dateEnd}
		filter["check_out_date"] = bson.M{"$gte": dateStart}
	} else {
		filter["check_in_date"] = bson.M{"$lt": dateEnd}
		filter["check_out_date"] = bson.M{"$gt": dateStart}
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate booking: %w", err)
	}

	return count > 0, nil
}

func (r *mongoReservationRepository) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.StatusPending,
		"created_at": bson.M{"$lt": olderThan},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale pending reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
