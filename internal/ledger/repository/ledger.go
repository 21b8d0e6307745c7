package repository

import (
	"context"
	"errors"
	"fmt"
	ledgererrors "reserva/internal/ledger/errors"
	"reserva/pkg/config"
	mongotx "reserva/pkg/db/mongo"
	"reserva/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Ledger_entries"

const SequenceName = "ledger_entries"

type LedgerRepository interface {
	Create(ctx context.Context, entry *model.LedgerEntry) error
	FindByID(ctx context.Context, id int64) (*model.LedgerEntry, error)
	FindByTransactionHash(ctx context.Context, hash string) (*model.LedgerEntry, error)
	FindByReservation(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error)
	FindByReservationAndType(ctx context.Context, reservationID int64, paymentType string) ([]*model.LedgerEntry, error)
	Confirm(ctx context.Context, id int64, hash string, blockNumber *int64, gasFeeEth *float64) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoLedgerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	sequences  mongotx.SequenceGenerator
	txManager  mongotx.TransactionManager
}

func NewLedgerRepository(cfg *config.Config) LedgerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLedgerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		sequences:  mongotx.NewSequenceGenerator(db),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoLedgerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoLedgerRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if entry.ID == 0 {
		id, err := r.sequences.Next(ctx, SequenceName)
		if err != nil {
			return err
		}
		entry.ID = id
	}

	entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *mongoLedgerRepository) FindByID(ctx context.Context, id int64) (*model.LedgerEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var entry model.LedgerEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledgererrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *mongoLedgerRepository) FindByTransactionHash(ctx context.Context, hash string) (*model.LedgerEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var entry model.LedgerEntry
	err := r.collection.FindOne(ctx, bson.M{"transaction_hash": hash}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledgererrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ledger entry by hash: %w", err)
	}
	return &entry, nil
}

func (r *mongoLedgerRepository) FindByReservation(ctx context.Context, reservationID int64) ([]*model.LedgerEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx,
		bson.M{"reservation_id": reservationID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.LedgerEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}

func (r *mongoLedgerRepository) FindByReservationAndType(ctx context.Context, reservationID int64, paymentType string) ([]*model.LedgerEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx,
		bson.M{"reservation_id": reservationID, "payment_type": paymentType},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.LedgerEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}

// Confirm stamps the hash and on-chain metadata. The unique sparse index
// on transaction_hash surfaces hash reuse as a duplicate key error.
func (r *mongoLedgerRepository) Confirm(ctx context.Context, id int64, hash string, blockNumber *int64, gasFeeEth *float64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{
		"payment_status":   model.PaymentStatusConfirmed,
		"transaction_hash": hash,
		"confirmed_at":     now,
	}
	if blockNumber != nil {
		set["block_number"] = *blockNumber
	}
	if gasFeeEth != nil {
		set["gas_fee_eth"] = *gasFeeEth
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledgererrors.ErrHashReused
		}
		return fmt.Errorf("failed to confirm ledger entry: %w", err)
	}

	if result.MatchedCount == 0 {
		return ledgererrors.ErrNotFound
	}

	return nil
}

func (r *mongoLedgerRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry status: %w", err)
	}

	if result.MatchedCount == 0 {
		return ledgererrors.ErrNotFound
	}

	return nil
}

func (r *mongoLedgerRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
