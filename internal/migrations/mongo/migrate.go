package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reserva/internal/migrations/mongo/validators"
)

const (
	DB_NAME = "reserva"
)

var (
	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "property_id", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "created_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	StatusHistoryIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "reservation_id", Value: 1},
			{Key: "changed_at", Value: 1},
		}},
	}

	AvailabilityBlocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "property_id", Value: 1},
			{Key: "retired", Value: 1},
			{Key: "date_start", Value: 1},
			{Key: "date_end", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "reservation_id", Value: 1},
			{Key: "retired", Value: 1},
		}},
	}

	// Advisory locks evaporate on their own if a crash leaves one behind.
	PropertyLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	LedgerEntriesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "reservation_id", Value: 1},
			{Key: "payment_type", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "transaction_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	OutboxEventsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "published_at", Value: 1},
			{Key: "created_at", Value: 1},
		}},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client) error {
	db := client.Database(DB_NAME)
	fmt.Printf("🚀 Running Reserva Mongo migrations on database: %s\n", DB_NAME)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Reservations": {
			Indexes:   ReservationsIndexes,
			Validator: validators.ReservationValidator,
		},
		"Reservation_status_history": {
			Indexes: StatusHistoryIndexes,
		},
		"Availability_blocks": {
			Indexes:   AvailabilityBlocksIndexes,
			Validator: validators.AvailabilityBlockValidator,
		},
		"Property_locks": {
			Indexes: PropertyLocksIndexes,
		},
		"Ledger_entries": {
			Indexes:   LedgerEntriesIndexes,
			Validator: validators.LedgerEntryValidator,
		},
		"Outbox_events": {
			Indexes: OutboxEventsIndexes,
		},
		"Processed_events": {},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts = opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else if validator != nil {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
