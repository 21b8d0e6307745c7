package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const countersCollection = "counters"

// SequenceGenerator hands out monotonically increasing int64 identifiers
// backed by a counters collection, one document per sequence name.
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}

type mongoSequenceGenerator struct {
	collection *mongo.Collection
}

func NewSequenceGenerator(db *mongo.Database) SequenceGenerator {
	return &mongoSequenceGenerator{
		collection: db.Collection(countersCollection),
	}
}

func (g *mongoSequenceGenerator) Next(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}

	err := g.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %q: %w", name, err)
	}

	return counter.Value, nil
}
