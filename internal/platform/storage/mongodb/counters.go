package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rgdevment/spamguard/internal/domain"
)

// CounterRepository keeps lifetime per-user totals with server-side $inc.
type CounterRepository struct {
	collection *mongo.Collection
}

func NewCounterRepository(db *mongo.Database) *CounterRepository {
	return &CounterRepository{collection: db.Collection(collectionCounters)}
}

func counterFilter(userID string) bson.M {
	return bson.M{"user_id": userID}
}

// incrementUpdate never sets absolute values, so concurrent increments add up.
func incrementUpdate(analyzed, blocked int64) bson.M {
	return bson.M{"$inc": bson.M{
		"total_messages_analyzed": analyzed,
		"total_spam_blocked":      blocked,
	}}
}

func (r *CounterRepository) Increment(ctx context.Context, userID string, analyzed, blocked int64) error {
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, counterFilter(userID), incrementUpdate(analyzed, blocked), opts); err != nil {
		return fmt.Errorf("failed to increment counters: %w", err)
	}
	return nil
}

func (r *CounterRepository) Get(ctx context.Context, userID string) (domain.UserCounters, error) {
	var c domain.UserCounters
	err := r.collection.FindOne(ctx, counterFilter(userID)).Decode(&c)
	if err != nil && err != mongo.ErrNoDocuments {
		return domain.UserCounters{}, fmt.Errorf("failed to get counters: %w", err)
	}
	return c, nil
}
