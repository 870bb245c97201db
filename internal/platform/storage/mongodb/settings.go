package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rgdevment/spamguard/internal/domain"
)

// SettingsRepository keeps exactly one settings document per user.
type SettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{collection: db.Collection(collectionSettings)}
}

func settingsFilter(userID string) bson.M {
	return bson.M{"user_id": userID}
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	var s domain.UserSettings
	err := r.collection.FindOne(ctx, settingsFilter(userID)).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if s.Whitelist == nil {
		s.Whitelist = []domain.WhitelistEntry{}
	}
	if s.Blacklist == nil {
		s.Blacklist = []domain.BlacklistEntry{}
	}
	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *domain.UserSettings) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, settingsFilter(s.UserID), s, opts); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
