package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rgdevment/spamguard/internal/domain"
)

// MessageRepository implements service.MessageRepository.
type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{collection: db.Collection(collectionMessages)}
}

type messageDocument struct {
	ID           string              `bson:"id"`
	UserID       string              `bson:"user_id"`
	Content      string              `bson:"content"`
	Sender       string              `bson:"sender,omitempty"`
	SenderPhone  string              `bson:"sender_phone,omitempty"`
	Source       string              `bson:"source"`
	Analysis     domain.SpamAnalysis `bson:"analysis"`
	IsBlocked    bool                `bson:"is_blocked"`
	UserFeedback *string             `bson:"user_feedback"`
	CreatedAt    time.Time           `bson:"created_at"`
}

func toMessageDocument(m *domain.Message) *messageDocument {
	doc := &messageDocument{
		ID:          m.ID.String(),
		UserID:      m.UserID,
		Content:     m.Content,
		Sender:      m.Sender,
		SenderPhone: m.SenderPhone,
		Source:      string(m.Source),
		Analysis:    m.Analysis,
		IsBlocked:   m.IsBlocked,
		CreatedAt:   m.CreatedAt,
	}
	if m.UserFeedback != nil {
		fb := string(*m.UserFeedback)
		doc.UserFeedback = &fb
	}
	return doc
}

func (d *messageDocument) toEntity() (*domain.Message, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt message id %q: %w", d.ID, err)
	}
	m := &domain.Message{
		ID:          id,
		UserID:      d.UserID,
		Content:     d.Content,
		Sender:      d.Sender,
		SenderPhone: d.SenderPhone,
		Source:      domain.Source(d.Source),
		Analysis:    d.Analysis,
		IsBlocked:   d.IsBlocked,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if m.Analysis.DetectedPatterns == nil {
		m.Analysis.DetectedPatterns = []string{}
	}
	if d.UserFeedback != nil {
		fb := domain.Feedback(*d.UserFeedback)
		m.UserFeedback = &fb
	}
	return m, nil
}

func ownedBy(userID string, id uuid.UUID) bson.M {
	return bson.M{"id": id.String(), "user_id": userID}
}

func historyFilter(userID string, f domain.MessageFilter) bson.M {
	filter := bson.M{"user_id": userID}
	if f.SpamOnly {
		filter["analysis.is_spam"] = true
	}
	return filter
}

func feedbackPipeline(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "user_feedback": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_feedback", "count": bson.M{"$sum": 1}}}},
	}
}

// statsPipeline computes the totals and the spam category histogram in one
// round trip.
func statsPipeline(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":     nil,
					"total":   bson.M{"$sum": 1},
					"spam":    bson.M{"$sum": bson.M{"$cond": bson.A{"$analysis.is_spam", 1, 0}}},
					"blocked": bson.M{"$sum": bson.M{"$cond": bson.A{"$is_blocked", 1, 0}}},
				}},
			},
			"categories": bson.A{
				bson.M{"$match": bson.M{"analysis.is_spam": true}},
				bson.M{"$group": bson.M{"_id": "$analysis.category", "count": bson.M{"$sum": 1}}},
			},
		}}},
	}
}

type statsFacet struct {
	Totals []struct {
		Total   int `bson:"total"`
		Spam    int `bson:"spam"`
		Blocked int `bson:"blocked"`
	} `bson:"totals"`
	Categories []struct {
		Category string `bson:"_id"`
		Count    int    `bson:"count"`
	} `bson:"categories"`
}

func (f *statsFacet) toStats() *domain.MessageStats {
	stats := &domain.MessageStats{SpamByCategory: map[domain.Category]int{}}
	if len(f.Totals) > 0 {
		t := f.Totals[0]
		stats.TotalAnalyzed = t.Total
		stats.TotalSpam = t.Spam
		stats.TotalSafe = t.Total - t.Spam
		stats.BlockedCount = t.Blocked
	}
	for _, c := range f.Categories {
		stats.SpamByCategory[domain.Category(c.Category)] = c.Count
	}
	return stats
}

func (r *MessageRepository) Save(ctx context.Context, m *domain.Message) error {
	if _, err := r.collection.InsertOne(ctx, toMessageDocument(m)); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *MessageRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Message, error) {
	var doc messageDocument
	err := r.collection.FindOne(ctx, ownedBy(userID, id)).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return doc.toEntity()
}

func (r *MessageRepository) List(ctx context.Context, userID string, f domain.MessageFilter, limit, offset int) ([]*domain.Message, int64, error) {
	filter := historyFilter(userID, f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []*domain.Message{}
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode message: %w", err)
		}
		m, err := doc.toEntity()
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, total, nil
}

func (r *MessageRepository) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, ownedBy(userID, id))
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MessageRepository) SetFeedback(ctx context.Context, userID string, id uuid.UUID, fb domain.Feedback) (bool, error) {
	update := bson.M{"$set": bson.M{"user_feedback": string(fb)}}
	res, err := r.collection.UpdateOne(ctx, ownedBy(userID, id), update)
	if err != nil {
		return false, fmt.Errorf("failed to set feedback: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MessageRepository) CountFeedback(ctx context.Context, userID string) (map[domain.Feedback]int, error) {
	cursor, err := r.collection.Aggregate(ctx, feedbackPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
	}
	defer cursor.Close(ctx)

	counts := map[domain.Feedback]int{}
	for cursor.Next(ctx) {
		var row struct {
			Feedback string `bson:"_id"`
			Count    int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode feedback count: %w", err)
		}
		counts[domain.Feedback(row.Feedback)] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback counts: %w", err)
	}
	return counts, nil
}

func (r *MessageRepository) Stats(ctx context.Context, userID string) (*domain.MessageStats, error) {
	cursor, err := r.collection.Aggregate(ctx, statsPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate message stats: %w", err)
	}
	defer cursor.Close(ctx)

	var facet statsFacet
	if cursor.Next(ctx) {
		if err := cursor.Decode(&facet); err != nil {
			return nil, fmt.Errorf("failed to decode message stats: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message stats: %w", err)
	}
	return facet.toStats(), nil
}
