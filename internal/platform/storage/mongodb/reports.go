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

// ReportRepository is the community report log.
type ReportRepository struct {
	collection *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{collection: db.Collection(collectionReports)}
}

type reportDocument struct {
	ID          string    `bson:"id"`
	PhoneNumber string    `bson:"phone_number"`
	Category    string    `bson:"category"`
	Reason      string    `bson:"reason,omitempty"`
	CallerName  string    `bson:"caller_name,omitempty"`
	ReportedBy  string    `bson:"reported_by"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d *reportDocument) toEntity() (*domain.SpamReport, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt report id %q: %w", d.ID, err)
	}
	return &domain.SpamReport{
		ID:          id,
		PhoneNumber: d.PhoneNumber,
		Category:    domain.ReportCategory(d.Category),
		Reason:      d.Reason,
		CallerName:  d.CallerName,
		ReportedBy:  d.ReportedBy,
		CreatedAt:   d.CreatedAt.UTC(),
	}, nil
}

func reporterFilter(reporterHash string) bson.M {
	return bson.M{"reported_by": reporterHash}
}

func reportByID(id uuid.UUID) bson.M {
	return bson.M{"id": id.String()}
}

func (r *ReportRepository) Save(ctx context.Context, rep *domain.SpamReport) error {
	doc := reportDocument{
		ID:          rep.ID.String(),
		PhoneNumber: rep.PhoneNumber,
		Category:    string(rep.Category),
		Reason:      rep.Reason,
		CallerName:  rep.CallerName,
		ReportedBy:  rep.ReportedBy,
		CreatedAt:   rep.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.collection.DeleteOne(ctx, reportByID(id)); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

func (r *ReportRepository) ListByReporter(ctx context.Context, reporterHash string, limit, offset int) ([]*domain.SpamReport, int64, error) {
	filter := reporterFilter(reporterHash)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []*domain.SpamReport{}
	for cursor.Next(ctx) {
		var doc reportDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode report: %w", err)
		}
		rep, err := doc.toEntity()
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, rep)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, total, nil
}
