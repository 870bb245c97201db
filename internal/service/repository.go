package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/rgdevment/spamguard/internal/domain"
)

// MessageRepository stores analyzed messages. Every call is scoped to the
// owning user; another user's id behaves like a missing message.
type MessageRepository interface {
	Save(ctx context.Context, m *domain.Message) error

	// Get returns nil, nil when the message does not exist for userID.
	Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Message, error)

	// List returns newest first plus the total count of messages matching f.
	List(ctx context.Context, userID string, f domain.MessageFilter, limit, offset int) ([]*domain.Message, int64, error)

	Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error)

	SetFeedback(ctx context.Context, userID string, id uuid.UUID, fb domain.Feedback) (bool, error)

	CountFeedback(ctx context.Context, userID string) (map[domain.Feedback]int, error)

	// Stats fills every MessageStats field except AccuracyFeedback.
	Stats(ctx context.Context, userID string) (*domain.MessageStats, error)
}

type SettingsRepository interface {
	// Get returns nil, nil for a user who never saved settings.
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)

	Save(ctx context.Context, s *domain.UserSettings) error
}

// ReportRepository is the community report log. Entries are only removed
// when the aggregate write they belong to did not land.
type ReportRepository interface {
	Save(ctx context.Context, r *domain.SpamReport) error

	Delete(ctx context.Context, id uuid.UUID) error

	// ListByReporter returns newest first plus the reporter's total.
	ListByReporter(ctx context.Context, reporterHash string, limit, offset int) ([]*domain.SpamReport, int64, error)
}

type CounterRepository interface {
	Increment(ctx context.Context, userID string, analyzed, blocked int64) error

	Get(ctx context.Context, userID string) (domain.UserCounters, error)
}

// StatsCache is a read-through cache in front of the aggregate store.
// Implementations may be lossy; a miss is never an error.
type StatsCache interface {
	Get(ctx context.Context, phoneNumber string) (*domain.PhoneStats, bool)

	Set(ctx context.Context, stats *domain.PhoneStats)

	Invalidate(ctx context.Context, phoneNumber string)
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*domain.PhoneStats, bool) { return nil, false }
func (noCache) Set(context.Context, *domain.PhoneStats)                {}
func (noCache) Invalidate(context.Context, string)                     {}
