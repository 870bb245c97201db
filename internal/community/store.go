package community

import (
	"context"
	"errors"

	"github.com/rgdevment/spamguard/internal/domain"
)

var (
	// ErrContention means the per-number update kept losing its
	// compare-and-swap race and gave up.
	ErrContention = errors.New("community: aggregate update contention")
	// ErrNotFound is returned by moderation calls on a number nobody reported.
	ErrNotFound = errors.New("community: aggregate not found")
	// ErrDuplicateReporter rejects a Unique report from a reporter the
	// aggregate already counted.
	ErrDuplicateReporter = errors.New("community: reporter already counted")
)

// Store persists aggregates keyed by normalized phone number.
//
// Writes are conditional: Create only succeeds when the key is absent and
// Swap only succeeds when the stored version still equals expected. Both
// report applied=false, not an error, when they lose the race.
type Store interface {
	// Get returns nil, nil when the number has no aggregate.
	Get(ctx context.Context, phone string) (*domain.CommunityAggregate, error)

	Create(ctx context.Context, agg *domain.CommunityAggregate) (bool, error)

	Swap(ctx context.Context, agg *domain.CommunityAggregate, expected int64) (bool, error)

	// List returns every aggregate with at least minReports reports, unordered.
	List(ctx context.Context, minReports int) ([]*domain.CommunityAggregate, error)
}
