package community

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/domain"
)

const (
	// DefaultMaxAttempts bounds the compare-and-swap loop when no
	// WithMaxAttempts option is given.
	DefaultMaxAttempts = 10
	baseBackoff        = 2 * time.Millisecond
)

// Report is one community report as the aggregator sees it. ReporterID is
// whatever identity the caller wants deduplicated, usually a salted hash.
type Report struct {
	PhoneNumber string
	Category    domain.ReportCategory
	ReporterID  string
	CallerName  string

	// Unique makes RecordReport fail with ErrDuplicateReporter instead of
	// counting a second report from a ReporterID already in the set.
	Unique bool
}

// Aggregator maintains per-number reputation on top of a conditional Store.
// Every write is a read, pure transform, conditional write loop, so two
// reports on the same number never overwrite each other.
type Aggregator struct {
	store       Store
	log         zerolog.Logger
	now         func() time.Time
	maxAttempts int
	onRetry     func()
}

// Option configures an Aggregator at construction time.
type Option func(*Aggregator)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithMaxAttempts bounds the compare-and-swap loop.
func WithMaxAttempts(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithRetryHook is called once per lost race.
func WithRetryHook(fn func()) Option {
	return func(a *Aggregator) { a.onRetry = fn }
}

func NewAggregator(store Store, log zerolog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:       store,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		maxAttempts: DefaultMaxAttempts,
		onRetry:     func() {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply folds one report into the current aggregate and returns the new
// one. current is never modified; nil means the number was never reported.
func Apply(current *domain.CommunityAggregate, r Report, now time.Time) *domain.CommunityAggregate {
	if current == nil {
		agg := &domain.CommunityAggregate{
			PhoneNumber:   r.PhoneNumber,
			TotalReports:  1,
			SpamScore:     domain.ScoreFor(1),
			Categories:    map[domain.ReportCategory]int{r.Category: 1},
			ReporterIDs:   map[string]struct{}{},
			CallerNames:   []string{},
			FirstReported: now,
			LastReported:  now,
		}
		if r.ReporterID != "" {
			agg.ReporterIDs[r.ReporterID] = struct{}{}
		}
		if name := strings.TrimSpace(r.CallerName); name != "" {
			agg.CallerNames = append(agg.CallerNames, name)
		}
		return agg
	}

	next := current.Clone()
	next.TotalReports++
	next.Categories[r.Category]++
	if r.ReporterID != "" {
		next.ReporterIDs[r.ReporterID] = struct{}{}
	}
	if name := strings.TrimSpace(r.CallerName); name != "" && !containsName(next.CallerNames, name) {
		next.CallerNames = append(next.CallerNames, name)
	}
	next.SpamScore = domain.ScoreFor(next.TotalReports)
	next.LastReported = now
	return next
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// RecordReport applies r atomically and returns the stored aggregate.
func (a *Aggregator) RecordReport(ctx context.Context, r Report) (*domain.CommunityAggregate, error) {
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	return a.update(ctx, r.PhoneNumber, true, func(cur *domain.CommunityAggregate) (*domain.CommunityAggregate, error) {
		if r.Unique && cur != nil && r.ReporterID != "" {
			if _, seen := cur.ReporterIDs[r.ReporterID]; seen {
				return nil, ErrDuplicateReporter
			}
		}
		return Apply(cur, r, a.now()), nil
	})
}

// HasReporter reports whether reporterID already counted towards phone.
func (a *Aggregator) HasReporter(ctx context.Context, phone, reporterID string) (bool, error) {
	agg, err := a.store.Get(ctx, strings.TrimSpace(phone))
	if err != nil || agg == nil {
		return false, err
	}
	_, ok := agg.ReporterIDs[reporterID]
	return ok, nil
}

// SetVerified flips the moderation flag on an existing aggregate.
func (a *Aggregator) SetVerified(ctx context.Context, phone string, verified bool) (*domain.CommunityAggregate, error) {
	return a.update(ctx, strings.TrimSpace(phone), false, func(cur *domain.CommunityAggregate) (*domain.CommunityAggregate, error) {
		next := cur.Clone()
		next.IsVerified = verified
		return next, nil
	})
}

func (a *Aggregator) update(ctx context.Context, phone string, create bool, fn func(*domain.CommunityAggregate) (*domain.CommunityAggregate, error)) (*domain.CommunityAggregate, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if attempt > 0 {
			a.onRetry()
			if err := sleepCtx(ctx, backoff(attempt)); err != nil {
				return nil, err
			}
		}

		cur, err := a.store.Get(ctx, phone)
		if err != nil {
			return nil, err
		}
		if cur == nil && !create {
			return nil, ErrNotFound
		}

		next, err := fn(cur)
		if err != nil {
			return nil, err
		}
		var applied bool
		if cur == nil {
			next.Version = 1
			applied, err = a.store.Create(ctx, next)
		} else {
			next.Version = cur.Version + 1
			applied, err = a.store.Swap(ctx, next, cur.Version)
		}
		if err != nil {
			return nil, err
		}
		if applied {
			return next, nil
		}
		a.log.Debug().Str("phone", phone).Int("attempt", attempt+1).Msg("aggregate write lost race, retrying")
	}

	a.log.Warn().Str("phone", phone).Int("attempts", a.maxAttempts).Msg("aggregate update gave up")
	return nil, ErrContention
}

func backoff(attempt int) time.Duration {
	d := baseBackoff * time.Duration(attempt)
	return d + rand.N(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetStats never fails for an unknown number; it returns zero stats.
func (a *Aggregator) GetStats(ctx context.Context, phone string) (*domain.PhoneStats, error) {
	phone = strings.TrimSpace(phone)
	agg, err := a.store.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return domain.EmptyPhoneStats(phone), nil
	}
	return StatsOf(agg), nil
}

// GetTopSpam ranks numbers with at least minReports reports by score.
// Ties fall back to report count, then recency, then the number itself.
func (a *Aggregator) GetTopSpam(ctx context.Context, limit, minReports int) ([]*domain.PhoneStats, error) {
	if limit <= 0 {
		return []*domain.PhoneStats{}, nil
	}
	aggs, err := a.store.List(ctx, minReports)
	if err != nil {
		return nil, err
	}

	ranked := make([]*domain.CommunityAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.TotalReports >= minReports {
			ranked = append(ranked, agg)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		x, y := ranked[i], ranked[j]
		if x.SpamScore != y.SpamScore {
			return x.SpamScore > y.SpamScore
		}
		if x.TotalReports != y.TotalReports {
			return x.TotalReports > y.TotalReports
		}
		if !x.LastReported.Equal(y.LastReported) {
			return x.LastReported.After(y.LastReported)
		}
		return x.PhoneNumber < y.PhoneNumber
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]*domain.PhoneStats, 0, len(ranked))
	for _, agg := range ranked {
		out = append(out, StatsOf(agg))
	}
	return out, nil
}

// StatsOf projects an aggregate into its public read model.
func StatsOf(agg *domain.CommunityAggregate) *domain.PhoneStats {
	first, last := agg.FirstReported, agg.LastReported
	return &domain.PhoneStats{
		PhoneNumber:     agg.PhoneNumber,
		TotalReports:    agg.TotalReports,
		UniqueReporters: agg.UniqueReporters(),
		SpamScore:       agg.SpamScore,
		IsSpam:          agg.SpamScore >= domain.SpamScoreThreshold,
		TopCategories:   topCategories(agg.Categories, domain.TopCategoryCount),
		CallerNames:     append([]string{}, agg.CallerNames...),
		FirstReported:   &first,
		LastReported:    &last,
		IsVerified:      agg.IsVerified,
	}
}

func topCategories(hist map[domain.ReportCategory]int, n int) []domain.CategoryCount {
	out := make([]domain.CategoryCount, 0, len(hist))
	for cat, count := range hist {
		out = append(out, domain.CategoryCount{Category: cat, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
