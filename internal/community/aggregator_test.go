package community_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgdevment/spamguard/internal/community"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/platform/storage/memory"
)

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func newAggregator(opts ...community.Option) *community.Aggregator {
	opts = append([]community.Option{community.WithClock(fixedClock(time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)))}, opts...)
	return community.NewAggregator(memory.NewAggregateStore(), zerolog.Nop(), opts...)
}

func TestThreeDistinctScamReports(t *testing.T) {
	ctx := context.Background()
	agg := newAggregator()
	phone := "+905012345678"

	for _, reporter := range []string{"r1", "r2", "r3"} {
		_, err := agg.RecordReport(ctx, community.Report{PhoneNumber: phone, Category: domain.ReportScam, ReporterID: reporter})
		require.NoError(t, err)
	}

	stats, err := agg.GetStats(ctx, phone)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalReports)
	assert.Equal(t, 30, stats.SpamScore)
	assert.True(t, stats.IsSpam)
	assert.Equal(t, 3, stats.UniqueReporters)
	assert.Equal(t, []domain.CategoryCount{{Category: domain.ReportScam, Count: 3}}, stats.TopCategories)
}

func TestApplyFoldsReport(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	first := community.Apply(nil, community.Report{PhoneNumber: "+1", Category: domain.ReportBetting, ReporterID: "a", CallerName: " Bet Co "}, t0)
	assert.Equal(t, 1, first.TotalReports)
	assert.Equal(t, 10, first.SpamScore)
	assert.Equal(t, map[domain.ReportCategory]int{domain.ReportBetting: 1}, first.Categories)
	assert.Equal(t, []string{"Bet Co"}, first.CallerNames)
	assert.Equal(t, t0, first.FirstReported)

	second := community.Apply(first, community.Report{PhoneNumber: "+1", Category: domain.ReportScam, ReporterID: "a", CallerName: "Bet Co"}, t1)
	assert.Equal(t, 2, second.TotalReports, "repeat reporter still counts")
	assert.Equal(t, 1, second.UniqueReporters(), "reporter set dedups")
	assert.Equal(t, []string{"Bet Co"}, second.CallerNames)
	assert.Equal(t, t0, second.FirstReported)
	assert.Equal(t, t1, second.LastReported)
	assert.Equal(t, 1, second.Categories[domain.ReportScam])

	assert.Equal(t, 1, first.TotalReports, "input left untouched")
	assert.Len(t, first.Categories, 1)
}

func TestScoreIsMonotonicAndCapped(t *testing.T) {
	ctx := context.Background()
	agg := newAggregator()
	prev := 0

	for i := 1; i <= 14; i++ {
		out, err := agg.RecordReport(ctx, community.Report{PhoneNumber: "+12015550123", Category: domain.ReportRobocall, ReporterID: fmt.Sprintf("u%d", i)})
		require.NoError(t, err)

		want := i * 10
		if want > 100 {
			want = 100
		}
		assert.Equal(t, want, out.SpamScore)
		assert.GreaterOrEqual(t, out.SpamScore, prev)
		prev = out.SpamScore
	}
}

func TestConcurrentReportsAreNotLost(t *testing.T) {
	ctx := context.Background()
	const workers = 32

	var retries atomic.Int64
	agg := newAggregator(
		community.WithMaxAttempts(workers+1),
		community.WithRetryHook(func() { retries.Add(1) }),
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := agg.RecordReport(ctx, community.Report{
				PhoneNumber: "+905012345678",
				Category:    domain.ReportBetting,
				ReporterID:  fmt.Sprintf("user-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := agg.GetStats(ctx, "+905012345678")
	require.NoError(t, err)
	assert.Equal(t, workers, stats.TotalReports)
	assert.Equal(t, workers, stats.UniqueReporters)
	assert.Equal(t, 100, stats.SpamScore)
	assert.Equal(t, workers, stats.TopCategories[0].Count)
}

func TestGetStatsUnknownAndIdempotent(t *testing.T) {
	ctx := context.Background()
	agg := newAggregator()

	empty, err := agg.GetStats(ctx, "+10000000000")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyPhoneStats("+10000000000"), empty)
	assert.False(t, empty.IsSpam)

	_, err = agg.RecordReport(ctx, community.Report{PhoneNumber: "+1", Category: domain.ReportFraud, ReporterID: "x", CallerName: "ACME"})
	require.NoError(t, err)

	a, err := agg.GetStats(ctx, "+1")
	require.NoError(t, err)
	b, err := agg.GetStats(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTopCategoriesOrdering(t *testing.T) {
	ctx := context.Background()
	agg := newAggregator()

	cats := []domain.ReportCategory{
		domain.ReportScam, domain.ReportScam, domain.ReportScam,
		domain.ReportPhishing, domain.ReportPhishing,
		domain.ReportBetting, domain.ReportBetting,
		domain.ReportOther,
	}
	for i, c := range cats {
		_, err := agg.RecordReport(ctx, community.Report{PhoneNumber: "+1", Category: c, ReporterID: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	stats, err := agg.GetStats(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryCount{
		{Category: domain.ReportScam, Count: 3},
		{Category: domain.ReportBetting, Count: 2},
		{Category: domain.ReportPhishing, Count: 2},
	}, stats.TopCategories)
}

func TestGetTopSpam(t *testing.T) {
	ctx := context.Background()
	agg := newAggregator()

	counts := map[string]int{"+1001": 1, "+1002": 3, "+1003": 5, "+1004": 3}
	for phone, n := range counts {
		for i := 0; i < n; i++ {
			_, err := agg.RecordReport(ctx, community.Report{PhoneNumber: phone, Category: domain.ReportScam, ReporterID: fmt.Sprint(i)})
			require.NoError(t, err)
		}
	}

	cases := []struct {
		Name       string
		Limit      int
		MinReports int
		Expected   []string
		// +1002 and +1004 tie on score and count; recency decides.
		Unordered bool
	}{
		{"limit one with min three", 1, 3, []string{"+1003"}, false},
		{"min three excludes singles", 10, 3, []string{"+1003", "+1002", "+1004"}, true},
		{"everything", 10, 1, []string{"+1003", "+1002", "+1004", "+1001"}, true},
		{"nothing qualifies", 10, 6, []string{}, false},
		{"zero limit", 0, 1, []string{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			top, err := agg.GetTopSpam(ctx, tc.Limit, tc.MinReports)
			require.NoError(t, err)

			got := []string{}
			for _, s := range top {
				assert.GreaterOrEqual(t, s.TotalReports, tc.MinReports)
				got = append(got, s.PhoneNumber)
			}
			if tc.Unordered {
				assert.ElementsMatch(t, tc.Expected, got)
				assert.Equal(t, tc.Expected[0], got[0])
				return
			}
			assert.Equal(t, tc.Expected, got)
		})
	}
}

func TestSetVerified(t *testing.T) {
	ctx := context.Background()
	agg := newAggregator()

	_, err := agg.SetVerified(ctx, "+1", true)
	assert.ErrorIs(t, err, community.ErrNotFound)

	_, err = agg.RecordReport(ctx, community.Report{PhoneNumber: "+1", Category: domain.ReportScam, ReporterID: "a"})
	require.NoError(t, err)

	out, err := agg.SetVerified(ctx, "+1", true)
	require.NoError(t, err)
	assert.True(t, out.IsVerified)
	assert.Equal(t, int64(2), out.Version)

	stats, err := agg.GetStats(ctx, "+1")
	require.NoError(t, err)
	assert.True(t, stats.IsVerified)
	assert.Equal(t, 1, stats.TotalReports)
}

// raceStore always loses the swap, to exercise the retry budget.
type raceStore struct {
	*memory.AggregateStore
}

func (raceStore) Swap(context.Context, *domain.CommunityAggregate, int64) (bool, error) {
	return false, nil
}

func TestContentionGivesUp(t *testing.T) {
	ctx := context.Background()
	store := raceStore{memory.NewAggregateStore()}
	var retries int
	agg := community.NewAggregator(store, zerolog.Nop(),
		community.WithMaxAttempts(3),
		community.WithRetryHook(func() { retries++ }))

	_, err := agg.RecordReport(ctx, community.Report{PhoneNumber: "+1", Category: domain.ReportScam, ReporterID: "a"})
	require.NoError(t, err, "first report creates")

	_, err = agg.RecordReport(ctx, community.Report{PhoneNumber: "+1", Category: domain.ReportScam, ReporterID: "b"})
	assert.True(t, errors.Is(err, community.ErrContention))
	assert.Equal(t, 2, retries)
}

func TestUniqueReportRejectsCountedReporter(t *testing.T) {
	ctx := context.Background()
	agg := newAggregator()
	phone := "+905012345678"

	seen, err := agg.HasReporter(ctx, phone, "r1")
	require.NoError(t, err)
	assert.False(t, seen, "unknown number")

	_, err = agg.RecordReport(ctx, community.Report{PhoneNumber: phone, Category: domain.ReportScam, ReporterID: "r1", Unique: true})
	require.NoError(t, err)

	seen, err = agg.HasReporter(ctx, phone, "r1")
	require.NoError(t, err)
	assert.True(t, seen)

	_, err = agg.RecordReport(ctx, community.Report{PhoneNumber: phone, Category: domain.ReportFraud, ReporterID: "r1", Unique: true})
	assert.ErrorIs(t, err, community.ErrDuplicateReporter)

	_, err = agg.RecordReport(ctx, community.Report{PhoneNumber: phone, Category: domain.ReportFraud, ReporterID: "r1"})
	require.NoError(t, err, "non-unique reports still fold in")

	stats, err := agg.GetStats(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReports)
	assert.Equal(t, 1, stats.UniqueReporters)
}
