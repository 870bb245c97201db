package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/community"
	"github.com/rgdevment/spamguard/internal/domain"
)

const aggregateColumns = `phone_number, total_reports, spam_score, categories, reporter_ids,
	caller_names, first_reported, last_reported, is_verified, version`

// aggregateRepository stores one row per phone number and relies on
// lightweight transactions for every write.
type aggregateRepository struct {
	session *gocql.Session
}

func NewAggregateRepository(session *gocql.Session) community.Store {
	return &aggregateRepository{
		session: session,
	}
}

func Connect(log zerolog.Logger, keyspace string, hosts ...string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.ProtoVersion = 4
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to scylla: %w", err)
	}

	log.Info().Strs("hosts", hosts).Str("keyspace", keyspace).Msg("connected to scylla")
	return session, nil
}

// row is the scan target for one aggregate.
type row struct {
	phone       string
	total       int
	score       int
	categories  map[string]int
	reporters   []string
	callerNames []string
	first, last time.Time
	isVerified  bool
	version     int64
}

func (r *row) dest() []interface{} {
	return []interface{}{
		&r.phone, &r.total, &r.score, &r.categories, &r.reporters,
		&r.callerNames, &r.first, &r.last, &r.isVerified, &r.version,
	}
}

func (r *row) aggregate() *domain.CommunityAggregate {
	agg := &domain.CommunityAggregate{
		PhoneNumber:   r.phone,
		TotalReports:  r.total,
		SpamScore:     r.score,
		Categories:    make(map[domain.ReportCategory]int, len(r.categories)),
		ReporterIDs:   make(map[string]struct{}, len(r.reporters)),
		CallerNames:   append([]string{}, r.callerNames...),
		FirstReported: r.first.UTC(),
		LastReported:  r.last.UTC(),
		IsVerified:    r.isVerified,
		Version:       r.version,
	}
	for k, v := range r.categories {
		agg.Categories[domain.ReportCategory(k)] = v
	}
	for _, id := range r.reporters {
		agg.ReporterIDs[id] = struct{}{}
	}
	return agg
}

func categoriesOf(agg *domain.CommunityAggregate) map[string]int {
	out := make(map[string]int, len(agg.Categories))
	for k, v := range agg.Categories {
		out[string(k)] = v
	}
	return out
}

func reportersOf(agg *domain.CommunityAggregate) []string {
	out := make([]string, 0, len(agg.ReporterIDs))
	for id := range agg.ReporterIDs {
		out = append(out, id)
	}
	return out
}

func (r *aggregateRepository) Get(ctx context.Context, phone string) (*domain.CommunityAggregate, error) {
	query := `SELECT ` + aggregateColumns + ` FROM community_aggregates WHERE phone_number = ?`

	var rw row
	err := r.session.Query(query, phone).WithContext(ctx).Scan(rw.dest()...)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scylla: failed to get aggregate: %w", err)
	}
	return rw.aggregate(), nil
}

func (r *aggregateRepository) Create(ctx context.Context, agg *domain.CommunityAggregate) (bool, error) {
	query := `
        INSERT INTO community_aggregates (` + aggregateColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`

	applied, err := r.session.Query(query,
		agg.PhoneNumber,
		agg.TotalReports,
		agg.SpamScore,
		categoriesOf(agg),
		reportersOf(agg),
		agg.CallerNames,
		agg.FirstReported,
		agg.LastReported,
		agg.IsVerified,
		agg.Version,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, fmt.Errorf("scylla: failed to create aggregate: %w", err)
	}
	return applied, nil
}

func (r *aggregateRepository) Swap(ctx context.Context, agg *domain.CommunityAggregate, expected int64) (bool, error) {
	query := `
        UPDATE community_aggregates
        SET total_reports = ?,
            spam_score = ?,
            categories = ?,
            reporter_ids = ?,
            caller_names = ?,
            last_reported = ?,
            is_verified = ?,
            version = ?
        WHERE phone_number = ?
        IF version = ?`

	applied, err := r.session.Query(query,
		agg.TotalReports,
		agg.SpamScore,
		categoriesOf(agg),
		reportersOf(agg),
		agg.CallerNames,
		agg.LastReported,
		agg.IsVerified,
		agg.Version,
		agg.PhoneNumber,
		expected,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, fmt.Errorf("scylla: failed to swap aggregate: %w", err)
	}
	return applied, nil
}

// List scans the table. Ranking is small-table work done by the caller;
// a materialized ranking table is the next step if this grows.
func (r *aggregateRepository) List(ctx context.Context, minReports int) ([]*domain.CommunityAggregate, error) {
	query := `SELECT ` + aggregateColumns + ` FROM community_aggregates
	          WHERE total_reports >= ? ALLOW FILTERING`

	scanner := r.session.Query(query, minReports).WithContext(ctx).Iter().Scanner()

	var out []*domain.CommunityAggregate
	for scanner.Next() {
		var rw row
		if err := scanner.Scan(rw.dest()...); err != nil {
			return nil, fmt.Errorf("scylla: failed to scan aggregate: %w", err)
		}
		out = append(out, rw.aggregate())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scylla: failed to iterate aggregates: %w", err)
	}
	return out, nil
}
