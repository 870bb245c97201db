package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/apperr"
	"github.com/rgdevment/spamguard/internal/community"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/phone"
)

var errReportLogMissing = errors.New("report log not configured")

const (
	maxReasonLength     = 500
	maxCallerNameLength = 100
	MaxTopSpamLimit     = 100
	discardTimeout      = 5 * time.Second
)

// ReportRecorder counts accepted reports.
type ReportRecorder interface {
	ReportAccepted(category string)
}

type nopReportRecorder struct{}

func (nopReportRecorder) ReportAccepted(string) {}

// reportService is the concrete implementation of ReportService.
// It is unexported to force usage of the interface.
type reportService struct {
	reports    ReportRepository
	aggregator *community.Aggregator
	cache      StatsCache
	recorder   ReportRecorder
	saltSecret string
	log        zerolog.Logger
}

// NewReportService wires the report log, the aggregator and the stats
// cache. cache and recorder may be nil; so may reports for callers that
// only read or moderate.
func NewReportService(reports ReportRepository, aggregator *community.Aggregator, cache StatsCache, recorder ReportRecorder, salt string, log zerolog.Logger) ReportService {
	if cache == nil {
		cache = noCache{}
	}
	if recorder == nil {
		recorder = nopReportRecorder{}
	}
	return &reportService{
		reports:    reports,
		aggregator: aggregator,
		cache:      cache,
		recorder:   recorder,
		saltSecret: salt,
		log:        log,
	}
}

// hashReporter keeps raw user ids out of the report log and the aggregate.
func (s *reportService) hashReporter(reporterID string) string {
	mac := hmac.New(sha256.New, []byte(s.saltSecret))
	mac.Write([]byte(reporterID))
	return hex.EncodeToString(mac.Sum(nil))
}

func parsePhone(raw, country string) (*phone.Number, error) {
	num, err := phone.Parse(raw, country)
	if err != nil {
		if phone.IsInputError(err) {
			return nil, apperr.InvalidInput("phone_number", err.Error())
		}
		return nil, apperr.Internal(err)
	}
	return num, nil
}

func mapAggregateError(op string, err error) error {
	switch {
	case errors.Is(err, community.ErrContention):
		return apperr.Contention(err)
	case errors.Is(err, community.ErrNotFound):
		return apperr.NotFound("phone number")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Internal(err)
	}
	return apperr.Database(op, err)
}

// IngestReport validates, deduplicates and records one report. The
// aggregate's reporter set decides duplicates. The log entry is written
// first and removed again when the aggregate write fails, so a report
// rejected with a retryable error can be resubmitted.
func (s *reportService) IngestReport(ctx context.Context, reporterID string, in ReportInput) (*domain.SpamReport, error) {
	reporterID = strings.TrimSpace(reporterID)
	if reporterID == "" {
		return nil, apperr.Unauthorized("missing reporter identity")
	}
	if s.reports == nil {
		return nil, apperr.Internal(errReportLogMissing)
	}

	cat, ok := domain.ParseReportCategory(in.Category)
	if !ok {
		return nil, apperr.InvalidInput("category", "unknown report category")
	}
	num, err := parsePhone(in.PhoneNumber, in.CountryCode)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, apperr.InvalidInput("reason", "must be at most 500 characters")
	}
	callerName := strings.TrimSpace(in.CallerName)
	if utf8.RuneCountInString(callerName) > maxCallerNameLength {
		return nil, apperr.InvalidInput("caller_name", "must be at most 100 characters")
	}

	hash := s.hashReporter(reporterID)

	seen, err := s.aggregator.HasReporter(ctx, num.E164, hash)
	if err != nil {
		return nil, mapAggregateError("check duplicate report", err)
	}
	if seen {
		return nil, apperr.DuplicateReport(num.E164)
	}

	report := domain.NewSpamReport(num.E164, cat, reason, callerName, hash)
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, apperr.Database("save report", err)
	}

	agg, err := s.aggregator.RecordReport(ctx, community.Report{
		PhoneNumber: num.E164,
		Category:    cat,
		ReporterID:  hash,
		CallerName:  callerName,
		Unique:      true,
	})
	if err != nil {
		s.discardReport(ctx, report)
		if errors.Is(err, community.ErrDuplicateReporter) {
			return nil, apperr.DuplicateReport(num.E164)
		}
		s.log.Error().Err(err).Str("phone", num.E164).Str("report_id", report.ID.String()).Msg("aggregate update failed, report withdrawn")
		return nil, mapAggregateError("record report", err)
	}

	s.cache.Invalidate(ctx, num.E164)
	s.recorder.ReportAccepted(string(cat))
	s.log.Info().
		Str("phone", num.E164).
		Str("category", string(cat)).
		Int("total_reports", agg.TotalReports).
		Int("spam_score", agg.SpamScore).
		Msg("report recorded")
	return report, nil
}

// discardReport removes a log entry whose aggregate write did not land.
// It runs on a fresh context because ctx may be the reason the write failed.
func (s *reportService) discardReport(ctx context.Context, report *domain.SpamReport) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := s.reports.Delete(ctx, report.ID); err != nil {
		s.log.Error().Err(err).Str("report_id", report.ID.String()).Msg("failed to withdraw report log entry")
	}
}

// UserReports pages through the reports reporterID submitted, newest first.
func (s *reportService) UserReports(ctx context.Context, reporterID string, limit, offset int) (*ReportPage, error) {
	reporterID = strings.TrimSpace(reporterID)
	if reporterID == "" {
		return nil, apperr.Unauthorized("missing reporter identity")
	}
	if s.reports == nil {
		return nil, apperr.Internal(errReportLogMissing)
	}
	limit, offset, err := pageBounds(limit, offset)
	if err != nil {
		return nil, err
	}

	reports, total, err := s.reports.ListByReporter(ctx, s.hashReporter(reporterID), limit, offset)
	if err != nil {
		return nil, apperr.Database("list reports", err)
	}
	return &ReportPage{Reports: reports, Total: total, Limit: limit, Offset: offset}, nil
}

// CheckRisk reads through the cache. Unknown numbers yield zero stats.
func (s *reportService) CheckRisk(ctx context.Context, phoneNumber, countryCode string) (*domain.PhoneStats, error) {
	num, err := parsePhone(phoneNumber, countryCode)
	if err != nil {
		return nil, err
	}

	if stats, ok := s.cache.Get(ctx, num.E164); ok {
		return stats, nil
	}

	stats, err := s.aggregator.GetStats(ctx, num.E164)
	if err != nil {
		return nil, mapAggregateError("get stats", err)
	}
	s.cache.Set(ctx, stats)
	return stats, nil
}

func (s *reportService) TopSpam(ctx context.Context, limit, minReports int) ([]*domain.PhoneStats, error) {
	if limit < 1 || limit > MaxTopSpamLimit {
		return nil, apperr.InvalidInput("limit", "must be between 1 and 100")
	}
	if minReports < 0 {
		return nil, apperr.InvalidInput("min_reports", "must not be negative")
	}

	top, err := s.aggregator.GetTopSpam(ctx, limit, minReports)
	if err != nil {
		return nil, mapAggregateError("top spam", err)
	}
	return top, nil
}

// SetVerified is the moderation hook used by the worker CLI.
func (s *reportService) SetVerified(ctx context.Context, phoneNumber string, verified bool) (*domain.PhoneStats, error) {
	num, err := parsePhone(phoneNumber, "")
	if err != nil {
		return nil, err
	}

	agg, err := s.aggregator.SetVerified(ctx, num.E164, verified)
	if err != nil {
		return nil, mapAggregateError("set verified", err)
	}
	s.cache.Invalidate(ctx, num.E164)
	s.log.Info().Str("phone", num.E164).Bool("verified", verified).Msg("moderation flag updated")
	return community.StatsOf(agg), nil
}
