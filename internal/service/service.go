package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/rgdevment/spamguard/internal/domain"
)

// AnalyzeInput is one message submitted for classification.
type AnalyzeInput struct {
	Content     string
	Sender      string
	SenderPhone string
	Source      domain.Source
}

// AnalyzeResult is the verdict plus the id of the stored message. Stored
// is false when the verdict could not be persisted.
type AnalyzeResult struct {
	MessageID   uuid.UUID           `json:"message_id"`
	Analysis    domain.SpamAnalysis `json:"analysis"`
	ShouldBlock bool                `json:"should_block"`
	Stored      bool                `json:"stored"`
}

type BulkAnalyzeResult struct {
	Total     int              `json:"total"`
	SpamCount int              `json:"spam_count"`
	SafeCount int              `json:"safe_count"`
	Results   []*AnalyzeResult `json:"results"`
}

type MessagePage struct {
	Messages []*domain.Message `json:"messages"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// AnalysisService classifies messages and keeps the user's history.
type AnalysisService interface {
	Analyze(ctx context.Context, userID string, in AnalyzeInput) (*AnalyzeResult, error)

	AnalyzeBulk(ctx context.Context, userID string, in []AnalyzeInput) (*BulkAnalyzeResult, error)

	ListMessages(ctx context.Context, userID string, f domain.MessageFilter, limit, offset int) (*MessagePage, error)

	GetMessage(ctx context.Context, userID string, id uuid.UUID) (*domain.Message, error)

	DeleteMessage(ctx context.Context, userID string, id uuid.UUID) error

	SubmitFeedback(ctx context.Context, userID string, id uuid.UUID, fb domain.Feedback) error

	FeedbackStats(ctx context.Context, userID string) (domain.FeedbackStats, error)

	MessageStats(ctx context.Context, userID string) (*domain.MessageStats, error)
}

// ReportInput is a user's spam report before hashing and normalization.
type ReportInput struct {
	PhoneNumber string
	CountryCode string
	Category    string
	Reason      string
	CallerName  string
}

type ReportPage struct {
	Reports []*domain.SpamReport `json:"reports"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// ReportService ingests community reports and answers reputation queries.
type ReportService interface {
	IngestReport(ctx context.Context, reporterID string, in ReportInput) (*domain.SpamReport, error)

	CheckRisk(ctx context.Context, phoneNumber, countryCode string) (*domain.PhoneStats, error)

	TopSpam(ctx context.Context, limit, minReports int) ([]*domain.PhoneStats, error)

	SetVerified(ctx context.Context, phoneNumber string, verified bool) (*domain.PhoneStats, error)

	// UserReports lists the reports reporterID submitted.
	UserReports(ctx context.Context, reporterID string, limit, offset int) (*ReportPage, error)
}

type LookupInput struct {
	PhoneNumber string
	CountryCode string
}

type BulkLookupResult struct {
	Results []*domain.CallerInfo `json:"results"`
	Failed  int                  `json:"failed"`
}

type LookupService interface {
	Lookup(ctx context.Context, in LookupInput) (*domain.CallerInfo, error)

	LookupBulk(ctx context.Context, in []LookupInput) (*BulkLookupResult, error)
}

type ListEntryInput struct {
	Value string
	Type  domain.EntryType
	Note  string
}

type SettingsService interface {
	GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error)

	AddWhitelist(ctx context.Context, userID string, in ListEntryInput) (*domain.UserSettings, error)

	RemoveWhitelist(ctx context.Context, userID, value string) (*domain.UserSettings, error)

	AddBlacklist(ctx context.Context, userID string, in ListEntryInput) (*domain.UserSettings, error)

	RemoveBlacklist(ctx context.Context, userID, value string) (*domain.UserSettings, error)

	UpdateAutoBlock(ctx context.Context, userID string, enabled bool, threshold float64) (*domain.UserSettings, error)

	Counters(ctx context.Context, userID string) (domain.UserCounters, error)
}
