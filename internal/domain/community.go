package domain

import (
	"time"
)

const (
	// ScorePerReport is how much each report adds to a number's score.
	ScorePerReport = 10
	// MaxSpamScore caps the community score.
	MaxSpamScore = 100
	// SpamScoreThreshold is the score at which a number counts as spam.
	SpamScoreThreshold = 30
	// TopCategoryCount is how many categories PhoneStats exposes.
	TopCategoryCount = 3
)

// CommunityAggregate is the running reputation of one phone number.
// Version increments on every write and drives compare-and-swap in the stores.
type CommunityAggregate struct {
	PhoneNumber   string                 `json:"phone_number"`
	TotalReports  int                    `json:"total_reports"`
	SpamScore     int                    `json:"spam_score"`
	Categories    map[ReportCategory]int `json:"categories"`
	ReporterIDs   map[string]struct{}    `json:"-"`
	CallerNames   []string               `json:"caller_names"`
	FirstReported time.Time              `json:"first_reported"`
	LastReported  time.Time              `json:"last_reported"`
	IsVerified    bool                   `json:"is_verified"`
	Version       int64                  `json:"-"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (a *CommunityAggregate) Clone() *CommunityAggregate {
	if a == nil {
		return nil
	}
	c := *a
	c.Categories = make(map[ReportCategory]int, len(a.Categories))
	for k, v := range a.Categories {
		c.Categories[k] = v
	}
	c.ReporterIDs = make(map[string]struct{}, len(a.ReporterIDs))
	for k := range a.ReporterIDs {
		c.ReporterIDs[k] = struct{}{}
	}
	c.CallerNames = append([]string(nil), a.CallerNames...)
	return &c
}

// UniqueReporters is the size of the reporter set.
func (a *CommunityAggregate) UniqueReporters() int {
	return len(a.ReporterIDs)
}

// ScoreFor applies the community formula: ten points per report, capped.
// It counts raw reports, not unique reporters; the API layer's duplicate
// guard is what keeps one user from inflating a number.
func ScoreFor(totalReports int) int {
	s := totalReports * ScorePerReport
	if s > MaxSpamScore {
		return MaxSpamScore
	}
	if s < 0 {
		return 0
	}
	return s
}

// CategoryCount is one entry of a category histogram.
type CategoryCount struct {
	Category ReportCategory `json:"category"`
	Count    int            `json:"count"`
}

// PhoneStats is the read model exposed for a phone number.
type PhoneStats struct {
	PhoneNumber     string          `json:"phone_number"`
	TotalReports    int             `json:"total_reports"`
	UniqueReporters int             `json:"unique_reporters"`
	SpamScore       int             `json:"spam_score"`
	IsSpam          bool            `json:"is_spam"`
	TopCategories   []CategoryCount `json:"top_categories"`
	CallerNames     []string        `json:"caller_names"`
	FirstReported   *time.Time      `json:"first_reported,omitempty"`
	LastReported    *time.Time      `json:"last_reported,omitempty"`
	IsVerified      bool            `json:"is_verified"`
}

// EmptyPhoneStats is the zero-valued answer for a number nobody reported.
func EmptyPhoneStats(phone string) *PhoneStats {
	return &PhoneStats{
		PhoneNumber:   phone,
		TopCategories: []CategoryCount{},
		CallerNames:   []string{},
	}
}
