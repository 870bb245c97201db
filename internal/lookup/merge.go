// Package lookup answers caller-ID queries and folds community reputation
// into them.
package lookup

import (
	"context"

	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/phone"
)

// Source is an external caller-ID provider.
type Source interface {
	Name() string
	Lookup(ctx context.Context, num *phone.Number) (*domain.CallerInfo, error)
}

// Merge returns info with community data applied. Whenever the community
// has at least one report, its spam verdict and score replace the
// external ones; otherwise info passes through unchanged. info is not
// modified.
func Merge(info *domain.CallerInfo, stats *domain.PhoneStats) *domain.CallerInfo {
	out := *info
	if stats == nil || stats.TotalReports <= 0 {
		return &out
	}

	reports := stats.TotalReports
	out.IsSpam = stats.IsSpam
	out.SpamScore = stats.SpamScore
	out.CommunityReports = &reports
	return &out
}
