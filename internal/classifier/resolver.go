package classifier

import (
	"strings"

	"github.com/rgdevment/spamguard/internal/domain"
)

// Resolve checks sender identifiers against a user's allow and deny lists.
// An identifier matches an entry when it contains the entry as a
// case-insensitive substring. Every identifier is tried against the allow
// list before any is tried against the deny list, so an entry on both
// lists resolves to allowed. nil means the pipeline continues.
func Resolve(allow, deny []string, senders ...string) *domain.SpamAnalysis {
	ids := make([]string, 0, len(senders))
	for _, s := range senders {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			ids = append(ids, s)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if _, ok := firstContained(ids, allow); ok {
		return &domain.SpamAnalysis{
			IsSpam:            false,
			Confidence:        1.0,
			Category:          domain.CategorySafe,
			RiskLevel:         domain.RiskLow,
			Explanation:       "Gönderen izin listenizde. / Sender is on your allow list.",
			DetectedPatterns:  []string{},
			RecommendedAction: domain.ActionAllow,
		}
	}

	if entry, ok := firstContained(ids, deny); ok {
		return &domain.SpamAnalysis{
			IsSpam:            true,
			Confidence:        1.0,
			Category:          domain.CategoryOther,
			RiskLevel:         domain.RiskHigh,
			Explanation:       "Gönderen engel listenizde. / Sender is on your block list.",
			DetectedPatterns:  []string{entry},
			RecommendedAction: domain.ActionBlock,
		}
	}

	return nil
}

// firstContained returns the first list entry contained in any id. Blank
// entries are skipped since they would match every sender.
func firstContained(ids, list []string) (string, bool) {
	for _, entry := range list {
		needle := strings.ToLower(strings.TrimSpace(entry))
		if needle == "" {
			continue
		}
		for _, id := range ids {
			if strings.Contains(id, needle) {
				return entry, true
			}
		}
	}
	return "", false
}
