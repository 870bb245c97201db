package classifier_test

import (
	"testing"

	"github.com/rgdevment/spamguard/internal/classifier"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	allow := []string{"Mom", "+905012345678"}
	deny := []string{"promo-bank", "+90850", "mom"}

	cases := []struct {
		Name    string
		Senders []string
		Want    *domain.Action
		Pattern string
	}{
		{"allow substring case-insensitive", []string{"MOM (mobile)"}, ptr(domain.ActionAllow), ""},
		{"deny substring", []string{"PROMO-BANK-TR"}, ptr(domain.ActionBlock), "promo-bank"},
		{"allow beats deny on same entry", []string{"mom"}, ptr(domain.ActionAllow), ""},
		{"phone on allow list via second identifier", []string{"", "+905012345678"}, ptr(domain.ActionAllow), ""},
		{"deny via phone prefix", []string{"Unknown", "+908501234567"}, ptr(domain.ActionBlock), "+90850"},
		{"no match", []string{"Courier"}, nil, ""},
		{"no sender", []string{"", "  "}, nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			got := classifier.Resolve(allow, deny, tc.Senders...)
			if tc.Want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.Want, got.RecommendedAction)
			assert.Equal(t, 1.0, got.Confidence)
			if *tc.Want == domain.ActionAllow {
				assert.False(t, got.IsSpam)
				assert.Equal(t, domain.CategorySafe, got.Category)
				assert.Equal(t, domain.RiskLow, got.RiskLevel)
			} else {
				assert.True(t, got.IsSpam)
				assert.Equal(t, domain.CategoryOther, got.Category)
				assert.Equal(t, domain.RiskHigh, got.RiskLevel)
				assert.Equal(t, []string{tc.Pattern}, got.DetectedPatterns)
			}
		})
	}
}

func TestResolveIgnoresBlankEntries(t *testing.T) {
	assert.Nil(t, classifier.Resolve([]string{""}, []string{"  "}, "anyone"))
}

func ptr[T any](v T) *T { return &v }
