package classifier_test

import (
	"testing"

	"github.com/rgdevment/spamguard/internal/classifier"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalClassifierMatch(t *testing.T) {
	local := classifier.NewLocalClassifier(nil)

	cases := []struct {
		Name       string
		Content    string
		Category   domain.Category
		Confidence float64
		Set        string
		Terminal   bool
	}{
		{"turkish betting", "Hemen bahis yap, yüksek oranlarla kazan!", domain.CategoryBetting, 0.95, "tr", true},
		{"turkish betting upper case", "HEMEN BAHİS YAP", domain.CategoryBetting, 0.95, "tr", true},
		{"turkish betting mixed case", "Deneme Bonusu sizi bekliyor", domain.CategoryBetting, 0.95, "tr", true},
		{"english betting", "Play poker tonight, gambling is fun", domain.CategoryBetting, 0.90, "en", true},
		{"spins caught by set 1", "Get 100 FREE SPINS today", domain.CategoryBetting, 0.95, "tr", true},
		{"english phishing", "Your account has been suspended. Click here to verify now", domain.CategoryPhishing, 0.90, "en", true},
		{"english scam", "Your parcel is on hold, pay the $2 fee at this link", domain.CategoryScam, 0.90, "en", true},
		{"turkish phishing stays tentative", "Hesabınız askıya alındı", domain.CategoryPhishing, classifier.TentativeConfidence, "tr", false},
		{"english promo stays tentative", "Flash sale: 50% off everything", domain.CategoryPromotional, classifier.TentativeConfidence, "en", false},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			v := local.Match(tc.Content)
			require.NotNil(t, v)
			assert.Equal(t, tc.Category, v.Category)
			assert.InDelta(t, tc.Confidence, v.Confidence, 1e-9)
			assert.Equal(t, tc.Set, v.Set)
			assert.Equal(t, tc.Terminal, v.Terminal())
		})
	}
}

func TestLocalClassifierNoMatch(t *testing.T) {
	local := classifier.NewLocalClassifier(nil)

	for _, content := range []string{
		"Your appointment is confirmed for tomorrow at 2 PM.",
		"Yarın saat 14:00'te görüşelim.",
		"Your verification code is 492011",
	} {
		assert.Nil(t, local.Match(content), content)
	}
}

func TestLocalClassifierTerminalBeatsEarlierTentative(t *testing.T) {
	local := classifier.NewLocalClassifier(nil)

	// Turkish promotional matches first, English phishing later in order.
	v := local.Match("Kampanya! Verify your account to keep your discount")
	require.NotNil(t, v)
	assert.Equal(t, domain.CategoryPhishing, v.Category)
	assert.True(t, v.Terminal())
}

func TestLocalClassifierFirstTentativeWins(t *testing.T) {
	local := classifier.NewLocalClassifier(nil)

	v := local.Match("Congratulations winner! Reply STOP to unsubscribe")
	require.NotNil(t, v)
	assert.Equal(t, domain.CategoryLottery, v.Category)
	assert.False(t, v.Terminal())
}

func TestPatternVerdictAnalysis(t *testing.T) {
	local := classifier.NewLocalClassifier(nil)

	terminal := local.Match("canlı casino bonusu").Analysis()
	assert.True(t, terminal.IsSpam)
	assert.Equal(t, domain.ActionBlock, terminal.RecommendedAction)
	assert.Equal(t, domain.RiskHigh, terminal.RiskLevel)
	assert.Len(t, terminal.DetectedPatterns, 1)
	assert.Contains(t, terminal.Explanation, "/")

	tentative := local.Match("exclusive offer just for you").Analysis()
	assert.True(t, tentative.IsSpam)
	assert.Equal(t, domain.ActionWarn, tentative.RecommendedAction)
	assert.Equal(t, domain.RiskMedium, tentative.RiskLevel)
}

func TestDefaultLibraryCompiles(t *testing.T) {
	lib := classifier.DefaultLibrary()
	require.Len(t, lib.Sets, 2)
	assert.Equal(t, "tr", lib.Sets[0].Name)
	assert.Equal(t, domain.CategoryBetting, lib.Sets[0].Categories[0].Category)
	for _, set := range lib.Sets {
		for _, cat := range set.Categories {
			assert.NotEmpty(t, cat.Patterns, "%s/%s", set.Name, cat.Category)
		}
	}
}

// Every core keyword of the decisive categories, one sample each. Samples
// for set 2 avoid set 1 betting words, which would win first.
func TestLocalClassifierCoreKeywords(t *testing.T) {
	local := classifier.NewLocalClassifier(nil)

	cases := []struct {
		Content    string
		Category   domain.Category
		Confidence float64
		Set        string
	}{
		{"Bahis oyna", domain.CategoryBetting, 0.95, "tr"},
		{"iddaa kuponu", domain.CategoryBetting, 0.95, "tr"},
		{"Casino night", domain.CategoryBetting, 0.95, "tr"},
		{"Slot makineleri", domain.CategoryBetting, 0.95, "tr"},
		{"Rulet masası", domain.CategoryBetting, 0.95, "tr"},
		{"canlı  bahis burada", domain.CategoryBetting, 0.95, "tr"},
		{"yüksek oran garantisi", domain.CategoryBetting, 0.95, "tr"},
		{"Bedava bonus ile free bet kazan", domain.CategoryBetting, 0.95, "tr"},
		{"Freebet hediye", domain.CategoryBetting, 0.95, "tr"},
		{"kumar sitesi", domain.CategoryBetting, 0.95, "tr"},
		{"Jackpot is waiting", domain.CategoryBetting, 0.95, "tr"},
		{"Spin to win", domain.CategoryBetting, 0.95, "tr"},

		{"Sports betting is back", domain.CategoryBetting, 0.90, "en"},
		{"Play poker tonight", domain.CategoryBetting, 0.90, "en"},
		{"Online gambling site", domain.CategoryBetting, 0.90, "en"},
		{"Use bonus code WELCOME", domain.CategoryBetting, 0.90, "en"},
		{"Please verify account immediately", domain.CategoryPhishing, 0.90, "en"},
		{"Update password today", domain.CategoryPhishing, 0.90, "en"},
		{"Confirm identity to continue", domain.CategoryPhishing, 0.90, "en"},
		{"Suspended account notice", domain.CategoryPhishing, 0.90, "en"},
		{"Click here now", domain.CategoryPhishing, 0.90, "en"},
		{"Urgent action required on your profile", domain.CategoryPhishing, 0.90, "en"},
		{"Make money fast, get rich from home!", domain.CategoryScam, 0.90, "en"},
		{"Earn from home today", domain.CategoryScam, 0.90, "en"},
		{"Guaranteed income every month", domain.CategoryScam, 0.90, "en"},
		{"A crypto opportunity awaits", domain.CategoryScam, 0.90, "en"},
		{"High investment return", domain.CategoryScam, 0.90, "en"},
		{"Get rich quick", domain.CategoryScam, 0.90, "en"},

		{"Kredi kartı bilgilerinizi girin", domain.CategoryPhishing, classifier.TentativeConfidence, "tr"},
		{"Pasif gelir elde edin", domain.CategoryScam, classifier.TentativeConfidence, "tr"},
		{"Milli piyango sonuçları", domain.CategoryLottery, classifier.TentativeConfidence, "tr"},
		{"Son gün, acele et", domain.CategoryPromotional, classifier.TentativeConfidence, "tr"},
		{"Lucky number drawn", domain.CategoryLottery, classifier.TentativeConfidence, "en"},
	}

	for _, tc := range cases {
		t.Run(tc.Content, func(t *testing.T) {
			v := local.Match(tc.Content)
			require.NotNil(t, v)
			assert.Equal(t, tc.Category, v.Category)
			assert.InDelta(t, tc.Confidence, v.Confidence, 1e-9)
			assert.Equal(t, tc.Set, v.Set)
		})
	}
}
