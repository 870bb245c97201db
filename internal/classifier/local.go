package classifier

import (
	"fmt"
	"strings"

	"github.com/rgdevment/spamguard/internal/domain"
)

// MaxContentLength is the longest content, in characters, the analyzer accepts.
const MaxContentLength = 5000

// PatternVerdict is a local pattern hit.
type PatternVerdict struct {
	Category   domain.Category
	Confidence float64
	Pattern    string
	Set        string
}

// Terminal reports whether the hit is trusted enough to end the pipeline.
func (v *PatternVerdict) Terminal() bool {
	return v != nil && v.Confidence >= ShortCircuitConfidence
}

// LocalClassifier matches content against a Library.
type LocalClassifier struct {
	lib *Library
}

func NewLocalClassifier(lib *Library) *LocalClassifier {
	if lib == nil {
		lib = DefaultLibrary()
	}
	return &LocalClassifier{lib: lib}
}

// Version of the underlying library.
func (c *LocalClassifier) Version() string {
	return c.lib.Version
}

// Match walks the sets in order and returns the first terminal hit. When
// only tentative categories match, the first of those is returned so the
// pipeline can fall back to it. nil means nothing matched.
// content must be non-empty and at most MaxContentLength characters; the
// caller validates that.
func (c *LocalClassifier) Match(content string) *PatternVerdict {
	text := normalize(content)

	var tentative *PatternVerdict
	for _, set := range c.lib.Sets {
		for _, cat := range set.Categories {
			for _, re := range cat.Patterns {
				if !re.MatchString(text) {
					continue
				}
				v := &PatternVerdict{
					Category:   cat.Category,
					Confidence: cat.Confidence,
					Pattern:    re.String(),
					Set:        set.Name,
				}
				if v.Terminal() {
					return v
				}
				if tentative == nil {
					tentative = v
				}
				break
			}
		}
	}
	return tentative
}

// normalize lower-cases content. strings.ToLower turns the Turkish dotted
// capital İ into i plus a combining dot, which is dropped so "BAHİS"
// still reads "bahis".
func normalize(content string) string {
	return strings.ReplaceAll(strings.ToLower(content), "\u0307", "")
}

var categoryExplanations = map[domain.Category]string{
	domain.CategoryBetting:     "Yasa dışı bahis içeriği tespit edildi. / Illegal betting content detected.",
	domain.CategoryPhishing:    "Kimlik avı (oltalama) girişimi tespit edildi. / Phishing attempt detected.",
	domain.CategoryScam:        "Dolandırıcılık girişimi tespit edildi. / Scam attempt detected.",
	domain.CategoryLottery:     "Sahte çekiliş veya ödül mesajı olabilir. / Possible fake lottery or prize message.",
	domain.CategoryInvestment:  "Şüpheli yatırım teklifi olabilir. / Possible suspicious investment offer.",
	domain.CategoryMalware:     "Zararlı yazılım bağlantısı olabilir. / Possible malware link.",
	domain.CategoryPromotional: "Reklam veya tanıtım mesajı. / Promotional or marketing message.",
}

// Analysis turns a pattern hit into a verdict. Terminal hits block;
// tentative hits only warn.
func (v *PatternVerdict) Analysis() domain.SpamAnalysis {
	explanation, ok := categoryExplanations[v.Category]
	if !ok {
		explanation = "Şüpheli içerik tespit edildi. / Suspicious content detected."
	}

	a := domain.SpamAnalysis{
		IsSpam:            true,
		Confidence:        v.Confidence,
		Category:          v.Category,
		RiskLevel:         riskFor(v.Category, v.Terminal()),
		Explanation:       fmt.Sprintf("%s (patterns %s/%s)", explanation, LibraryVersion, v.Set),
		DetectedPatterns:  []string{v.Pattern},
		RecommendedAction: domain.ActionWarn,
	}
	if v.Terminal() {
		a.RecommendedAction = domain.ActionBlock
	}
	return a
}

func riskFor(cat domain.Category, terminal bool) domain.RiskLevel {
	switch {
	case !terminal:
		return domain.RiskMedium
	case cat == domain.CategoryPhishing || cat == domain.CategoryScam:
		return domain.RiskCritical
	default:
		return domain.RiskHigh
	}
}
