package domain

import "strings"

// Category is the closed set of content classes a verdict can carry.
type Category string

// RiskLevel tells clients how loudly to surface a verdict.
type RiskLevel string

// Action is what the client is advised to do with the message.
type Action string

const (
	CategorySafe        Category = "safe"
	CategoryBetting     Category = "betting"
	CategoryPhishing    Category = "phishing"
	CategoryScam        Category = "scam"
	CategoryMalware     Category = "malware"
	CategoryPromotional Category = "promotional"
	CategoryFraud       Category = "fraud"
	CategoryLottery     Category = "lottery"
	CategoryInvestment  Category = "investment"
	CategoryOther       Category = "other"
)

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

const (
	ActionBlock Action = "block"
	ActionWarn  Action = "warn"
	ActionAllow Action = "allow"
)

var categories = map[Category]bool{
	CategorySafe: true, CategoryBetting: true, CategoryPhishing: true, CategoryScam: true,
	CategoryMalware: true, CategoryPromotional: true, CategoryFraud: true, CategoryLottery: true,
	CategoryInvestment: true, CategoryOther: true,
}

// ParseCategory matches case-insensitively against the closed set.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, categories[c]
}

// ParseRiskLevel matches case-insensitively against the closed set.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch r := RiskLevel(strings.ToLower(strings.TrimSpace(s))); r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return r, true
	}
	return "", false
}

// ParseAction matches case-insensitively against the closed set.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionBlock, ActionWarn, ActionAllow:
		return a, true
	}
	return "", false
}

// SpamAnalysis is the verdict produced by any classifier stage.
// It is treated as immutable once returned; DetectedPatterns is never
// shared between two verdicts.
type SpamAnalysis struct {
	IsSpam            bool      `json:"is_spam" bson:"is_spam"`
	Confidence        float64   `json:"confidence" bson:"confidence"`
	Category          Category  `json:"category" bson:"category"`
	RiskLevel         RiskLevel `json:"risk_level" bson:"risk_level"`
	Explanation       string    `json:"explanation" bson:"explanation"`
	DetectedPatterns  []string  `json:"detected_patterns" bson:"detected_patterns"`
	RecommendedAction Action    `json:"recommended_action" bson:"recommended_action"`
}

// ShouldBlock applies a user's auto-block preference to a verdict.
func (a SpamAnalysis) ShouldBlock(autoBlock bool, threshold float64) bool {
	return autoBlock && a.IsSpam && a.Confidence >= threshold
}

// VerdictRequest is what a generative provider is asked to judge.
type VerdictRequest struct {
	Content string
	Sender  string
}

// ClampConfidence pins a confidence value into [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// Normalized applies the closed-set defaults to a verdict from an
// untrusted source: confidence clamped, unknown enums replaced by
// safe/low/allow, and a block on a non-spam verdict downgraded to warn.
func (a SpamAnalysis) Normalized() SpamAnalysis {
	a.Confidence = ClampConfidence(a.Confidence)
	if c, ok := ParseCategory(string(a.Category)); ok {
		a.Category = c
	} else {
		a.Category = CategorySafe
	}
	if r, ok := ParseRiskLevel(string(a.RiskLevel)); ok {
		a.RiskLevel = r
	} else {
		a.RiskLevel = RiskLow
	}
	if act, ok := ParseAction(string(a.RecommendedAction)); ok {
		a.RecommendedAction = act
	} else {
		a.RecommendedAction = ActionAllow
	}
	if a.RecommendedAction == ActionBlock && !a.IsSpam {
		a.RecommendedAction = ActionWarn
	}
	a.DetectedPatterns = append([]string{}, a.DetectedPatterns...)
	return a
}
