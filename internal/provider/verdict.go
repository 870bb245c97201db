// Package provider adapts generative AI models into spam verdicts.
package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rgdevment/spamguard/internal/domain"
)

// ErrMalformedVerdict is returned when a model reply is not the JSON we asked for.
var ErrMalformedVerdict = errors.New("malformed verdict payload")

// maxPromptContent bounds how much message text is sent to a model.
const maxPromptContent = 2000

// defaultConfidence stands in for a reply that omits confidence.
const defaultConfidence = 0.5

const systemPrompt = `You are an SMS and call-content spam analyst for Turkish and English messages.
Classify the message and respond with JSON only, in exactly this shape:
{
  "is_spam": true|false,
  "confidence": 0.0-1.0,
  "category": "safe|betting|phishing|scam|malware|promotional|fraud|lottery|investment|other",
  "risk_level": "low|medium|high|critical",
  "explanation": "one or two sentences, Turkish then English separated by ' / '",
  "recommended_action": "block|warn|allow"
}
Only recommend "block" when is_spam is true.`

// Payload is the wire shape a model is asked to return. Pointer fields
// distinguish "missing" from zero values.
type Payload struct {
	IsSpam            *bool    `json:"is_spam"`
	Confidence        *float64 `json:"confidence"`
	Category          *string  `json:"category"`
	RiskLevel         *string  `json:"risk_level"`
	Explanation       *string  `json:"explanation"`
	RecommendedAction *string  `json:"recommended_action"`
}

// ParsePayload decodes a model reply. Markdown fences and prose around the
// outermost JSON object are ignored.
func ParsePayload(raw string) (*Payload, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if start, end := strings.IndexByte(raw, '{'), strings.LastIndexByte(raw, '}'); start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedVerdict)
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if p.IsSpam == nil && p.Category == nil && p.Confidence == nil {
		return nil, fmt.Errorf("%w: no verdict fields", ErrMalformedVerdict)
	}
	return &p, nil
}

// Analysis applies the defaults for missing or out-of-set fields: is_spam
// false, confidence 0.5, category safe, risk low, action allow. Confidence
// is clamped into [0,1] afterwards.
func (p *Payload) Analysis() domain.SpamAnalysis {
	a := domain.SpamAnalysis{
		Confidence:        defaultConfidence,
		Category:          domain.CategorySafe,
		RiskLevel:         domain.RiskLow,
		RecommendedAction: domain.ActionAllow,
		DetectedPatterns:  []string{},
	}
	if p.IsSpam != nil {
		a.IsSpam = *p.IsSpam
	}
	if p.Confidence != nil {
		a.Confidence = *p.Confidence
	}
	if p.Category != nil {
		a.Category = domain.Category(*p.Category)
	}
	if p.RiskLevel != nil {
		a.RiskLevel = domain.RiskLevel(*p.RiskLevel)
	}
	if p.RecommendedAction != nil {
		a.RecommendedAction = domain.Action(*p.RecommendedAction)
	}
	if p.Explanation != nil {
		a.Explanation = strings.TrimSpace(*p.Explanation)
	}
	return a.Normalized()
}

func userPrompt(req domain.VerdictRequest) string {
	content := req.Content
	if r := []rune(content); len(r) > maxPromptContent {
		content = string(r[:maxPromptContent])
	}
	sender := req.Sender
	if sender == "" {
		sender = "unknown"
	}
	return fmt.Sprintf("Sender: %s\n\nMessage:\n%s", sender, content)
}
