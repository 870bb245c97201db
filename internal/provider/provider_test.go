package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/provider"
)

func TestParsePayloadDefaults(t *testing.T) {
	cases := []struct {
		Name     string
		Raw      string
		Expected domain.SpamAnalysis
	}{
		{
			Name: "complete payload",
			Raw:  `{"is_spam":true,"confidence":0.82,"category":"phishing","risk_level":"high","explanation":"x / y","recommended_action":"block"}`,
			Expected: domain.SpamAnalysis{
				IsSpam: true, Confidence: 0.82, Category: domain.CategoryPhishing, RiskLevel: domain.RiskHigh,
				Explanation: "x / y", DetectedPatterns: []string{}, RecommendedAction: domain.ActionBlock,
			},
		},
		{
			Name: "fenced and missing fields",
			Raw:  "```json\n{\"is_spam\": false}\n```",
			Expected: domain.SpamAnalysis{
				Confidence: 0.5, Category: domain.CategorySafe, RiskLevel: domain.RiskLow,
				DetectedPatterns: []string{}, RecommendedAction: domain.ActionAllow,
			},
		},
		{
			Name: "out of range and unknown enums",
			Raw:  `{"is_spam":true,"confidence":-3,"category":"crypto-stuff","risk_level":"extreme","recommended_action":"nuke"}`,
			Expected: domain.SpamAnalysis{
				IsSpam: true, Category: domain.CategorySafe, RiskLevel: domain.RiskLow,
				DetectedPatterns: []string{}, RecommendedAction: domain.ActionAllow,
			},
		},
		{
			Name: "missing confidence defaults to one half",
			Raw:  `{"is_spam":true,"category":"scam","risk_level":"high","recommended_action":"block"}`,
			Expected: domain.SpamAnalysis{
				IsSpam: true, Confidence: 0.5, Category: domain.CategoryScam, RiskLevel: domain.RiskHigh,
				DetectedPatterns: []string{}, RecommendedAction: domain.ActionBlock,
			},
		},
		{
			Name: "prose around the object",
			Raw:  "Sure, here is my analysis:\n{\"is_spam\": true, \"confidence\": 0.9, \"category\": \"lottery\", \"recommended_action\": \"warn\"}\nLet me know if you need more.",
			Expected: domain.SpamAnalysis{
				IsSpam: true, Confidence: 0.9, Category: domain.CategoryLottery, RiskLevel: domain.RiskLow,
				DetectedPatterns: []string{}, RecommendedAction: domain.ActionWarn,
			},
		},
		{
			Name: "fence with trailing prose",
			Raw:  "```json\n{\"is_spam\": true, \"confidence\": 1.7}\n```\nDone.",
			Expected: domain.SpamAnalysis{
				IsSpam: true, Confidence: 1, Category: domain.CategorySafe, RiskLevel: domain.RiskLow,
				DetectedPatterns: []string{}, RecommendedAction: domain.ActionAllow,
			},
		},
		{
			Name: "block without spam is downgraded",
			Raw:  `{"is_spam":false,"confidence":0.4,"category":"promotional","recommended_action":"BLOCK"}`,
			Expected: domain.SpamAnalysis{
				Confidence: 0.4, Category: domain.CategoryPromotional, RiskLevel: domain.RiskLow,
				DetectedPatterns: []string{}, RecommendedAction: domain.ActionWarn,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			p, err := provider.ParsePayload(tc.Raw)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, p.Analysis())
		})
	}
}

func TestParsePayloadRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"foo":"bar"}`, "```\n```"} {
		_, err := provider.ParsePayload(raw)
		assert.ErrorIs(t, err, provider.ErrMalformedVerdict, raw)
	}
}

func TestOpenAIVerdict(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   gotReq.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"is_spam":true,"confidence":0.77,"category":"lottery","risk_level":"medium","recommended_action":"warn"}`,
				},
			}},
		})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	p := provider.NewOpenAIWithConfig(cfg, "")

	v, err := p.Verdict(context.Background(), domain.VerdictRequest{Content: "You won a car", Sender: "LOTTO"})
	require.NoError(t, err)

	assert.Equal(t, provider.DefaultOpenAIModel, gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Contains(t, gotReq.Messages[1].Content, "You won a car")
	assert.Equal(t, domain.CategoryLottery, v.Category)
	assert.Equal(t, 0.77, v.Confidence)
	assert.Equal(t, domain.ActionWarn, v.RecommendedAction)
}

func TestOpenAIVerdictServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"

	_, err := provider.NewOpenAIWithConfig(cfg, "gpt-4o-mini").Verdict(context.Background(), domain.VerdictRequest{Content: "hi"})
	assert.Error(t, err)
}

type failing struct{ calls int }

func (f *failing) Name() string { return "failing" }
func (f *failing) Verdict(context.Context, domain.VerdictRequest) (domain.SpamAnalysis, error) {
	f.calls++
	return domain.SpamAnalysis{}, errors.New("down")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failing{}
	b := provider.NewBreaker(inner, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := b.Verdict(context.Background(), domain.VerdictRequest{Content: "x"})
		require.Error(t, err)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Verdict(context.Background(), domain.VerdictRequest{Content: "x"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, inner.calls)
}

func TestNewNoneDisablesProvider(t *testing.T) {
	p, err := provider.New(context.Background(), "none", "", "", zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = provider.New(context.Background(), "llama", "", "", zerolog.Nop())
	assert.Error(t, err)
}
