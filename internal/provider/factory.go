package provider

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/classifier"
)

// New builds the configured provider behind a circuit breaker. name "none"
// (or empty) returns nil, which disables the generative stage.
func New(ctx context.Context, name, apiKey, model string, log zerolog.Logger) (classifier.VerdictProvider, error) {
	var p classifier.VerdictProvider
	switch name {
	case "", "none":
		return nil, nil
	case "openai":
		p = NewOpenAI(apiKey, model)
	case "gemini":
		g, err := NewGemini(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		p = g
	default:
		return nil, fmt.Errorf("unknown AI provider %q", name)
	}
	return NewBreaker(p, log), nil
}
