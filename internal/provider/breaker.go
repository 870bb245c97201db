package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/rgdevment/spamguard/internal/classifier"
	"github.com/rgdevment/spamguard/internal/domain"
)

// Breaker wraps a provider in a circuit breaker so a dead model stops
// costing a full timeout per message.
type Breaker struct {
	next classifier.VerdictProvider
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker trips after 5 consecutive failures, or a 60% failure ratio
// over at least 10 requests, and probes again after 30s.
func NewBreaker(next classifier.VerdictProvider, log zerolog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Name() string { return b.next.Name() }

func (b *Breaker) Verdict(ctx context.Context, req domain.VerdictRequest) (domain.SpamAnalysis, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Verdict(ctx, req)
	})
	if err != nil {
		return domain.SpamAnalysis{}, err
	}
	return out.(domain.SpamAnalysis), nil
}

// State exposes the breaker state for health output.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
