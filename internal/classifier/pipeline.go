package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/domain"
)

// ShortCircuitConfidence is the lowest pattern confidence that ends the
// pipeline without consulting the provider.
const ShortCircuitConfidence = 0.9

// DefaultProviderTimeout bounds a provider call when Config leaves it unset.
const DefaultProviderTimeout = 8 * time.Second

// Stage names the pipeline step that produced a verdict.
type Stage string

const (
	StageAllowList       Stage = "allowlist"
	StageDenyList        Stage = "denylist"
	StagePattern         Stage = "pattern"
	StageGenerative      Stage = "generative"
	StagePatternFallback Stage = "pattern_fallback"
	StageDefault         Stage = "default"
)

// UncertaintyMode selects the verdict returned when nothing decided.
type UncertaintyMode string

const (
	UncertainAllow UncertaintyMode = "allow"
	UncertainWarn  UncertaintyMode = "warn"
)

// VerdictProvider is the generative fallback. Implementations return a
// normalized verdict or an error; they may also be slow or panic, which
// the pipeline absorbs.
type VerdictProvider interface {
	Name() string
	Verdict(ctx context.Context, req domain.VerdictRequest) (domain.SpamAnalysis, error)
}

// Recorder receives stage outcomes and provider failures.
type Recorder interface {
	ObserveStage(stage string)
	ProviderFailure(provider string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string)    {}
func (nopRecorder) ProviderFailure(string) {}

// Config tunes the pipeline.
type Config struct {
	ProviderTimeout time.Duration
	Uncertainty     UncertaintyMode
}

// Input is one message to classify together with the owner's lists.
type Input struct {
	Content     string
	Sender      string
	SenderPhone string
	AllowList   []string
	DenyList    []string
}

// Result is the verdict plus the stage that produced it.
type Result struct {
	Analysis domain.SpamAnalysis
	Stage    Stage
}

// Pipeline runs allow/deny → local patterns → provider → default.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	local    *LocalClassifier
	provider VerdictProvider
	cfg      Config
	recorder Recorder
	log      zerolog.Logger
}

// NewPipeline builds a pipeline. provider and recorder may be nil.
func NewPipeline(local *LocalClassifier, provider VerdictProvider, cfg Config, recorder Recorder, log zerolog.Logger) *Pipeline {
	if local == nil {
		local = NewLocalClassifier(nil)
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.Uncertainty != UncertainWarn {
		cfg.Uncertainty = UncertainAllow
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Pipeline{
		local:    local,
		provider: provider,
		cfg:      cfg,
		recorder: recorder,
		log:      log,
	}
}

// Analyze never fails: every provider problem degrades to the pattern
// fallback or the default verdict.
func (p *Pipeline) Analyze(ctx context.Context, in Input) Result {
	res := p.analyze(ctx, in)
	p.recorder.ObserveStage(string(res.Stage))
	p.log.Debug().
		Str("stage", string(res.Stage)).
		Str("category", string(res.Analysis.Category)).
		Float64("confidence", res.Analysis.Confidence).
		Msg("message classified")
	return res
}

func (p *Pipeline) analyze(ctx context.Context, in Input) Result {
	if v := Resolve(in.AllowList, in.DenyList, in.Sender, in.SenderPhone); v != nil {
		stage := StageDenyList
		if !v.IsSpam {
			stage = StageAllowList
		}
		return Result{Analysis: *v, Stage: stage}
	}

	hit := p.local.Match(in.Content)
	if hit.Terminal() {
		return Result{Analysis: hit.Analysis(), Stage: StagePattern}
	}

	if p.provider != nil {
		verdict, err := p.callProvider(ctx, domain.VerdictRequest{Content: in.Content, Sender: in.Sender})
		if err == nil {
			verdict = verdict.Normalized()
			verdict.DetectedPatterns = []string{}
			return Result{Analysis: verdict, Stage: StageGenerative}
		}
		p.recorder.ProviderFailure(p.provider.Name())
		p.log.Warn().Err(err).Str("provider", p.provider.Name()).Msg("generative verdict failed, degrading")
	}

	if hit != nil {
		return Result{Analysis: hit.Analysis(), Stage: StagePatternFallback}
	}

	return Result{Analysis: p.defaultVerdict(), Stage: StageDefault}
}

var errProviderPanic = errors.New("provider panicked")

// callProvider bounds the call with the configured timeout even when the
// provider ignores its context, and converts panics into errors.
func (p *Pipeline) callProvider(ctx context.Context, req domain.VerdictRequest) (domain.SpamAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProviderTimeout)
	defer cancel()

	type outcome struct {
		verdict domain.SpamAnalysis
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", errProviderPanic, r)}
			}
		}()
		v, err := p.provider.Verdict(ctx, req)
		done <- outcome{verdict: v, err: err}
	}()

	select {
	case out := <-done:
		return out.verdict, out.err
	case <-ctx.Done():
		return domain.SpamAnalysis{}, fmt.Errorf("provider %s: %w", p.provider.Name(), ctx.Err())
	}
}

func (p *Pipeline) defaultVerdict() domain.SpamAnalysis {
	a := domain.SpamAnalysis{
		IsSpam:            false,
		Confidence:        0.5,
		Category:          domain.CategorySafe,
		RiskLevel:         domain.RiskLow,
		Explanation:       "Analiz kesin bir sonuç vermedi; mesaj güvenli kabul edildi. / Analysis was inconclusive; the message was treated as safe.",
		DetectedPatterns:  []string{},
		RecommendedAction: domain.ActionAllow,
	}
	if p.cfg.Uncertainty == UncertainWarn {
		a.RiskLevel = domain.RiskMedium
		a.RecommendedAction = domain.ActionWarn
		a.Explanation = "Analiz kesin bir sonuç vermedi; dikkatli olun. / Analysis was inconclusive; treat this message with caution."
	}
	return a
}
