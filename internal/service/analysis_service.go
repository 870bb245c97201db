package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rgdevment/spamguard/internal/apperr"
	"github.com/rgdevment/spamguard/internal/classifier"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/phone"
)

const (
	MaxBulkItems       = 50
	DefaultPageSize    = 20
	MaxPageSize        = 100
	defaultConcurrency = 4
)

// Classifier is the part of the pipeline the service depends on.
type Classifier interface {
	Analyze(ctx context.Context, in classifier.Input) classifier.Result
}

type analysisService struct {
	classifier  Classifier
	messages    MessageRepository
	settings    SettingsRepository
	counters    CounterRepository
	concurrency int
	log         zerolog.Logger
}

func NewAnalysisService(c Classifier, messages MessageRepository, settings SettingsRepository, counters CounterRepository, concurrency int, log zerolog.Logger) AnalysisService {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &analysisService{
		classifier:  c,
		messages:    messages,
		settings:    settings,
		counters:    counters,
		concurrency: concurrency,
		log:         log,
	}
}

func validateAnalyzeInput(in *AnalyzeInput) error {
	if strings.TrimSpace(in.Content) == "" {
		return apperr.InvalidInput("content", "must not be empty")
	}
	if utf8.RuneCountInString(in.Content) > classifier.MaxContentLength {
		return apperr.InvalidInput("content", "must be at most 5000 characters")
	}
	switch in.Source {
	case "":
		in.Source = domain.SourceAPI
	case domain.SourceSMS, domain.SourceManual, domain.SourceAPI:
	default:
		return apperr.InvalidInput("source", "must be one of sms, manual, api")
	}
	in.Sender = strings.TrimSpace(in.Sender)
	in.SenderPhone = strings.TrimSpace(in.SenderPhone)
	if in.SenderPhone != "" {
		if e164, err := phone.Normalize(in.SenderPhone); err == nil {
			in.SenderPhone = e164
		}
	}
	return nil
}

// loadSettings never fails the caller; unreadable settings fall back to
// defaults so classification keeps working.
func (s *analysisService) loadSettings(ctx context.Context, userID string) *domain.UserSettings {
	st, err := s.settings.Get(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("settings unavailable, using defaults")
		return domain.DefaultUserSettings(userID)
	}
	if st == nil {
		return domain.DefaultUserSettings(userID)
	}
	return st
}

func (s *analysisService) Analyze(ctx context.Context, userID string, in AnalyzeInput) (*AnalyzeResult, error) {
	if err := validateAnalyzeInput(&in); err != nil {
		return nil, err
	}
	return s.analyze(ctx, userID, s.loadSettings(ctx, userID), in), nil
}

// analyze runs one validated input. Storage problems are logged, never
// returned: the verdict is what the caller came for.
func (s *analysisService) analyze(ctx context.Context, userID string, st *domain.UserSettings, in AnalyzeInput) *AnalyzeResult {
	res := s.classifier.Analyze(ctx, classifier.Input{
		Content:     in.Content,
		Sender:      in.Sender,
		SenderPhone: in.SenderPhone,
		AllowList:   st.AllowValues(),
		DenyList:    st.DenyValues(),
	})

	shouldBlock := res.Analysis.ShouldBlock(st.AutoBlockSpam, st.AutoBlockThreshold)
	msg := domain.NewMessage(userID, in.Content, in.Sender, in.SenderPhone, in.Source, res.Analysis)
	msg.IsBlocked = shouldBlock

	out := &AnalyzeResult{
		MessageID:   msg.ID,
		Analysis:    res.Analysis,
		ShouldBlock: shouldBlock,
		Stored:      true,
	}

	if err := s.messages.Save(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to store analyzed message")
		out.Stored = false
	}

	var spam int64
	if res.Analysis.IsSpam {
		spam = 1
	}
	if err := s.counters.Increment(ctx, userID, 1, spam); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to bump user counters")
	}
	return out
}

func (s *analysisService) AnalyzeBulk(ctx context.Context, userID string, in []AnalyzeInput) (*BulkAnalyzeResult, error) {
	if len(in) == 0 {
		return nil, apperr.InvalidInput("messages", "must contain at least one message")
	}
	if len(in) > MaxBulkItems {
		return nil, apperr.InvalidInput("messages", "must contain at most 50 messages")
	}
	for i := range in {
		if err := validateAnalyzeInput(&in[i]); err != nil {
			return nil, apperr.AsAppError(err).WithDetail("index", i)
		}
	}

	st := s.loadSettings(ctx, userID)
	results := make([]*AnalyzeResult, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range in {
		g.Go(func() error {
			results[i] = s.analyze(gctx, userID, st, in[i])
			return nil
		})
	}
	_ = g.Wait()

	out := &BulkAnalyzeResult{Total: len(results), Results: results}
	for _, r := range results {
		if r.Analysis.IsSpam {
			out.SpamCount++
		} else {
			out.SafeCount++
		}
	}
	return out, nil
}

// pageBounds applies the default page size and caps it.
func pageBounds(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		return 0, 0, apperr.InvalidInput("offset", "must not be negative")
	}
	return limit, offset, nil
}

func (s *analysisService) ListMessages(ctx context.Context, userID string, f domain.MessageFilter, limit, offset int) (*MessagePage, error) {
	limit, offset, err := pageBounds(limit, offset)
	if err != nil {
		return nil, err
	}

	msgs, total, err := s.messages.List(ctx, userID, f, limit, offset)
	if err != nil {
		return nil, apperr.Database("list messages", err)
	}
	return &MessagePage{Messages: msgs, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *analysisService) GetMessage(ctx context.Context, userID string, id uuid.UUID) (*domain.Message, error) {
	m, err := s.messages.Get(ctx, userID, id)
	if err != nil {
		return nil, apperr.Database("get message", err)
	}
	if m == nil {
		return nil, apperr.NotFound("message")
	}
	return m, nil
}

func (s *analysisService) DeleteMessage(ctx context.Context, userID string, id uuid.UUID) error {
	ok, err := s.messages.Delete(ctx, userID, id)
	if err != nil {
		return apperr.Database("delete message", err)
	}
	if !ok {
		return apperr.NotFound("message")
	}
	return nil
}

func (s *analysisService) SubmitFeedback(ctx context.Context, userID string, id uuid.UUID, fb domain.Feedback) error {
	switch fb {
	case domain.FeedbackCorrect, domain.FeedbackIncorrect, domain.FeedbackUnsure:
	default:
		return apperr.InvalidInput("feedback", "must be one of correct, incorrect, unsure")
	}

	ok, err := s.messages.SetFeedback(ctx, userID, id, fb)
	if err != nil {
		return apperr.Database("set feedback", err)
	}
	if !ok {
		return apperr.NotFound("message")
	}
	return nil
}

func (s *analysisService) FeedbackStats(ctx context.Context, userID string) (domain.FeedbackStats, error) {
	counts, err := s.messages.CountFeedback(ctx, userID)
	if err != nil {
		return domain.FeedbackStats{}, apperr.Database("feedback stats", err)
	}
	return domain.NewFeedbackStats(
		counts[domain.FeedbackCorrect],
		counts[domain.FeedbackIncorrect],
		counts[domain.FeedbackUnsure],
	), nil
}

// MessageStats adds the feedback summary to the stored history totals.
func (s *analysisService) MessageStats(ctx context.Context, userID string) (*domain.MessageStats, error) {
	stats, err := s.messages.Stats(ctx, userID)
	if err != nil {
		return nil, apperr.Database("message stats", err)
	}
	if stats.SpamByCategory == nil {
		stats.SpamByCategory = map[domain.Category]int{}
	}

	fb, err := s.FeedbackStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.AccuracyFeedback = fb
	return stats, nil
}
