package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rgdevment/spamguard/internal/apperr"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/lookup"
)

// StatsReader is the reputation read the lookup merges in.
type StatsReader interface {
	CheckRisk(ctx context.Context, phoneNumber, countryCode string) (*domain.PhoneStats, error)
}

type lookupService struct {
	source      lookup.Source
	fallback    lookup.Source
	stats       StatsReader
	concurrency int
	log         zerolog.Logger
}

func NewLookupService(source lookup.Source, stats StatsReader, concurrency int, log zerolog.Logger) LookupService {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &lookupService{
		source:      source,
		fallback:    lookup.NewOffline(),
		stats:       stats,
		concurrency: concurrency,
		log:         log,
	}
}

// Lookup asks the configured source and falls back to the bundled
// numbering-plan data when it fails, so community reputation is always
// merged in.
func (s *lookupService) Lookup(ctx context.Context, in LookupInput) (*domain.CallerInfo, error) {
	num, err := parsePhone(in.PhoneNumber, in.CountryCode)
	if err != nil {
		return nil, err
	}

	info, err := s.source.Lookup(ctx, num)
	if err != nil {
		s.log.Warn().Err(err).Str("source", s.source.Name()).Str("phone", num.E164).Msg("caller-id source failed, using offline data")
		if info, err = s.fallback.Lookup(ctx, num); err != nil {
			return nil, apperr.External(s.fallback.Name(), err)
		}
	}

	stats, err := s.stats.CheckRisk(ctx, num.E164, num.Region)
	if err != nil {
		return nil, err
	}
	return lookup.Merge(info, stats), nil
}

// LookupBulk drops items that fail and reports how many did.
func (s *lookupService) LookupBulk(ctx context.Context, in []LookupInput) (*BulkLookupResult, error) {
	if len(in) == 0 {
		return nil, apperr.InvalidInput("numbers", "must contain at least one number")
	}
	if len(in) > MaxBulkItems {
		return nil, apperr.InvalidInput("numbers", "must contain at most 50 numbers")
	}

	slots := make([]*domain.CallerInfo, len(in))
	var (
		mu     sync.Mutex
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range in {
		g.Go(func() error {
			info, err := s.Lookup(gctx, in[i])
			if err != nil {
				s.log.Debug().Err(err).Int("index", i).Msg("bulk lookup item failed")
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			slots[i] = info
			return nil
		})
	}
	_ = g.Wait()

	out := &BulkLookupResult{Results: make([]*domain.CallerInfo, 0, len(in)), Failed: failed}
	for _, info := range slots {
		if info != nil {
			out.Results = append(out.Results, info)
		}
	}
	return out, nil
}
