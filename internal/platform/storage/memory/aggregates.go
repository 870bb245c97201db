// Package memory keeps community aggregates in process. It backs tests and
// single-node development runs where no Scylla cluster is available.
package memory

import (
	"context"
	"sync"

	"github.com/rgdevment/spamguard/internal/domain"
)

// AggregateStore holds immutable snapshots in a sync.Map. Writers never
// mutate a stored snapshot; they swap the pointer.
type AggregateStore struct {
	m sync.Map // phone -> *domain.CommunityAggregate
}

func NewAggregateStore() *AggregateStore {
	return &AggregateStore{}
}

func (s *AggregateStore) Get(_ context.Context, phone string) (*domain.CommunityAggregate, error) {
	v, ok := s.m.Load(phone)
	if !ok {
		return nil, nil
	}
	return v.(*domain.CommunityAggregate).Clone(), nil
}

func (s *AggregateStore) Create(_ context.Context, agg *domain.CommunityAggregate) (bool, error) {
	_, loaded := s.m.LoadOrStore(agg.PhoneNumber, agg.Clone())
	return !loaded, nil
}

func (s *AggregateStore) Swap(_ context.Context, agg *domain.CommunityAggregate, expected int64) (bool, error) {
	v, ok := s.m.Load(agg.PhoneNumber)
	if !ok {
		return false, nil
	}
	cur := v.(*domain.CommunityAggregate)
	if cur.Version != expected {
		return false, nil
	}
	return s.m.CompareAndSwap(agg.PhoneNumber, cur, agg.Clone()), nil
}

func (s *AggregateStore) List(_ context.Context, minReports int) ([]*domain.CommunityAggregate, error) {
	var out []*domain.CommunityAggregate
	s.m.Range(func(_, v any) bool {
		agg := v.(*domain.CommunityAggregate)
		if agg.TotalReports >= minReports {
			out = append(out, agg.Clone())
		}
		return true
	})
	return out, nil
}
