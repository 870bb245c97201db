package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rgdevment/spamguard/internal/domain"
)

var errBoom = errors.New("boom")

type MockRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.Message
	settings map[string]*domain.UserSettings
	reports  []*domain.SpamReport
	counters map[string]domain.UserCounters

	failSaveMessage bool
	failSettings    bool
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		messages: make(map[uuid.UUID]*domain.Message),
		settings: make(map[string]*domain.UserSettings),
		reports:  []*domain.SpamReport{},
		counters: make(map[string]domain.UserCounters),
	}
}

// MessageRepository

type mockMessages struct{ *MockRepo }

func (m mockMessages) Save(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveMessage {
		return errBoom
	}
	m.messages[msg.ID] = msg
	return nil
}

func (m mockMessages) Get(_ context.Context, userID string, id uuid.UUID) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok && msg.UserID == userID {
		return msg, nil
	}
	return nil, nil
}

func (m mockMessages) List(_ context.Context, userID string, f domain.MessageFilter, limit, offset int) ([]*domain.Message, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Message
	for _, msg := range m.messages {
		if msg.UserID == userID && (!f.SpamOnly || msg.Analysis.IsSpam) {
			all = append(all, msg)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []*domain.Message{}, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m mockMessages) Delete(_ context.Context, userID string, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok && msg.UserID == userID {
		delete(m.messages, id)
		return true, nil
	}
	return false, nil
}

func (m mockMessages) SetFeedback(_ context.Context, userID string, id uuid.UUID, fb domain.Feedback) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok && msg.UserID == userID {
		msg.UserFeedback = &fb
		return true, nil
	}
	return false, nil
}

func (m mockMessages) CountFeedback(_ context.Context, userID string) (map[domain.Feedback]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[domain.Feedback]int{}
	for _, msg := range m.messages {
		if msg.UserID == userID && msg.UserFeedback != nil {
			out[*msg.UserFeedback]++
		}
	}
	return out, nil
}

func (m mockMessages) Stats(_ context.Context, userID string) (*domain.MessageStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &domain.MessageStats{SpamByCategory: map[domain.Category]int{}}
	for _, msg := range m.messages {
		if msg.UserID != userID {
			continue
		}
		out.TotalAnalyzed++
		if msg.Analysis.IsSpam {
			out.TotalSpam++
			out.SpamByCategory[msg.Analysis.Category]++
		} else {
			out.TotalSafe++
		}
		if msg.IsBlocked {
			out.BlockedCount++
		}
	}
	return out, nil
}

// SettingsRepository

type mockSettings struct{ *MockRepo }

func (m mockSettings) Get(_ context.Context, userID string) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSettings {
		return nil, errBoom
	}
	s, ok := m.settings[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Whitelist = append([]domain.WhitelistEntry{}, s.Whitelist...)
	cp.Blacklist = append([]domain.BlacklistEntry{}, s.Blacklist...)
	return &cp, nil
}

func (m mockSettings) Save(_ context.Context, s *domain.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID] = s
	return nil
}

// ReportRepository

type mockReports struct{ *MockRepo }

func (m mockReports) Save(_ context.Context, r *domain.SpamReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func (m mockReports) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.reports {
		if r.ID == id {
			m.reports = append(m.reports[:i], m.reports[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m mockReports) ListByReporter(_ context.Context, hash string, limit, offset int) ([]*domain.SpamReport, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []*domain.SpamReport
	for i := len(m.reports) - 1; i >= 0; i-- {
		if m.reports[i].ReportedBy == hash {
			mine = append(mine, m.reports[i])
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return []*domain.SpamReport{}, total, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, total, nil
}

// CounterRepository

type mockCounters struct{ *MockRepo }

func (m mockCounters) Increment(_ context.Context, userID string, analyzed, blocked int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.counters[userID]
	c.TotalMessagesAnalyzed += analyzed
	c.TotalSpamBlocked += blocked
	m.counters[userID] = c
	return nil
}

func (m mockCounters) Get(_ context.Context, userID string) (domain.UserCounters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[userID], nil
}

// StatsCache

type mapCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.PhoneStats
	invalidated []string
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]*domain.PhoneStats{}} }

func (c *mapCache) Get(_ context.Context, phone string) (*domain.PhoneStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[phone]
	return s, ok
}

func (c *mapCache) Set(_ context.Context, s *domain.PhoneStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[s.PhoneNumber] = s
}

func (c *mapCache) Invalidate(_ context.Context, phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, phone)
	c.invalidated = append(c.invalidated, phone)
}
