package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/apperr"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/phone"
)

const maxEntryValueLength = 100

type settingsService struct {
	settings SettingsRepository
	counters CounterRepository
	log      zerolog.Logger
}

func NewSettingsService(settings SettingsRepository, counters CounterRepository, log zerolog.Logger) SettingsService {
	return &settingsService{settings: settings, counters: counters, log: log}
}

func (s *settingsService) load(ctx context.Context, userID string) (*domain.UserSettings, error) {
	st, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, apperr.Database("get settings", err)
	}
	if st == nil {
		return domain.DefaultUserSettings(userID), nil
	}
	return st, nil
}

func (s *settingsService) save(ctx context.Context, st *domain.UserSettings) (*domain.UserSettings, error) {
	if err := s.settings.Save(ctx, st); err != nil {
		return nil, apperr.Database("save settings", err)
	}
	return st, nil
}

// cleanEntry validates an entry and normalizes phone values to E.164
// when they parse.
func cleanEntry(in ListEntryInput) (ListEntryInput, error) {
	in.Value = strings.TrimSpace(in.Value)
	if in.Value == "" || utf8.RuneCountInString(in.Value) > maxEntryValueLength {
		return in, apperr.InvalidInput("value", "must be between 1 and 100 characters")
	}
	switch in.Type {
	case "":
		in.Type = domain.EntrySender
	case domain.EntryPhone, domain.EntrySender, domain.EntryKeyword:
	default:
		return in, apperr.InvalidInput("type", "must be one of phone, sender, keyword")
	}
	if in.Type == domain.EntryPhone {
		if e164, err := phone.Normalize(in.Value); err == nil {
			in.Value = e164
		}
	}
	in.Note = strings.TrimSpace(in.Note)
	return in, nil
}

// removalKeys is the raw value plus its E.164 form, if any.
func removalKeys(value string) []string {
	value = strings.TrimSpace(value)
	keys := []string{value}
	if e164, err := phone.Normalize(value); err == nil && e164 != value {
		keys = append(keys, e164)
	}
	return keys
}

func matchesAny(v string, keys []string) bool {
	for _, k := range keys {
		if strings.EqualFold(v, k) {
			return true
		}
	}
	return false
}

func (s *settingsService) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	return s.load(ctx, userID)
}

func (s *settingsService) AddWhitelist(ctx context.Context, userID string, in ListEntryInput) (*domain.UserSettings, error) {
	in, err := cleanEntry(in)
	if err != nil {
		return nil, err
	}
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.HasWhitelisted(in.Value) {
		return nil, apperr.Conflict("value already in whitelist")
	}
	st.Whitelist = append(st.Whitelist, domain.WhitelistEntry{Value: in.Value, Type: in.Type, Note: in.Note})
	return s.save(ctx, st)
}

func (s *settingsService) RemoveWhitelist(ctx context.Context, userID, value string) (*domain.UserSettings, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	keys := removalKeys(value)
	kept := make([]domain.WhitelistEntry, 0, len(st.Whitelist))
	for _, e := range st.Whitelist {
		if !matchesAny(e.Value, keys) {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(st.Whitelist) {
		return nil, apperr.NotFound("whitelist entry")
	}
	st.Whitelist = kept
	return s.save(ctx, st)
}

func (s *settingsService) AddBlacklist(ctx context.Context, userID string, in ListEntryInput) (*domain.UserSettings, error) {
	in, err := cleanEntry(in)
	if err != nil {
		return nil, err
	}
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.HasBlacklisted(in.Value) {
		return nil, apperr.Conflict("value already in blacklist")
	}
	st.Blacklist = append(st.Blacklist, domain.BlacklistEntry{Value: in.Value, Type: in.Type, Reason: in.Note})
	return s.save(ctx, st)
}

func (s *settingsService) RemoveBlacklist(ctx context.Context, userID, value string) (*domain.UserSettings, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	keys := removalKeys(value)
	kept := make([]domain.BlacklistEntry, 0, len(st.Blacklist))
	for _, e := range st.Blacklist {
		if !matchesAny(e.Value, keys) {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(st.Blacklist) {
		return nil, apperr.NotFound("blacklist entry")
	}
	st.Blacklist = kept
	return s.save(ctx, st)
}

func (s *settingsService) UpdateAutoBlock(ctx context.Context, userID string, enabled bool, threshold float64) (*domain.UserSettings, error) {
	if threshold < 0 || threshold > 1 || threshold != threshold {
		return nil, apperr.InvalidInput("threshold", "must be between 0 and 1")
	}
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	st.AutoBlockSpam = enabled
	st.AutoBlockThreshold = threshold
	return s.save(ctx, st)
}

func (s *settingsService) Counters(ctx context.Context, userID string) (domain.UserCounters, error) {
	c, err := s.counters.Get(ctx, userID)
	if err != nil {
		return domain.UserCounters{}, apperr.Database("get counters", err)
	}
	return c, nil
}
