package domain

import "strings"

// EntryType tells how a list entry was meant; matching ignores it.
type EntryType string

const (
	EntryPhone   EntryType = "phone"
	EntrySender  EntryType = "sender"
	EntryKeyword EntryType = "keyword"
)

const (
	DefaultAutoBlockSpam      = true
	DefaultAutoBlockThreshold = 0.8
)

// WhitelistEntry marks a sender the user trusts.
type WhitelistEntry struct {
	Value string    `json:"value" bson:"value"`
	Type  EntryType `json:"type" bson:"type"`
	Note  string    `json:"note,omitempty" bson:"note,omitempty"`
}

// BlacklistEntry marks a sender the user always wants blocked.
type BlacklistEntry struct {
	Value  string    `json:"value" bson:"value"`
	Type   EntryType `json:"type" bson:"type"`
	Reason string    `json:"reason,omitempty" bson:"reason,omitempty"`
}

// UserSettings is the per-user record read at analysis time.
type UserSettings struct {
	UserID             string           `json:"user_id" bson:"user_id"`
	Whitelist          []WhitelistEntry `json:"whitelist" bson:"whitelist"`
	Blacklist          []BlacklistEntry `json:"blacklist" bson:"blacklist"`
	AutoBlockSpam      bool             `json:"auto_block_spam" bson:"auto_block_spam"`
	AutoBlockThreshold float64          `json:"auto_block_threshold" bson:"auto_block_threshold"`
}

// DefaultUserSettings is what a user gets before saving anything.
func DefaultUserSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:             userID,
		Whitelist:          []WhitelistEntry{},
		Blacklist:          []BlacklistEntry{},
		AutoBlockSpam:      DefaultAutoBlockSpam,
		AutoBlockThreshold: DefaultAutoBlockThreshold,
	}
}

// AllowValues flattens the whitelist for the resolver.
func (s *UserSettings) AllowValues() []string {
	out := make([]string, 0, len(s.Whitelist))
	for _, e := range s.Whitelist {
		out = append(out, e.Value)
	}
	return out
}

// DenyValues flattens the blacklist for the resolver.
func (s *UserSettings) DenyValues() []string {
	out := make([]string, 0, len(s.Blacklist))
	for _, e := range s.Blacklist {
		out = append(out, e.Value)
	}
	return out
}

// HasWhitelisted reports whether value is already on the whitelist.
func (s *UserSettings) HasWhitelisted(value string) bool {
	for _, e := range s.Whitelist {
		if strings.EqualFold(e.Value, value) {
			return true
		}
	}
	return false
}

// HasBlacklisted reports whether value is already on the blacklist.
func (s *UserSettings) HasBlacklisted(value string) bool {
	for _, e := range s.Blacklist {
		if strings.EqualFold(e.Value, value) {
			return true
		}
	}
	return false
}

// UserCounters are the lifetime totals kept per user.
type UserCounters struct {
	TotalMessagesAnalyzed int64 `json:"total_messages_analyzed" bson:"total_messages_analyzed"`
	TotalSpamBlocked      int64 `json:"total_spam_blocked" bson:"total_spam_blocked"`
}
