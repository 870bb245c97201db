package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source records how a message reached the analyzer.
type Source string

const (
	SourceSMS    Source = "sms"
	SourceManual Source = "manual"
	SourceAPI    Source = "api"
)

// Feedback is the owning user's opinion of a stored verdict.
type Feedback string

const (
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
	FeedbackUnsure    Feedback = "unsure"
)

// Message is an analyzed piece of content owned by exactly one user.
// Only IsBlocked (at creation) and UserFeedback (later) are ever written
// after the analysis is attached.
type Message struct {
	ID           uuid.UUID    `json:"id" bson:"id"`
	UserID       string       `json:"user_id" bson:"user_id"`
	Content      string       `json:"content" bson:"content"`
	Sender       string       `json:"sender,omitempty" bson:"sender,omitempty"`
	SenderPhone  string       `json:"sender_phone,omitempty" bson:"sender_phone,omitempty"`
	Source       Source       `json:"source" bson:"source"`
	Analysis     SpamAnalysis `json:"analysis" bson:"analysis"`
	IsBlocked    bool         `json:"is_blocked" bson:"is_blocked"`
	UserFeedback *Feedback    `json:"user_feedback" bson:"user_feedback"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
}

// NewMessage stamps a fresh id and creation time.
func NewMessage(userID, content, sender, senderPhone string, src Source, analysis SpamAnalysis) *Message {
	return &Message{
		ID:          uuid.New(),
		UserID:      userID,
		Content:     content,
		Sender:      sender,
		SenderPhone: senderPhone,
		Source:      src,
		Analysis:    analysis,
		CreatedAt:   time.Now().UTC(),
	}
}

// FeedbackStats summarizes the feedback a user left on their verdicts.
type FeedbackStats struct {
	TotalWithFeedback int     `json:"total_with_feedback"`
	Correct           int     `json:"correct"`
	Incorrect         int     `json:"incorrect"`
	Unsure            int     `json:"unsure"`
	Accuracy          float64 `json:"accuracy"`
}

// NewFeedbackStats derives accuracy over the decisive answers only.
func NewFeedbackStats(correct, incorrect, unsure int) FeedbackStats {
	s := FeedbackStats{
		TotalWithFeedback: correct + incorrect + unsure,
		Correct:           correct,
		Incorrect:         incorrect,
		Unsure:            unsure,
	}
	if decisive := correct + incorrect; decisive > 0 {
		s.Accuracy = float64(correct) / float64(decisive)
	}
	return s
}

// MessageFilter narrows a history listing.
type MessageFilter struct {
	SpamOnly bool
}

// MessageStats summarizes everything a user has had analyzed.
type MessageStats struct {
	TotalAnalyzed    int              `json:"total_analyzed"`
	TotalSpam        int              `json:"total_spam"`
	TotalSafe        int              `json:"total_safe"`
	SpamByCategory   map[Category]int `json:"spam_by_category"`
	BlockedCount     int              `json:"blocked_count"`
	AccuracyFeedback FeedbackStats    `json:"accuracy_feedback"`
}
