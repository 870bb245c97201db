package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportCategory represents the specific type of threat a user reported.
// Using a custom type prevents string typos in the business logic.
type ReportCategory string

const (
	ReportScam          ReportCategory = "scam"
	ReportFraud         ReportCategory = "fraud"
	ReportPhishing      ReportCategory = "phishing"
	ReportBetting       ReportCategory = "betting"
	ReportTelemarketing ReportCategory = "telemarketing"
	ReportRobocall      ReportCategory = "robocall"
	ReportPromotional   ReportCategory = "promotional"
	ReportLottery       ReportCategory = "lottery"
	ReportInvestment    ReportCategory = "investment"
	ReportMalware       ReportCategory = "malware"
	ReportOther         ReportCategory = "other"
)

var reportCategories = map[ReportCategory]bool{
	ReportScam: true, ReportFraud: true, ReportPhishing: true, ReportBetting: true,
	ReportTelemarketing: true, ReportRobocall: true, ReportPromotional: true,
	ReportLottery: true, ReportInvestment: true, ReportMalware: true, ReportOther: true,
}

// ParseReportCategory matches case-insensitively against the closed set.
func ParseReportCategory(s string) (ReportCategory, bool) {
	c := ReportCategory(strings.ToLower(strings.TrimSpace(s)))
	return c, reportCategories[c]
}

// SpamReport is the raw evidence input entity. It is append-only.
type SpamReport struct {
	ID          uuid.UUID      `json:"id" bson:"id"`
	PhoneNumber string         `json:"phone_number" bson:"phone_number"` // E.164 format
	Category    ReportCategory `json:"category" bson:"category"`
	Reason      string         `json:"reason,omitempty" bson:"reason,omitempty"`
	CallerName  string         `json:"caller_name,omitempty" bson:"caller_name,omitempty"`

	// ReportedBy is the HMAC-SHA256 of the reporter's user id.
	// We NEVER store the raw reporter id for privacy reasons.
	ReportedBy string    `json:"reported_by" bson:"reported_by"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// NewSpamReport is a factory to create a clean report instance.
// Note: It expects the reporter hash to be already calculated by the caller (Service layer).
func NewSpamReport(phone string, cat ReportCategory, reason, callerName, reporterHash string) *SpamReport {
	return &SpamReport{
		ID:          uuid.New(),
		PhoneNumber: phone,
		Category:    cat,
		Reason:      reason,
		CallerName:  strings.TrimSpace(callerName),
		ReportedBy:  reporterHash,
		CreatedAt:   time.Now().UTC(),
	}
}
