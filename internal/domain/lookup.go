package domain

// CallerInfo is a caller-ID answer, optionally enriched with community data.
type CallerInfo struct {
	PhoneNumber      string `json:"phone_number"`
	CountryCode      string `json:"country_code"`
	Name             string `json:"name,omitempty"`
	Carrier          string `json:"carrier,omitempty"`
	LineType         string `json:"line_type,omitempty"`
	Location         string `json:"location,omitempty"`
	IsSpam           bool   `json:"is_spam"`
	SpamScore        int    `json:"spam_score"`
	Source           string `json:"source"`
	CommunityReports *int   `json:"community_reports,omitempty"`
}
