package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/phone"
)

var ErrLookupFailed = errors.New("caller-id lookup failed")

// callerIDResponse is the wire shape of the caller-ID service.
type callerIDResponse struct {
	Name      string `json:"name"`
	Carrier   string `json:"carrier"`
	LineType  string `json:"line_type"`
	Location  string `json:"location"`
	IsSpam    bool   `json:"is_spam"`
	SpamScore int    `json:"spam_score"`
}

// HTTP queries a remote caller-ID service and fills gaps from the offline
// metadata.
type HTTP struct {
	client   *resty.Client
	fallback *Offline
}

func NewHTTP(baseURL, apiKey string, timeout time.Duration) *HTTP {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &HTTP{client: client, fallback: NewOffline()}
}

func (*HTTP) Name() string { return "caller-id" }

func (h *HTTP) Lookup(ctx context.Context, num *phone.Number) (*domain.CallerInfo, error) {
	var body callerIDResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"number":  num.E164,
			"country": num.Region,
		}).
		SetResult(&body).
		Get("/lookup")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode())
	}

	info, _ := h.fallback.Lookup(ctx, num)
	info.Source = h.Name()
	info.Name = body.Name
	info.IsSpam = body.IsSpam
	info.SpamScore = clampScore(body.SpamScore)
	if body.Carrier != "" {
		info.Carrier = body.Carrier
	}
	if body.LineType != "" {
		info.LineType = body.LineType
	}
	if body.Location != "" {
		info.Location = body.Location
	}
	return info, nil
}

func clampScore(s int) int {
	switch {
	case s < 0:
		return 0
	case s > domain.MaxSpamScore:
		return domain.MaxSpamScore
	}
	return s
}
