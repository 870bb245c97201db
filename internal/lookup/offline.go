package lookup

import (
	"context"

	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/phone"
)

// Offline answers from the numbering-plan metadata bundled with
// phonenumbers. It never fails and never knows a caller's name.
type Offline struct{}

func NewOffline() *Offline { return &Offline{} }

func (*Offline) Name() string { return "offline" }

func (*Offline) Lookup(_ context.Context, num *phone.Number) (*domain.CallerInfo, error) {
	return &domain.CallerInfo{
		PhoneNumber: num.E164,
		CountryCode: num.Region,
		Carrier:     num.Carrier(),
		LineType:    num.LineType(),
		Location:    num.Location(),
		Source:      "offline",
	}, nil
}
