// Package phone normalizes phone numbers into the E.164 keys used by the
// community aggregate.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	ErrInvalidFormat  = errors.New("invalid phone format: ensure it includes country code (e.g. +569...)")
	ErrInvalidNumber  = errors.New("invalid phone number: number does not exist")
	ErrUnknownCountry = errors.New("could not detect country from phone number")
)

// Number is a parsed, validated phone number.
type Number struct {
	E164   string
	Region string
	parsed *phonenumbers.PhoneNumber
}

// Parse validates raw and returns its E.164 form. defaultRegion (ISO 3166-1
// alpha-2) is used when raw has no leading '+'.
func Parse(raw, defaultRegion string) (*Number, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidFormat
	}
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" && !strings.HasPrefix(raw, "+") {
		return nil, ErrInvalidFormat
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, ErrInvalidNumber
	}

	detected := phonenumbers.GetRegionCodeForNumber(num)
	if detected == "" || detected == "ZZ" {
		return nil, ErrUnknownCountry
	}

	return &Number{
		E164:   phonenumbers.Format(num, phonenumbers.E164),
		Region: detected,
		parsed: num,
	}, nil
}

// Normalize is Parse without a default region, returning only the key.
func Normalize(raw string) (string, error) {
	n, err := Parse(raw, "")
	if err != nil {
		return "", err
	}
	return n.E164, nil
}

// IsInputError tells whether err came from bad caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrInvalidNumber) || errors.Is(err, ErrUnknownCountry)
}

// LineType names the number type as reported by the metadata.
func (n *Number) LineType() string {
	switch phonenumbers.GetNumberType(n.parsed) {
	case phonenumbers.MOBILE:
		return "mobile"
	case phonenumbers.FIXED_LINE:
		return "fixed_line"
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return "fixed_line_or_mobile"
	case phonenumbers.TOLL_FREE:
		return "toll_free"
	case phonenumbers.PREMIUM_RATE:
		return "premium_rate"
	case phonenumbers.VOIP:
		return "voip"
	case phonenumbers.SHARED_COST:
		return "shared_cost"
	default:
		return "unknown"
	}
}

// Carrier is the original carrier name, empty when the metadata has none.
func (n *Number) Carrier() string {
	name, err := phonenumbers.GetCarrierForNumber(n.parsed, "en")
	if err != nil {
		return ""
	}
	return name
}

// Location is a coarse geographic description, empty when unknown.
func (n *Number) Location() string {
	loc, err := phonenumbers.GetGeocodingForNumber(n.parsed, "en")
	if err != nil {
		return ""
	}
	return loc
}
