package phone_test

import (
	"testing"

	"github.com/rgdevment/spamguard/internal/phone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		Name     string
		Raw      string
		Region   string
		Expected string
		Err      error
	}{
		{"e164 passthrough", "+12015550123", "", "+12015550123", nil},
		{"spaces and dashes", "+1 201-555-0123", "", "+12015550123", nil},
		{"national with region", "(201) 555-0123", "us", "+12015550123", nil},
		{"turkish mobile", "+90 501 234 56 78", "", "+905012345678", nil},
		{"no country code", "4155552671", "", "", phone.ErrInvalidFormat},
		{"garbage", "call me", "US", "", phone.ErrInvalidFormat},
		{"empty", "  ", "US", "", phone.ErrInvalidFormat},
		{"too short to exist", "+1 415", "", "", phone.ErrInvalidNumber},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			n, err := phone.Parse(tc.Raw, tc.Region)
			if tc.Err != nil {
				require.Error(t, err)
				assert.True(t, phone.IsInputError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, n.E164)
		})
	}
}

func TestParseRegionAndLineType(t *testing.T) {
	n, err := phone.Parse("+905012345678", "")
	require.NoError(t, err)
	assert.Equal(t, "TR", n.Region)
	assert.Equal(t, "mobile", n.LineType())
}
