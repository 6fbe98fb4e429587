package price

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimal(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "integer", input: "65000", want: "65000", wantOK: true},
		{name: "fraction with spaces", input: " 0.0000035 ", want: "0.0000035", wantOK: true},
		{name: "scientific within bounds", input: "1.5e-8", want: "0.000000015", wantOK: true},
		{name: "smallest exponent", input: "1e-30", want: "0." + strings.Repeat("0", 29) + "1", wantOK: true},
		{name: "tiny exponent", input: "1e-1000000"},
		{name: "huge exponent", input: "1e2000000"},
		{name: "exponent just past the bound", input: "1e31"},
		{name: "too many digits", input: strings.Repeat("9", 41)},
		{name: "text longer than the limit", input: "1." + strings.Repeat("0", 70)},
		{name: "empty", input: "  "},
		{name: "garbage", input: "n/a"},
		{name: "infinity", input: "Infinity"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDecimal(tc.input)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got.String())
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	got, ok := ParseFloat("2500.5")
	assert.True(t, ok)
	assert.Equal(t, 2500.5, got)

	_, ok = ParseFloat("1e-400")
	assert.False(t, ok)
}
