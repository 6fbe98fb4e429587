package price

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds for a price accepted from the feed or read back from the store.
// Anything outside them is treated as malformed.
const (
	MaxTextLength = 64
	MaxDigits     = 40
	MinExponent   = -30
	MaxExponent   = 30
)

// ParseDecimal parses s as a finite price within the bounds above. The length
// and exponent checks run before any float conversion.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxTextLength {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if exp := d.Exponent(); exp < MinExponent || exp > MaxExponent {
		return decimal.Decimal{}, false
	}
	if d.NumDigits() > MaxDigits {
		return decimal.Decimal{}, false
	}

	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseFloat is ParseDecimal converted to float64.
func ParseFloat(s string) (float64, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}
