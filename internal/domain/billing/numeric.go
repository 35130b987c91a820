package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// parseOrZero coerces raw operator input to a decimal quantity.
// Anything that does not parse as a number computes as zero; the raw
// text stays on the line untouched so the form can echo it back.
// This is the only place free-form numeric input is interpreted.
func parseOrZero(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// percentOf returns pct% of amount rounded to 2 decimal places.
func percentOf(pct, amount decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred).Mul(amount).Round(2)
}
