// Package money converts between decimal amounts at the API boundary and the
// int64 cent values stored in the database.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// centsExp is the decimal exponent of one cent.
const centsExp = -2

var hundred = decimal.NewFromInt(100)

// ToCents converts a decimal amount to cents. Amounts with more than two
// fraction digits are rejected rather than rounded.
func ToCents(d decimal.Decimal) (int64, error) {
	if d.Exponent() < centsExp && !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("amount %s has more than 2 decimal places", d.String())
	}
	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %s is not a whole number of cents", d.String())
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s is out of range", d.String())
	}
	return cents.IntPart(), nil
}

// ParseCents parses a decimal string such as "250.00" into cents.
func ParseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return ToCents(d)
}

// FromCents converts cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, centsExp)
}

// Format renders cents with exactly two fraction digits, e.g. 25000 -> "250.00".
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// Scale multiplies cents by num/den and rounds half away from zero to the
// nearest cent.
func Scale(cents, num, den int64) int64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(num)).
		Div(decimal.NewFromInt(den)).
		Round(0).
		IntPart()
}

// Percent returns part as a percentage of whole, or 0 when whole is zero.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(part).
		Mul(hundred).
		Div(decimal.NewFromInt(whole)).
		Round(2).
		Float64()
	return pct
}
