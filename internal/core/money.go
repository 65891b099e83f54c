// Package core provides the funding record model, amount parsing and the
// summary table types shared by the aggregator and the reporter.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts an AMOUNT COMMITTED cell to a decimal.
//
// Currency symbols, thousands separators and surrounding blanks are ignored.
// An empty cell is zero, matching how a missing amount contributes nothing
// to a sum. Negative amounts (de-obligations) are kept.
//
// Examples:
//
//	ParseAmount("1500000")      -> 1500000
//	ParseAmount("$1,250,000.50") -> 1250000.5
//	ParseAmount("")             -> 0
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Percentage returns part/total*100 rounded to two decimals. The result is
// invalid when total is zero.
func Percentage(part, total decimal.Decimal) decimal.NullDecimal {
	if total.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(part.Mul(hundred).Div(total).Round(2))
}

// FormatPercentage renders a percentage with two decimals, or the empty
// string when undefined.
func FormatPercentage(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return p.Decimal.StringFixed(2)
}

// ParsePercentage is the inverse of FormatPercentage.
func ParsePercentage(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
