// Package core holds the transaction domain and money helpers.
//
// Amounts live in memory as decimals and are persisted as integer cents.
package core

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimals used for presentation.
const MoneyPlaces = 2

// FitsCents reports whether d is exactly representable in integer cents.
func FitsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

// FromCents converts stored integer cents to a decimal with two places.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyPlaces)
}

// ToCents converts a decimal amount to integer cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(MoneyPlaces).Round(0).IntPart()
}

// RoundMoney rounds to presentation precision. Half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatMoney renders a decimal with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}
