// Package core provides money parsing and handling utilities.
//
// This file contains the Money type used for record amounts. Amounts keep
// full decimal precision internally; rounding to two places happens only
// when an amount is displayed.
package core

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a non-floating decimal amount.
type Money struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{Decimal: decimal.Zero}

// MustMoney parses s and panics on failure. Intended for tests and constants.
func MustMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

// ParseAmount converts an amount string that already satisfies the amount
// rule into Money. It does not apply the rule itself.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{Decimal: d}, nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

// Cmp compares m and o like strings.Compare.
func (m Money) Cmp(o Money) int {
	return m.Decimal.Cmp(o.Decimal)
}

// Equal reports whether m and o denote the same amount regardless of scale.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// Display formats the amount rounded to two decimal places, e.g. "12.50".
func (m Money) Display() string {
	return m.Decimal.StringFixed(2)
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		m.Decimal = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	m.Decimal = d
	return nil
}
