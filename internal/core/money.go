// Package core holds the invoice domain: saved records, line items, and the
// pure computations over them (totals, payment status, amount in words,
// invoice numbering).
//
// This file contains the permissive parsing used for amounts typed by a user
// while an invoice is still being edited.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user input to a non-negative amount.
//
// The whole trimmed input must be a number; a numeric prefix followed by other
// characters is not read. Blank, unparsable, non-finite and negative inputs
// all yield 0 rather than an error: partially typed values are expected while
// an invoice is being edited.
//
// Examples:
//
//	ParseAmount("12.5")  -> 12.5
//	ParseAmount(" 300 ") -> 300
//	ParseAmount("abc")   -> 0
//	ParseAmount("12abc") -> 0
//	ParseAmount("-4")    -> 0
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return NonNegative(v)
}

// NonNegative clamps v to [0, +Inf) and maps NaN and infinities to 0.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// FormatAmount renders an amount in its shortest round-trip decimal form,
// e.g. 1500 -> "1500", 12.5 -> "12.5".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
