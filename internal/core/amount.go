// Package core provides the domain types and parsing utilities shared by
// the statement engine and its adapters.
//
// This file contains the defensive amount parsing applied where raw data
// enters the system. Malformed input is recovered with a zero fallback and
// never propagated as an error.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a raw amount string to a non-negative decimal
// magnitude. It tolerates embedded currency markers ("€ 1.234,56",
// "USD 50"), both comma and dot decimal separators, and thousand
// separators. Garbage input yields zero, not an error.
//
// Examples:
//
//	ParseAmount("12.34")      -> 12.34
//	ParseAmount("€ 1.234,56") -> 1234.56
//	ParseAmount("-12,5")      -> 12.5 (magnitude)
//	ParseAmount("n/a")        -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	// Keep digits and separators only; currency symbols and codes go.
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}

	// The last separator wins as the decimal point; earlier ones are
	// thousand separators.
	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')
	sep := lastDot
	if lastComma > sep {
		sep = lastComma
	}
	if sep >= 0 {
		intPart := stripSeparators(cleaned[:sep])
		fracPart := stripSeparators(cleaned[sep+1:])
		cleaned = intPart + "." + fracPart
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs()
}

func stripSeparators(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", "")
}
