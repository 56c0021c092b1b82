package parser

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// currencyMarkers are stripped from numeric text before parsing. Codes
// before symbols so "R$" is consumed in one piece.
var currencyMarkers = []string{
	"USD", "EUR", "GBP", "BRL", "CHF", "CAD", "AUD",
	"R$", "$", "€", "£", "¥", "₹",
}

// ParseNumber parses broker-formatted numeric text into a decimal.
//
// It strips currency markers and whitespace, treats parenthesized values as
// negative (accounting notation), and distinguishes European decimal commas
// from thousands separators: a comma followed by exactly 1-2 trailing digits
// is a decimal point, anything else is a separator. Failure is an error, not
// zero, so callers can tell "0" from "unparsable".
func ParseNumber(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")

	s = normalizeSeparators(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("no digits in %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites localized separator usage into plain decimal
// notation.
func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// European: 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// US: 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if isDecimalComma(s) {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}

// isDecimalComma reports whether the single comma style looks like a
// European decimal separator: the string ends in a comma followed by one or
// two digits.
func isDecimalComma(s string) bool {
	idx := strings.LastIndex(s, ",")
	if idx < 0 || strings.Count(s, ",") != 1 {
		return false
	}
	tail := s[idx+1:]
	if len(tail) == 0 || len(tail) > 2 {
		return false
	}
	for _, r := range tail {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// dateLayouts are tried in order after a direct RFC 3339 attempt.
// Day-first layouts come before month-first since the importer's main
// sources (Trading212, DEGIRO) are European exports.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02, 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"01/02/2006",
	"20060102;150405",
	"20060102",
	"02-Jan-2006",
}

// ParseDate parses a timestamp in any supported layout. It never fails: an
// unparsable or empty value yields the current time and ok=false so the
// caller can record a warning instead of dropping the row.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Now().UTC(), false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Now().UTC(), false
}
