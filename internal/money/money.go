// Package money normalizes display-formatted amounts into integer values in
// the smallest currency unit, and formats them back for display.
package money

import (
	"strconv"
	"strings"
)

// Sanitize parses a display-formatted amount string into a non-negative
// integer amount. Grouping separators (dot or comma) are stripped, and a
// trailing 1-2 digit decimal remainder (e.g. a ".00" appended by formatting
// tools) is dropped. A string that cannot be parsed sanitizes to 0; Sanitize
// never fails.
func Sanitize(input string) int64 {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0
	}

	// A trailing separator followed by 1-2 digits is a decimal remainder,
	// not a grouping separator. "500.000.00" -> "500.000"; "290.000.000"
	// keeps its last group because it has 3 digits.
	if i := strings.LastIndexAny(s, ".,"); i >= 0 {
		frac := s[i+1:]
		if len(frac) >= 1 && len(frac) <= 2 && allDigits(frac) {
			s = s[:i]
		}
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Clamp returns an already-numeric amount unchanged, guarding only against
// negatives. It is the numeric-input counterpart of Sanitize.
func Clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Format renders an amount with a grouping separator every three digits.
// Zero formats to the empty string so input placeholders stay blank.
func Format(v int64) string {
	if v <= 0 {
		return ""
	}

	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
