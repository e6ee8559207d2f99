package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	thousandsDot   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	thousandsComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	multiDot       = regexp.MustCompile(`\.\.+`)
	digitRun       = regexp.MustCompile(`\d+`)
)

// ParseAmount parses a monetary token into a float, tolerating currency
// symbols, OCR artifacts and thousands/decimal separator variants.
// Returns nil when no number can be recovered.
func ParseAmount(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", "_", "", " ", " ").Replace(s)
	// OCR reads a currency sign as a capital S often enough to special-case.
	s = strings.TrimPrefix(s, "S")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".,", ".")

	switch {
	case thousandsComma.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case thousandsDot.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	case strings.Contains(s, ",") && !strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	// Multiple dots: everything before the last one is the integer part.
	if parts := strings.Split(s, "."); len(parts) > 2 {
		s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}
	s = multiDot.ReplaceAllString(s, ".")

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return FloatPtr(parsed)
}

// ParseQuantity parses an integer-like quantity token ("10", "10 units").
func ParseQuantity(raw string) *float64 {
	token := digitRun.FindString(strings.TrimSpace(raw))
	if token == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return FloatPtr(parsed)
}
