package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces       = regexp.MustCompile(`\s+`)
	reSplitPrice   = regexp.MustCompile(`(?i)P\s*r\s*i\s*c\s*e\s*:`)
	reSplitQty     = regexp.MustCompile(`(?i)Q\s*ty\s*:`)
	reSplitTotal   = regexp.MustCompile(`(?i)T\s*o\s*t\s*a\s*l\s*:`)
	reSplitInvoice = regexp.MustCompile(`(?i)I\s*n\s*v\s*o\s*i\s*c\s*e`)
)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// StripNonPrintable drops control characters and other non-printable
// artifacts OCR tends to introduce, keeping newlines and tabs as spaces.
func StripNonPrintable(input string) string {
	out := strings.Builder{}
	out.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n':
			out.WriteRune('\n')
		case r == '\t' || r == '\r':
			out.WriteRune(' ')
		case r < 0x20 || r == 0xFFFD:
			// skip
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

// CleanLine repairs labels that direct extraction or OCR split with stray
// spaces ("P r i c e:" becomes "Price:") so one regex set works across
// provenances.
func CleanLine(line string) string {
	line = reSplitPrice.ReplaceAllString(line, "Price:")
	line = reSplitQty.ReplaceAllString(line, "Qty:")
	line = reSplitTotal.ReplaceAllString(line, "Total:")
	line = reSplitInvoice.ReplaceAllString(line, "Invoice")
	return line
}

// SplitLines splits on newlines, trimming and dropping empty lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
