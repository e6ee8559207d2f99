package pipeline

import "invox/internal/util"

// PrepareLines turns raw acquired text into match-ready lines: strips
// non-printable OCR artifacts, collapses whitespace and repairs labels that
// extraction split apart, so the same pattern set works for every
// provenance.
func PrepareLines(text string) []string {
	lines := util.SplitLines(util.StripNonPrintable(text))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = util.NormalizeSpaces(util.CleanLine(line))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
