package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DirectText retrieves machine-encoded text embedded in a PDF, page by page.
// Pages that fail to decode are skipped; only an unreadable file is an error.
type DirectText struct{}

func (DirectText) ExtractText(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
