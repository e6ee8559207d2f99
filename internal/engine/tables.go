package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"invox/internal"
)

// Column break: horizontal whitespace wider than this many points between
// two words on the same row.
const columnGap = 14.0

// PDFTables reconstructs tabular rows from the positioned text of each PDF
// page: words sharing a row are clustered into cells on wide horizontal
// gaps. Pages where fewer than two rows split into multiple cells yield
// nothing; scanned pages carry no positioned text at all, which is why the
// text/OCR path exists independently.
type PDFTables struct{}

func (PDFTables) ExtractTables(ctx context.Context, path string) ([]internal.RawTable, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var out []internal.RawTable
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			continue
		}

		cellRows := make([][]string, 0, len(rows))
		for _, row := range rows {
			cells := clusterCells(row.Content)
			if len(cells) >= 2 {
				cellRows = append(cellRows, cells)
			}
		}
		if len(cellRows) >= 2 {
			out = append(out, internal.RawTable{Rows: cellRows, Source: internal.SourceTable})
		}
	}
	return out, nil
}

func clusterCells(words pdf.TextHorizontal) []string {
	if len(words) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(words))
	copy(sorted, words)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	cells := []string{}
	current := strings.Builder{}
	prevEnd := sorted[0].X

	for idx, w := range sorted {
		text := strings.TrimSpace(w.S)
		if text == "" {
			continue
		}
		if idx > 0 && w.X-prevEnd > columnGap {
			if current.Len() > 0 {
				cells = append(cells, strings.TrimSpace(current.String()))
			}
			current.Reset()
		} else if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(text)
		prevEnd = w.X + w.W
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}
	return cells
}
