package pipeline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"invox/internal"
)

// TablesFromHTML pulls every <table> out of an HTML invoice body. Layout
// tables slip through here; schema inference filters them out later.
func TablesFromHTML(html string) ([]internal.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := []internal.RawTable{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		cellRows := [][]string{}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(strings.Join(strings.Fields(cell.Text()), " ")))
			})
			if rowHasContent(cells) {
				cellRows = append(cellRows, cells)
			}
		})
		if len(cellRows) >= 2 {
			out = append(out, internal.RawTable{Rows: cellRows, Source: internal.SourceHTML})
		}
	})
	return out, nil
}
