package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"invox/internal"
)

// TablesFromXLSX reads every sheet of a spreadsheet invoice into raw
// tables. Sheets are trusted as-is; schema inference downstream decides
// what is actually a line-item table.
func TablesFromXLSX(content []byte) ([]internal.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	out := []internal.RawTable{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		cellRows := [][]string{}
		for _, row := range rows {
			cells := normalizeCells(row)
			if rowHasContent(cells) {
				cellRows = append(cellRows, cells)
			}
		}
		if len(cellRows) >= 2 {
			out = append(out, internal.RawTable{Rows: cellRows, Source: internal.SourceXLSX})
		}
	}
	return out, nil
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func rowHasContent(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return true
		}
	}
	return false
}
