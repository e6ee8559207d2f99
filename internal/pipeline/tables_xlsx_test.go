package pipeline

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"invox/internal"
)

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatal(err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTablesFromXLSX(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"Description", "Qty", "Unit Price", "Total"},
		{"Anchor bolts", 25, 0.80, 20.00},
		{"Maintenance visit", 1, 150.00, 150.00},
	})

	tables, err := TablesFromXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("tables=%d", len(tables))
	}
	if tables[0].Source != internal.SourceXLSX {
		t.Fatalf("source=%s", tables[0].Source)
	}

	items, kinds := itemsFromTables(tables)
	if len(items) != 2 {
		t.Fatalf("items=%+v", items)
	}
	if items[0].Quantity == nil || *items[0].Quantity != 25 {
		t.Fatalf("qty=%v", items[0].Quantity)
	}
	if kinds[1] != internal.ItemService {
		t.Fatalf("kind=%s", kinds[1])
	}
}

func TestTablesFromXLSXBadBlob(t *testing.T) {
	if _, err := TablesFromXLSX([]byte("not a spreadsheet")); err == nil {
		t.Fatal("expected error")
	}
}
