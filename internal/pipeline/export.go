package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"invox/internal"
)

// WriteRecordJSON serializes one record to its output file, checking the
// result against the record schema first so a contract regression fails
// loudly at the writer instead of in a consumer.
func WriteRecordJSON(record internal.ExtractionRecord, outputPath string) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := ValidateRecordJSON(data); err != nil {
		return fmt.Errorf("record contract: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// RecordOutputPath derives <outputDir>/<document base>.json.
func RecordOutputPath(outputDir, docPath string) string {
	base := filepath.Base(docPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, base+".json")
}

// FlattenRecord expands one record into review-sheet rows: every line item,
// then every consistency finding.
func FlattenRecord(documentID int, record internal.ExtractionRecord) []internal.RecordExportRow {
	rows := []internal.RecordExportRow{}

	addItems := func(items []internal.LineItem, rowType string) {
		for _, item := range items {
			rows = append(rows, internal.RecordExportRow{
				DocumentID:    documentID,
				InvoiceNumber: record.InvoiceNumber,
				RowType:       rowType,
				Code:          item.Code,
				Description:   item.Description,
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
				TotalPrice:    item.TotalPrice,
			})
		}
	}
	addItems(record.Products, "product")
	addItems(record.Services, "service")

	addFindings := func(cat internal.CategoryReport) {
		for _, f := range cat.Findings {
			kind := string(f.Kind)
			expected := f.Expected
			observed := f.Observed
			rows = append(rows, internal.RecordExportRow{
				DocumentID:    documentID,
				InvoiceNumber: record.InvoiceNumber,
				RowType:       "finding",
				Description:   f.ItemRef,
				FindingKind:   &kind,
				Expected:      &expected,
				Observed:      &observed,
			})
		}
	}
	addFindings(record.Consistency.Products)
	addFindings(record.Consistency.Services)
	addFindings(record.Consistency.PO)

	return rows
}

// ExportRecordsToXLSX writes the flattened review sheet for a batch.
func ExportRecordsToXLSX(rows []internal.RecordExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"document_id", "invoice_number", "row_type",
		"product_code", "description", "quantity", "unit_price", "total_price",
		"finding_kind", "expected", "observed",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.DocumentID)
		set(2, derefString(row.InvoiceNumber))
		set(3, row.RowType)
		set(4, derefString(row.Code))
		set(5, row.Description)
		set(6, derefFloat(row.Quantity))
		set(7, derefFloat(row.UnitPrice))
		set(8, derefFloat(row.TotalPrice))
		set(9, derefString(row.FindingKind))
		set(10, derefString(row.Expected))
		set(11, derefString(row.Observed))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
