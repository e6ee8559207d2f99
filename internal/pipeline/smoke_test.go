package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"invox/internal"
	"invox/internal/config"
	"invox/internal/storage"
)

const invoiceMail = "From: billing@acme.example\r\n" +
	"To: ap@customer.example\r\n" +
	"Subject: Invoice INV-88 for purchase order 4410\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body>" +
	"<p>Invoice Number: INV-88</p>" +
	"<table>" +
	"<tr><th>Description</th><th>Qty</th><th>Unit Price</th><th>Total</th></tr>" +
	"<tr><td>Conduit clips</td><td>40</td><td>0.25</td><td>10.00</td></tr>" +
	"<tr><td>Consulting, PO-4410</td><td>2</td><td>80.00</td><td>170.00</td></tr>" +
	"</table></body></html>\r\n"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	tmp := t.TempDir()
	return config.Config{
		DBPath:           filepath.Join(tmp, "invox.db"),
		DocDir:           filepath.Join(tmp, "docs"),
		RawMailDir:       filepath.Join(tmp, "raw"),
		OutputDir:        filepath.Join(tmp, "out"),
		MinCharThreshold: 100,
		MaxLineMerge:     6,
		PriceTolerance:   0.01,
	}
}

// End-to-end over the mail path: stored .eml in, JSON record and review
// sheet out. Uses an inline HTML invoice so no external binaries run.
func TestSmokeMailToRecord(t *testing.T) {
	cfg := testConfig(t)
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rawPath := filepath.Join(cfg.RawMailDir, "fixture.eml")
	if err := os.MkdirAll(cfg.RawMailDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rawPath, []byte(invoiceMail), 0o644); err != nil {
		t.Fatal(err)
	}

	email, err := db.UpsertEmail("imap", "<fixture-1@acme.example>", "Invoice INV-88", "billing@acme.example", "2026-08-24T00:00:00Z", "hash", rawPath, "fetched")
	if err != nil {
		t.Fatal(err)
	}

	assembler := NewAssembler(cfg, NewTextAcquirer(stubText{}, stubOCR{}, cfg.MinCharThreshold), NewTableAcquirer(stubTables{}))
	proc := NewProcessingService(db, cfg, assembler, nil)

	res, err := proc.ProcessEmail(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 || res.Failed != 0 {
		t.Fatalf("res=%+v", res)
	}

	stored, err := db.ListRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("records=%d", len(stored))
	}

	var record internal.ExtractionRecord
	if err := json.Unmarshal([]byte(stored[0].RecordJSON), &record); err != nil {
		t.Fatal(err)
	}
	if record.Status != internal.StatusOK {
		t.Fatalf("status=%s", record.Status)
	}
	if len(record.Products) != 1 || len(record.Services) != 1 {
		t.Fatalf("products=%d services=%d", len(record.Products), len(record.Services))
	}
	// 2 x 80.00 != 170.00: the consistency check must catch it.
	if record.Consistency.Services.Total != 1 {
		t.Fatalf("service findings=%+v", record.Consistency.Services.Findings)
	}
	// PO-4410 is referenced by an item; the mail text declares no PO list,
	// so it must be flagged as a missing reference.
	if record.Consistency.PO.Total != 1 {
		t.Fatalf("po findings=%+v", record.Consistency.PO.Findings)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".json") {
			found = true
			blob, err := os.ReadFile(filepath.Join(cfg.OutputDir, entry.Name()))
			if err != nil {
				t.Fatal(err)
			}
			if err := ValidateRecordJSON(blob); err != nil {
				t.Fatal(err)
			}
		}
	}
	if !found {
		t.Fatal("no JSON record written")
	}

	xlsxOut := filepath.Join(cfg.OutputDir, "review.xlsx")
	rows, err := proc.ExportAll(xlsxOut)
	if err != nil {
		t.Fatal(err)
	}
	if rows == 0 {
		t.Fatal("no export rows")
	}
	if _, err := os.Stat(xlsxOut); err != nil {
		t.Fatal(err)
	}
}

// A batch keeps going when one document cannot be read at all.
func TestSmokeBatchContinuesPastFailure(t *testing.T) {
	cfg := testConfig(t)
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	docDir := filepath.Join(cfg.DocDir)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		t.Fatal(err)
	}
	badPDF := filepath.Join(docDir, "broken.pdf")
	if err := os.WriteFile(badPDF, []byte("%PDF-garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	goodHTML := filepath.Join(docDir, "invoice.html")
	html := `<html><body><table>
<tr><th>Description</th><th>Qty</th><th>Price</th><th>Total</th></tr>
<tr><td>Wall plugs</td><td>100</td><td>0.05</td><td>5.00</td></tr>
</table></body></html>`
	if err := os.WriteFile(goodHTML, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}

	// Engines that always error: the broken PDF degrades to a failed
	// record instead of sinking the batch.
	assembler := NewAssembler(cfg,
		NewTextAcquirer(stubText{err: os.ErrInvalid}, stubOCR{err: os.ErrInvalid}, cfg.MinCharThreshold),
		NewTableAcquirer(stubTables{err: os.ErrInvalid}))
	proc := NewProcessingService(db, cfg, assembler, nil)

	if _, err := proc.IngestPath(badPDF); err != nil {
		t.Fatal(err)
	}
	if _, err := proc.IngestPath(goodHTML); err != nil {
		t.Fatal(err)
	}

	res, err := proc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 2 {
		t.Fatalf("res=%+v", res)
	}

	stored, err := db.ListRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("records=%d", len(stored))
	}

	statuses := map[internal.ExtractionStatus]int{}
	for _, rec := range stored {
		var record internal.ExtractionRecord
		if err := json.Unmarshal([]byte(rec.RecordJSON), &record); err != nil {
			t.Fatal(err)
		}
		statuses[record.Status]++
	}
	if statuses[internal.StatusFailed] != 1 || statuses[internal.StatusOK] != 1 {
		t.Fatalf("statuses=%v", statuses)
	}
}
