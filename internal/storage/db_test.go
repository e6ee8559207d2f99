package storage

import (
	"path/filepath"
	"testing"

	"invox/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertDocumentIdempotentOnHash(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertDocument(nil, internal.DocSourceFS, internal.DocPDF, "/docs/a.pdf", "hash-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.UpsertDocument(nil, internal.DocSourceFS, internal.DocPDF, "/moved/a.pdf", "hash-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %d vs %d", first.ID, second.ID)
	}
	if second.Path != "/moved/a.pdf" {
		t.Fatalf("path=%s", second.Path)
	}
	if second.Status != "pending" {
		t.Fatalf("status=%s", second.Status)
	}
}

func TestDocumentStatusLifecycle(t *testing.T) {
	db := openTestDB(t)

	doc, err := db.UpsertDocument(nil, internal.DocSourceFS, internal.DocXLSX, "/docs/b.xlsx", "hash-2")
	if err != nil {
		t.Fatal(err)
	}

	pending, err := db.ListDocumentsByStatus("pending", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending=%d", len(pending))
	}

	if err := db.UpdateDocumentStatus(doc.ID, "processed"); err != nil {
		t.Fatal(err)
	}
	pending, err = db.ListDocumentsByStatus("pending", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending=%d", len(pending))
	}
}

func TestInsertRecordReplacesPrevious(t *testing.T) {
	db := openTestDB(t)

	doc, err := db.UpsertDocument(nil, internal.DocSourceFS, internal.DocPDF, "/docs/c.pdf", "hash-3")
	if err != nil {
		t.Fatal(err)
	}

	inv := "INV-1"
	if err := db.InsertRecord(doc.ID, &inv, "ok", "direct", 0, `{"v":1}`); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRecord(doc.ID, &inv, "ok", "ocr", 2, `{"v":2}`); err != nil {
		t.Fatal(err)
	}

	records, err := db.ListRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records=%d", len(records))
	}
	if records[0].RecordJSON != `{"v":2}` {
		t.Fatalf("json=%s", records[0].RecordJSON)
	}
}

func TestEmailRoundTrip(t *testing.T) {
	db := openTestDB(t)

	email, err := db.UpsertEmail("imap", "<m1@x>", "Invoice", "a@x", "2026-08-24T00:00:00Z", "h", "/raw/m1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.MustEmailByProviderMessageID("imap", "<m1@x>")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != email.ID || got.Subject != "Invoice" {
		t.Fatalf("got=%+v", got)
	}

	if _, err := db.MustEmailByProviderMessageID("imap", "<missing@x>"); err == nil {
		t.Fatal("expected error for unknown message")
	}

	if err := db.UpdateEmailStatus(email.ID, "processed"); err != nil {
		t.Fatal(err)
	}
	fetched, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetched) != 0 {
		t.Fatalf("fetched=%d", len(fetched))
	}
}
