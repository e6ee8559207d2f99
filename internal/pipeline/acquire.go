package pipeline

import (
	"context"
	"strings"

	"invox/internal"
)

type TextEngine interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type OCREngine interface {
	ExtractOCR(ctx context.Context, path string) (string, error)
}

type TableEngine interface {
	ExtractTables(ctx context.Context, path string) ([]internal.RawTable, error)
}

// TextAcquirer obtains raw text for a document: direct extraction first,
// OCR when the direct text falls below the minimum-viable threshold.
// Failure is encoded in the returned state, never raised past the boundary.
type TextAcquirer struct {
	direct   TextEngine
	ocr      OCREngine
	minChars int
}

func NewTextAcquirer(direct TextEngine, ocr OCREngine, minChars int) *TextAcquirer {
	if minChars <= 0 {
		minChars = 100
	}
	return &TextAcquirer{direct: direct, ocr: ocr, minChars: minChars}
}

// Acquire walks the fallback chain. Genuinely short digital documents
// (single-line receipts) trip the threshold and get OCRed too; that is an
// accepted limitation of a fixed threshold.
func (a *TextAcquirer) Acquire(ctx context.Context, path string) internal.RawDocumentText {
	direct, derr := a.direct.ExtractText(ctx, path)
	if derr == nil && len(strings.TrimSpace(direct)) >= a.minChars {
		return internal.RawDocumentText{Text: direct, Source: internal.SourceDirect, State: internal.AcquireDirectSucceeded}
	}

	ocrText, oerr := a.ocr.ExtractOCR(ctx, path)
	if oerr == nil {
		// May legitimately be empty: "extracted but empty" is not a failure.
		return internal.RawDocumentText{Text: ocrText, Source: internal.SourceOCR, State: internal.AcquireOcrAttempted}
	}

	if derr == nil && strings.TrimSpace(direct) != "" {
		// OCR broke but direct produced something short; short beats none.
		return internal.RawDocumentText{Text: direct, Source: internal.SourceDirect, State: internal.AcquireDirectInsufficient}
	}

	return internal.RawDocumentText{State: internal.AcquireFailed}
}

// TableAcquirer wraps the table engine as a best-effort enrichment: any
// engine fault degrades to "no tables", never to a fatal error.
type TableAcquirer struct {
	engine TableEngine
}

func NewTableAcquirer(engine TableEngine) *TableAcquirer {
	return &TableAcquirer{engine: engine}
}

func (a *TableAcquirer) Acquire(ctx context.Context, path string) []internal.RawTable {
	tables, err := a.engine.ExtractTables(ctx, path)
	if err != nil {
		return nil
	}
	return tables
}
