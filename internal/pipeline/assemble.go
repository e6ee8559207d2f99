package pipeline

import (
	"context"

	"invox/internal"
	"invox/internal/config"
	"invox/internal/util"
)

// Assembler drives one document through acquisition, extraction and
// validation and produces the final record. It never returns an error for
// bad document content; total acquisition failure becomes a failed-status
// record so one broken file cannot sink a batch.
type Assembler struct {
	text      *TextAcquirer
	tables    *TableAcquirer
	extractor *FieldExtractor
	validator *Validator
}

func NewAssembler(cfg config.Config, text *TextAcquirer, tables *TableAcquirer) *Assembler {
	return &Assembler{
		text:      text,
		tables:    tables,
		extractor: NewFieldExtractor(cfg),
		validator: NewValidator(cfg.PriceTolerance),
	}
}

// Assemble processes one PDF path end to end.
func (a *Assembler) Assemble(ctx context.Context, path string) internal.ExtractionRecord {
	text := a.text.Acquire(ctx, path)
	tables := a.tables.Acquire(ctx, path)
	return a.build(text, tables)
}

// AssembleTables processes a document that arrives as tables only, with no
// page text to acquire: spreadsheet attachments and HTML mail bodies.
func (a *Assembler) AssembleTables(tables []internal.RawTable, source internal.Provenance) internal.ExtractionRecord {
	text := internal.RawDocumentText{Source: source, State: internal.AcquireNotAttempted}
	return a.build(text, tables)
}

func (a *Assembler) build(text internal.RawDocumentText, tables []internal.RawTable) internal.ExtractionRecord {
	if text.Failed() && len(tables) == 0 {
		return FailedRecord()
	}

	fields := a.extractor.Extract(text, tables)
	report := a.validator.Validate(fields.Products, fields.Services, fields.PONumbers)

	record := internal.ExtractionRecord{
		InvoiceNumber: fields.InvoiceNumber,
		SupplierInfo:  fields.Supplier,
		PONumbers:     fields.PONumbers,
		Products:      fields.Products,
		Services:      fields.Services,
		Consistency:   report,
		Status:        internal.StatusOK,
	}
	if text.Source != "" {
		record.TextSource = util.StringPtr(string(text.Source))
	}
	return record
}

// FailedRecord is the canonical shape for a document nothing could be read
// from: every field absent, collections empty, status failed.
func FailedRecord() internal.ExtractionRecord {
	return internal.ExtractionRecord{
		PONumbers: []string{},
		Products:  []internal.LineItem{},
		Services:  []internal.LineItem{},
		Consistency: internal.ConsistencyReport{
			Products: internal.CategoryReport{Findings: []internal.ConsistencyFinding{}},
			Services: internal.CategoryReport{Findings: []internal.ConsistencyFinding{}},
			PO:       internal.CategoryReport{Findings: []internal.ConsistencyFinding{}},
		},
		Status: internal.StatusFailed,
	}
}
