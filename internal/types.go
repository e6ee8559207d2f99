package internal

// Provenance records which acquisition method produced a piece of text or
// table data. Downstream trust decisions (and the exported record) carry it.
type Provenance string

const (
	SourceDirect Provenance = "direct"
	SourceOCR    Provenance = "ocr"
	SourceTable  Provenance = "table-engine"
	SourceXLSX   Provenance = "xlsx"
	SourceHTML   Provenance = "html"
)

// AcquireState is the terminal (or last reached) state of the direct-to-OCR
// fallback chain for one document.
type AcquireState string

const (
	AcquireNotAttempted       AcquireState = "not_attempted"
	AcquireDirectSucceeded    AcquireState = "direct_succeeded"
	AcquireDirectInsufficient AcquireState = "direct_insufficient"
	AcquireOcrAttempted       AcquireState = "ocr_attempted"
	AcquireFailed             AcquireState = "failed"
)

// RawDocumentText is the full text of one document plus its provenance.
// Immutable once produced.
type RawDocumentText struct {
	Text   string
	Source Provenance
	State  AcquireState
}

func (t RawDocumentText) Failed() bool { return t.State == AcquireFailed }

// RawTable is an ordered sequence of rows of cell strings, as recovered by
// one of the table engines. The first row is usually, but not always, a
// header row; schema inference decides.
type RawTable struct {
	Rows   [][]string
	Source Provenance
}

type ItemKind string

const (
	ItemProduct ItemKind = "product"
	ItemService ItemKind = "service"
)

// LineItem is one row of commercial detail. Numeric fields are nil when the
// source text omitted them or they could not be parsed; absence is a valid
// state, not an error.
type LineItem struct {
	Code        *string  `json:"product_code"`
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	TotalPrice  *float64 `json:"total_price"`
	PORef       *string  `json:"po_number,omitempty"`

	// Raw tokens that looked numeric but failed to parse. Feeds
	// malformed_value findings; never serialized.
	Malformed []string `json:"-"`
}

type SupplierInfo struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

type DiscrepancyKind string

const (
	ArithmeticMismatch DiscrepancyKind = "arithmetic_mismatch"
	MissingReference   DiscrepancyKind = "missing_reference"
	MalformedValue     DiscrepancyKind = "malformed_value"
)

// ConsistencyFinding names one detected discrepancy: the item (or PO token)
// it concerns and the expected vs observed values.
type ConsistencyFinding struct {
	Kind     DiscrepancyKind `json:"kind"`
	ItemRef  string          `json:"item_ref"`
	Expected string          `json:"expected"`
	Observed string          `json:"observed"`
}

type CategoryReport struct {
	Findings []ConsistencyFinding `json:"findings"`
	Total    int                  `json:"total_inconsistencies"`
}

type ConsistencyReport struct {
	Products CategoryReport `json:"product_inconsistencies"`
	Services CategoryReport `json:"service_inconsistencies"`
	PO       CategoryReport `json:"po_inconsistencies"`
}

func (r ConsistencyReport) Total() int {
	return r.Products.Total + r.Services.Total + r.PO.Total
}

type ExtractionStatus string

const (
	StatusOK     ExtractionStatus = "ok"
	StatusFailed ExtractionStatus = "failed"
)

// ExtractionRecord is the root entity, one per input document, immutable
// after assembly. Absent scalars serialize as null; empty collections as [].
type ExtractionRecord struct {
	InvoiceNumber *string           `json:"invoice_number"`
	SupplierInfo  *SupplierInfo     `json:"supplier_info"`
	PONumbers     []string          `json:"po_numbers"`
	Products      []LineItem        `json:"products"`
	Services      []LineItem        `json:"services"`
	Consistency   ConsistencyReport `json:"consistency_report"`
	Status        ExtractionStatus  `json:"extraction_status"`
	TextSource    *string           `json:"text_source"`
}

// DocumentKind tells the assembler which acquisition path applies.
type DocumentKind string

const (
	DocPDF  DocumentKind = "pdf"
	DocXLSX DocumentKind = "xlsx"
	DocHTML DocumentKind = "html"
)

type DocumentSource string

const (
	DocSourceFS   DocumentSource = "fs"
	DocSourceMail DocumentSource = "mail"
)

// DocumentRow mirrors one row of the documents work queue.
type DocumentRow struct {
	ID        int
	EmailID   *int
	Source    DocumentSource
	Kind      DocumentKind
	Path      string
	Hash      string
	Status    string
	CreatedAt string
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// RecordExportRow is one flattened line of the XLSX review sheet: a line
// item or a consistency finding of one document.
type RecordExportRow struct {
	DocumentID    int
	InvoiceNumber *string
	RowType       string // "product" | "service" | "finding"
	Code          *string
	Description   string
	Quantity      *float64
	UnitPrice     *float64
	TotalPrice    *float64
	FindingKind   *string
	Expected      *string
	Observed      *string
}
