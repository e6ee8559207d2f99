package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"invox/internal"
	"invox/internal/config"
	"invox/internal/storage"
)

// ProcessingService drives documents through the queue: ingest, assemble,
// persist, export. One document failing never stops the batch; its status
// is recorded and the loop moves on.
type ProcessingService struct {
	db        *storage.DB
	cfg       config.Config
	assembler *Assembler
	logger    *slog.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, assembler *Assembler, logger *slog.Logger) *ProcessingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingService{db: db, cfg: cfg, assembler: assembler, logger: logger}
}

// IngestPath registers a filesystem document in the work queue. The kind
// follows the extension; unknown extensions are rejected here rather than
// failing later inside an engine.
func (s *ProcessingService) IngestPath(path string) (internal.DocumentRow, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return internal.DocumentRow{}, err
	}

	kind, err := kindFromPath(path)
	if err != nil {
		return internal.DocumentRow{}, err
	}

	sum := sha256.Sum256(content)
	return s.db.UpsertDocument(nil, internal.DocSourceFS, kind, path, hex.EncodeToString(sum[:]))
}

func kindFromPath(path string) (internal.DocumentKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return internal.DocPDF, nil
	case ".xlsx", ".xls":
		return internal.DocXLSX, nil
	case ".html", ".htm":
		return internal.DocHTML, nil
	default:
		return "", fmt.Errorf("unsupported document type: %s", path)
	}
}

type BatchResult struct {
	Processed int
	Failed    int
}

// ProcessPending works through queued documents. Failures mark the
// document and continue; a batch result reports both tallies.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int) (BatchResult, error) {
	pending, err := s.db.ListDocumentsByStatus("pending", limit)
	if err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	for _, doc := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.ProcessDocument(ctx, doc); err != nil {
			s.logger.Error("document processing failed", "documentId", doc.ID, "path", doc.Path, "error", err)
			_ = s.db.UpdateDocumentStatus(doc.ID, "error")
			res.Failed++
			continue
		}
		res.Processed++
	}
	return res, nil
}

// ProcessDocument assembles one document, writes its JSON record and
// stores it. Content-level failure (unreadable scan) still produces a
// record; only infrastructure faults surface as errors.
func (s *ProcessingService) ProcessDocument(ctx context.Context, doc internal.DocumentRow) (internal.ExtractionRecord, error) {
	start := time.Now()

	var record internal.ExtractionRecord
	switch doc.Kind {
	case internal.DocPDF:
		record = s.assembler.Assemble(ctx, doc.Path)
	case internal.DocXLSX:
		content, err := os.ReadFile(doc.Path)
		if err != nil {
			return internal.ExtractionRecord{}, err
		}
		tables, err := TablesFromXLSX(content)
		if err != nil {
			record = FailedRecord()
		} else {
			record = s.assembler.AssembleTables(tables, internal.SourceXLSX)
		}
	case internal.DocHTML:
		content, err := os.ReadFile(doc.Path)
		if err != nil {
			return internal.ExtractionRecord{}, err
		}
		tables, err := TablesFromHTML(string(content))
		if err != nil {
			record = FailedRecord()
		} else {
			record = s.assembler.AssembleTables(tables, internal.SourceHTML)
		}
	default:
		return internal.ExtractionRecord{}, fmt.Errorf("unsupported document kind: %s", doc.Kind)
	}

	outputPath := RecordOutputPath(s.cfg.OutputDir, outputBase(doc))
	if err := WriteRecordJSON(record, outputPath); err != nil {
		return internal.ExtractionRecord{}, err
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return internal.ExtractionRecord{}, err
	}
	textSource := ""
	if record.TextSource != nil {
		textSource = *record.TextSource
	}
	if err := s.db.InsertRecord(doc.ID, record.InvoiceNumber, string(record.Status), textSource, record.Consistency.Total(), string(recordJSON)); err != nil {
		return internal.ExtractionRecord{}, err
	}

	status := "processed"
	if record.Status == internal.StatusFailed {
		status = "failed"
	}
	if err := s.db.UpdateDocumentStatus(doc.ID, status); err != nil {
		return internal.ExtractionRecord{}, err
	}

	timings, _ := json.Marshal(map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())})
	counts, _ := json.Marshal(map[string]int{
		"products":        len(record.Products),
		"services":        len(record.Services),
		"poNumbers":       len(record.PONumbers),
		"inconsistencies": record.Consistency.Total(),
	})
	_ = s.db.InsertRun(uuid.NewString(), doc.ID, string(timings), string(counts))

	s.logger.Info("document processed",
		"documentId", doc.ID,
		"status", record.Status,
		"products", len(record.Products),
		"services", len(record.Services),
		"inconsistencies", record.Consistency.Total(),
	)
	return record, nil
}

// outputBase disambiguates output filenames with the document id so two
// inputs named invoice.pdf cannot overwrite each other's record.
func outputBase(doc internal.DocumentRow) string {
	base := filepath.Base(doc.Path)
	return fmt.Sprintf("%d-%s", doc.ID, base)
}

// ProcessEmail scores one fetched message and, when it looks like an
// invoice mail, queues and processes every document it carries.
func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (BatchResult, error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return BatchResult{}, err
	}

	docs, subject, text, html, err := ExtractDocumentsFromEmailRaw(raw, s.cfg.DocDir)
	if err != nil {
		return BatchResult{}, err
	}

	detect := DetectInvoiceMail(firstNonEmpty(subject, email.Subject), text, html, AttachmentNames(raw))
	if !detect.IsInvoice {
		_ = s.db.UpdateEmailStatus(email.ID, "skipped")
		s.logger.Info("mail skipped", "emailId", email.ID, "score", detect.Score)
		return BatchResult{}, nil
	}

	var res BatchResult
	for _, intake := range docs {
		doc, err := s.db.UpsertDocument(&email.ID, internal.DocSourceMail, intake.Kind, intake.Path, intake.Hash)
		if err != nil {
			return res, err
		}
		if _, err := s.ProcessDocument(ctx, doc); err != nil {
			s.logger.Error("mail document failed", "emailId", email.ID, "documentId", doc.ID, "error", err)
			_ = s.db.UpdateDocumentStatus(doc.ID, "error")
			res.Failed++
			continue
		}
		res.Processed++
	}

	if err := s.db.UpdateEmailStatus(email.ID, "processed"); err != nil {
		return res, err
	}
	return res, nil
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (BatchResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return BatchResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

func (s *ProcessingService) ProcessPendingMail(ctx context.Context, limit int, provider string) (BatchResult, error) {
	pending, err := s.db.ListEmailsByStatus("fetched", limit)
	if err != nil {
		return BatchResult{}, err
	}

	var total BatchResult
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			s.logger.Error("mail processing failed", "emailId", email.ID, "error", err)
			_ = s.db.UpdateEmailStatus(email.ID, "error")
			continue
		}
		total.Processed += res.Processed
		total.Failed += res.Failed
	}
	return total, nil
}

// ExportAll writes the flattened review sheet covering every stored record.
func (s *ProcessingService) ExportAll(outputPath string) (int, error) {
	stored, err := s.db.ListRecords()
	if err != nil {
		return 0, err
	}

	rows := []internal.RecordExportRow{}
	for _, rec := range stored {
		var record internal.ExtractionRecord
		if err := json.Unmarshal([]byte(rec.RecordJSON), &record); err != nil {
			continue
		}
		rows = append(rows, FlattenRecord(rec.DocumentID, record)...)
	}

	if err := ExportRecordsToXLSX(rows, outputPath); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
