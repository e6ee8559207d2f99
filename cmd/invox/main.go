package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"invox/internal/config"
	"invox/internal/connectors"
	gmailconnector "invox/internal/connectors/gmail"
	imapconnector "invox/internal/connectors/imap"
	"invox/internal/engine"
	"invox/internal/listener"
	"invox/internal/pipeline"
	"invox/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	processor := newProcessor(db, cfg, logger)
	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "document file or directory")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		queued, err := ingest(processor, *input)
		must(err)
		res, err := processor.ProcessPending(ctx, queued)
		must(err)
		fmt.Printf("process done queued=%d processed=%d failed=%d\n", queued, res.Processed, res.Failed)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "document file or directory")
		export := fs.String("export", "", "optional review xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		queued, err := ingest(processor, *input)
		must(err)
		res, err := processor.ProcessPending(ctx, queued)
		must(err)
		fmt.Printf("run done queued=%d processed=%d failed=%d output=%s\n", queued, res.Processed, res.Failed, cfg.OutputDir)
		if strings.TrimSpace(*export) != "" {
			rows, err := processor.ExportAll(*export)
			must(err)
			fmt.Printf("exported %d rows to %s\n", rows, *export)
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(ctx, *provider, *messageID)
			must(err)
			fmt.Printf("processed message documents=%d failed=%d\n", res.Processed, res.Failed)
			return
		}
		res, err := processor.ProcessPendingMail(ctx, *batch, *provider)
		must(err)
		fmt.Printf("processed pending mail documents=%d failed=%d\n", res.Processed, res.Failed)
	case "mail:listen":
		s := listener.NewService(db, cfg, processor, logger)
		must(s.Run(ctx))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		rows, err := processor.ExportAll(*out)
		must(err)
		fmt.Printf("exported %d rows to %s\n", rows, *out)
	default:
		usage()
		os.Exit(1)
	}
}

func newProcessor(db *storage.DB, cfg config.Config, logger *slog.Logger) *pipeline.ProcessingService {
	ocr := engine.NewOCR(engine.OCRConfig{
		Pdftoppm:  cfg.OCRPdftoppm,
		Tesseract: cfg.OCRTesseract,
		Lang:      cfg.OCRLang,
		DPI:       cfg.OCRDpi,
		MaxPages:  cfg.OCRMaxPages,
	}, engine.ExecRunner{}, logger)

	text := pipeline.NewTextAcquirer(engine.DirectText{}, ocr, cfg.MinCharThreshold)
	tables := pipeline.NewTableAcquirer(engine.PDFTables{})
	assembler := pipeline.NewAssembler(cfg, text, tables)
	return pipeline.NewProcessingService(db, cfg, assembler, logger)
}

// ingest queues one file, or every supported file directly under a
// directory, and returns how many documents were queued.
func ingest(processor *pipeline.ProcessingService, input string) (int, error) {
	info, err := os.Stat(input)
	if err != nil {
		return 0, err
	}

	if !info.IsDir() {
		if _, err := processor.IngestPath(input); err != nil {
			return 0, err
		}
		return 1, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(input, entry.Name())
		if _, err := processor.IngestPath(path); err != nil {
			// Unsupported extensions are expected in mixed directories.
			continue
		}
		queued++
	}
	if queued == 0 {
		return 0, fmt.Errorf("no processable documents in %s", input)
	}
	return queued, nil
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: invox <command>")
	fmt.Println("commands:")
	fmt.Println("  process --input=invoice.pdf|./invoices/")
	fmt.Println("  run --input=./invoices/ [--export=./out/review.xlsx]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  export:xlsx --out=./out/review.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
