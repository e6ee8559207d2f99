package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"invox/internal/config"
	"invox/internal/engine"
	"invox/internal/listener"
	"invox/internal/pipeline"
	"invox/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

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
	processor := pipeline.NewProcessingService(db, cfg, assembler, logger)

	svc := listener.NewService(db, cfg, processor, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
