package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"invox/internal/config"
	"invox/internal/connectors"
	gmailconnector "invox/internal/connectors/gmail"
	imapconnector "invox/internal/connectors/imap"
	"invox/internal/pipeline"
	"invox/internal/storage"
)

// Service is the mail intake daemon: fetch new messages, process the
// invoice documents they carry, refresh the review export, sleep, repeat.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
	logger    *slog.Logger
}

func NewService(db *storage.DB, cfg config.Config, processor *pipeline.ProcessingService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, cfg: cfg, processor: processor, logger: logger}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			s.logger.Error("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	batch, err := s.processor.ProcessPendingMail(ctx, s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	if s.cfg.MailListenerAutoExport && batch.Processed > 0 {
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", "records.xlsx")
		if _, err := s.processor.ExportAll(outputPath); err != nil {
			return err
		}
	}

	s.logger.Info("listener cycle done",
		"provider", provider,
		"fetched", fetchResult.Fetched,
		"stored", fetchResult.Stored,
		"processed", batch.Processed,
		"failed", batch.Failed,
	)
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
