package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type OCRConfig struct {
	Pdftoppm  string // binary name or absolute path; empty means "pdftoppm"
	Tesseract string // binary name or absolute path; empty means "tesseract"
	Lang      string // default "eng"
	DPI       int    // rasterization DPI, default 300
	MaxPages  int    // 0 = no limit
}

// OCR rasterizes PDF pages with pdftoppm and reads them with tesseract.
// Used only when direct extraction yields below-threshold text.
type OCR struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

func NewOCR(cfg OCRConfig, runner Runner, logger *slog.Logger) *OCR {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OCR{cfg: cfg, runner: runner, logger: logger}
}

func (e *OCR) ExtractOCR(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "invox-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm rendered no pages for %s", path)
	}

	var b strings.Builder
	for _, img := range matches {
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, img, "stdout", "-l", e.cfg.Lang)
		if err != nil {
			e.logger.Warn("tesseract failed on page", "image", img, "error", err, "stderr", truncate(string(errb), 512))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.Write(out)
	}
	return b.String(), nil
}
