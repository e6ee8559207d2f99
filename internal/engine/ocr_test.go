package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

// fakeRunner simulates the pdftoppm/tesseract pair: the rasterizer call
// creates page images at the requested prefix, the reader call returns
// canned text per image.
type fakeRunner struct {
	pages       int
	pdftoppmErr error
	perPage     map[string]string
	calls       []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name)

	if strings.Contains(name, "pdftoppm") {
		if r.pdftoppmErr != nil {
			return nil, []byte("rasterizer exploded"), r.pdftoppmErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= r.pages; i++ {
			path := fmt.Sprintf("%s-%d.png", prefix, i)
			if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}

	img := args[0]
	if text, ok := r.perPage[img[strings.LastIndex(img, "-")+1:]]; ok {
		return []byte(text), nil, nil
	}
	return []byte("page text"), nil, nil
}

func TestOCRExtractsAllPages(t *testing.T) {
	runner := &fakeRunner{pages: 2, perPage: map[string]string{
		"1.png": "first page",
		"2.png": "second page",
	}}
	ocr := NewOCR(OCRConfig{}, runner, nil)

	got, err := ocr.ExtractOCR(context.Background(), "scan.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if got != "first page\nsecond page" {
		t.Fatalf("got=%q", got)
	}
}

func TestOCRMaxPagesCap(t *testing.T) {
	runner := &fakeRunner{pages: 5}
	ocr := NewOCR(OCRConfig{MaxPages: 2}, runner, nil)

	_, err := ocr.ExtractOCR(context.Background(), "scan.pdf")
	if err != nil {
		t.Fatal(err)
	}
	// One pdftoppm call plus tesseract for only the first two pages.
	if len(runner.calls) != 3 {
		t.Fatalf("calls=%v", runner.calls)
	}
}

func TestOCRPdftoppmFailure(t *testing.T) {
	runner := &fakeRunner{pdftoppmErr: errors.New("exit 1")}
	ocr := NewOCR(OCRConfig{}, runner, nil)

	_, err := ocr.ExtractOCR(context.Background(), "scan.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "pdftoppm") {
		t.Fatalf("err=%v", err)
	}
}

func TestOCRNoPagesRendered(t *testing.T) {
	runner := &fakeRunner{pages: 0}
	ocr := NewOCR(OCRConfig{}, runner, nil)

	_, err := ocr.ExtractOCR(context.Background(), "scan.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOCRDefaults(t *testing.T) {
	ocr := NewOCR(OCRConfig{}, &fakeRunner{pages: 1}, nil)
	if ocr.cfg.Pdftoppm != "pdftoppm" || ocr.cfg.Tesseract != "tesseract" {
		t.Fatalf("cfg=%+v", ocr.cfg)
	}
	if ocr.cfg.DPI != 300 || ocr.cfg.Lang != "eng" {
		t.Fatalf("cfg=%+v", ocr.cfg)
	}
}
