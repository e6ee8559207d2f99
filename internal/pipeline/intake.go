package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"

	"invox/internal"
)

// IntakeDocument is one processable document recovered from a mail
// message: a saved attachment file, or the inline HTML body written out as
// its own file.
type IntakeDocument struct {
	Kind internal.DocumentKind
	Path string
	Hash string
	Name string
}

// ExtractDocumentsFromEmailRaw parses raw RFC 5322 bytes and recovers the
// invoice-bearing parts: PDF and spreadsheet attachments are written under
// docDir content-addressed by hash, so refetching the same mail never
// duplicates work. An HTML body containing a table counts as a document in
// its own right since some suppliers send the invoice inline.
func ExtractDocumentsFromEmailRaw(raw []byte, docDir string) ([]IntakeDocument, string, string, string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, "", "", "", err
	}

	docs := []IntakeDocument{}
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		lower := strings.ToLower(filename)

		var kind internal.DocumentKind
		switch {
		case strings.HasSuffix(lower, ".pdf"):
			kind = internal.DocPDF
		case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
			kind = internal.DocXLSX
		default:
			continue
		}

		path, hash, err := saveAttachment(docDir, filename, att.Content)
		if err != nil {
			continue
		}
		docs = append(docs, IntakeDocument{Kind: kind, Path: path, Hash: hash, Name: filename})
	}

	if env.HTML != "" && strings.Contains(strings.ToLower(env.HTML), "<table") {
		path, hash, err := saveAttachment(docDir, "inline.html", []byte(env.HTML))
		if err == nil {
			docs = append(docs, IntakeDocument{Kind: internal.DocHTML, Path: path, Hash: hash, Name: "inline.html"})
		}
	}

	return docs, env.GetHeader("Subject"), env.Text, env.HTML, nil
}

func saveAttachment(docDir, filename string, content []byte) (string, string, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return "", "", err
	}
	path := filepath.Join(docDir, fmt.Sprintf("%s-%s", hash[:12], filepath.Base(filename)))
	if _, err := os.Stat(path); err == nil {
		return path, hash, nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", "", err
	}
	return path, hash, nil
}

// AttachmentNames lists attachment filenames of a raw message, for the
// invoice-mail detector.
func AttachmentNames(raw []byte) []string {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		name := strings.TrimSpace(att.FileName)
		if name == "" {
			name = "attachment"
		}
		names = append(names, name)
	}
	return names
}
