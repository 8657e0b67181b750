package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure PDF implements the interface.
var _ driven.Extractor = (*PDF)(nil)

// PDF handles PDF files. Text comes from the page content streams;
// title, author and creation date come from the document information
// dictionary when present. Pages whose text cannot be decoded are
// skipped rather than failing the whole file.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *PDF) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract reads the file and concatenates the plain text of every
// readable page.
func (e *PDF) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}

	return &driven.Extraction{
		Text:     strings.TrimSpace(buf.String()),
		Metadata: pdfMetadata(reader),
	}, nil
}

// pdfMetadata reads the document information dictionary. Returns nil
// when the dictionary is absent or carries nothing useful.
func pdfMetadata(reader *pdflib.Reader) *domain.FileMetadata {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return nil
	}

	meta := &domain.FileMetadata{
		Title:  strings.TrimSpace(info.Key("Title").Text()),
		Author: strings.TrimSpace(info.Key("Author").Text()),
	}
	if raw := info.Key("CreationDate").Text(); raw != "" {
		meta.CreatedAt = parsePDFDate(raw)
	}

	if meta.Title == "" && meta.Author == "" && meta.CreatedAt == "" {
		return nil
	}
	return meta
}

// parsePDFDate parses the D:YYYYMMDDHHmmSS date form into RFC 3339.
// Timezone suffixes and truncated precision are both common in the
// wild, so the prefix is matched at decreasing precision; unparseable
// input yields an empty string.
func parsePDFDate(raw string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "D:")
	for _, layout := range []string{"20060102150405", "200601021504", "20060102"} {
		if len(raw) < len(layout) {
			continue
		}
		if t, err := time.Parse(layout, raw[:len(layout)]); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return ""
}
