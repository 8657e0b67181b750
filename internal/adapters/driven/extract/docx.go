package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure DOCX implements the interface.
var _ driven.Extractor = (*DOCX)(nil)

// DOCX handles Word documents. Body text comes from the parsed
// document; title, author and creation date come from the core
// properties part of the archive.
type DOCX struct{}

// NewDOCX creates a DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *DOCX) SupportedExtensions() []string {
	return []string{".docx"}
}

// Extract parses the document body paragraph by paragraph.
func (e *DOCX) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if text := paragraphText(para); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	return &driven.Extraction{
		Text:     strings.Join(paragraphs, "\n"),
		Metadata: docxMetadata(path),
	}, nil
}

// paragraphText joins the text runs of one paragraph.
func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// coreProperties is the subset of docProps/core.xml we care about.
// encoding/xml matches by local name, so the Dublin Core namespaces
// need no declarations here.
type coreProperties struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Created string `xml:"created"`
}

// docxMetadata reads docProps/core.xml from the archive. Returns nil
// when the part is absent or empty; body extraction never depends on
// it.
func docxMetadata(path string) *domain.FileMetadata {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "docProps/core.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil
		}

		var core coreProperties
		if err := xml.Unmarshal(content, &core); err != nil {
			return nil
		}

		meta := &domain.FileMetadata{
			Title:  strings.TrimSpace(core.Title),
			Author: strings.TrimSpace(core.Creator),
		}
		if created := strings.TrimSpace(core.Created); created != "" {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				meta.CreatedAt = t.Format(time.RFC3339)
			}
		}
		if meta.Title == "" && meta.Author == "" && meta.CreatedAt == "" {
			return nil
		}
		return meta
	}
	return nil
}
