package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure PlainText implements the interface.
var _ driven.Extractor = (*PlainText)(nil)

// PlainText handles plain text files. The file content is the text,
// no parsing involved.
type PlainText struct{}

// NewPlainText creates a plain text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *PlainText) SupportedExtensions() []string {
	return []string{".txt"}
}

// Extract reads the file content as UTF-8 text.
func (e *PlainText) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &driven.Extraction{Text: strings.TrimSpace(string(content))}, nil
}
