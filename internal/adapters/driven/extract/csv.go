package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure CSV implements the interface.
var _ driven.Extractor = (*CSV)(nil)

// CSV handles CSV files. Rows are rendered one per line with the
// header row first, and the extraction is flagged tabular so the
// summariser takes leading rows instead of ranking sentences.
type CSV struct{}

// NewCSV creates a CSV extractor.
func NewCSV() *CSV {
	return &CSV{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *CSV) SupportedExtensions() []string {
	return []string{".csv"}
}

// Extract reads all rows and renders them line-wise.
func (e *CSV) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, ", "))
	}

	return &driven.Extraction{
		Text:  strings.Join(lines, "\n"),
		Table: true,
	}, nil
}
