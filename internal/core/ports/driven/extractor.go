package driven

import (
	"context"

	"github.com/docfold/docfold/internal/core/domain"
)

// Extraction is the output of text extraction for one file.
type Extraction struct {
	// Text is the extracted plain text.
	Text string

	// Metadata holds title/author/date when the format carries them.
	Metadata *domain.FileMetadata

	// Table marks tabular content, which is summarised line-wise
	// instead of by sentence ranking.
	Table bool
}

// Extractor converts a raw file into text and metadata.
// Each extractor handles specific file extensions.
type Extractor interface {
	// SupportedExtensions returns the lowercased extensions this
	// extractor handles, including the leading dot.
	SupportedExtensions() []string

	// Extract reads the file at path and returns its text content.
	// A per-file failure is an error; the caller marks the record
	// failed and continues with its siblings.
	Extract(ctx context.Context, path string) (*Extraction, error)
}

// ExtractorRegistry selects an extractor for a file path.
type ExtractorRegistry interface {
	// ForPath returns the extractor responsible for the path, or
	// domain.ErrUnsupportedType when no extractor handles it.
	ForPath(path string) (Extractor, error)

	// Supported reports whether any extractor handles the path.
	Supported(path string) bool
}
