package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors. Lookup is by
// lowercased extension, so ".PDF" and ".pdf" resolve identically.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry builds a registry over the given extractors. A later
// extractor claiming an already registered extension wins.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		for _, ext := range e.SupportedExtensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// DefaultRegistry returns a registry with all built-in extractors.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPlainText(),
		NewMarkdown(),
		NewPDF(),
		NewDOCX(),
		NewHTML(),
		NewCSV(),
	)
}

// ForPath returns the extractor responsible for the path.
func (r *Registry) ForPath(path string) (driven.Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}
	return e, nil
}

// Supported reports whether any extractor handles the path.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns all registered extensions, unordered.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
