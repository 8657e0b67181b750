package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure Markdown implements the interface.
var _ driven.Extractor = (*Markdown)(nil)

// Markdown handles Markdown files using goldmark. The AST is
// flattened to plain text so summarisation sees prose rather than
// formatting syntax; the first level-1 heading becomes the title.
type Markdown struct{}

// NewMarkdown creates a Markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Markdown) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Extract parses the file and flattens the document to plain text.
func (e *Markdown) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		blocks []string
		title  string
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading := string(node.Text(src))
			if title == "" && node.Level == 1 {
				title = heading
			}
			if heading != "" {
				blocks = append(blocks, heading)
			}
		default:
			if t := flattenNode(n, src); t != "" {
				blocks = append(blocks, t)
			}
		}
	}

	extraction := &driven.Extraction{Text: strings.Join(blocks, "\n\n")}
	if title != "" {
		extraction.Metadata = &domain.FileMetadata{Title: title}
	}
	return extraction, nil
}

// flattenNode gets the text content of a goldmark AST node. Blocks
// with raw source lines use those directly; container blocks recurse.
func flattenNode(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if t := flattenNode(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
