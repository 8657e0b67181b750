package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure HTML implements the interface.
var _ driven.Extractor = (*HTML)(nil)

// HTML handles HTML files. The parse tree is walked below <body>,
// skipping script, style and navigation chrome; the <title> element
// becomes the document title.
type HTML struct{}

// NewHTML creates an HTML extractor.
func NewHTML() *HTML {
	return &HTML{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *HTML) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// Extract parses the file and collects the readable text.
func (e *HTML) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var blocks []string
	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}
	collectBlocks(root, &blocks)

	extraction := &driven.Extraction{Text: strings.Join(blocks, "\n")}
	if titleNode := findElement(doc, "title"); titleNode != nil {
		if title := nodeText(titleNode); title != "" {
			extraction.Metadata = &domain.FileMetadata{Title: title}
		}
	}
	return extraction, nil
}

// collectBlocks walks the tree appending one entry per block-level
// content element.
func collectBlocks(n *html.Node, blocks *[]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "nav", "footer", "header":
			return
		case "p", "li", "td", "th", "blockquote", "pre",
			"h1", "h2", "h3", "h4", "h5", "h6":
			if t := nodeText(n); t != "" {
				*blocks = append(*blocks, t)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, blocks)
	}
}

// nodeText returns the concatenated text below a node.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// findElement returns the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
