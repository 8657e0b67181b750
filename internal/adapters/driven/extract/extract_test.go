package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistry_ForPath(t *testing.T) {
	registry := DefaultRegistry()

	extractor, err := registry.ForPath("/docs/report.txt")
	require.NoError(t, err)
	assert.IsType(t, &PlainText{}, extractor)

	extractor, err = registry.ForPath("/docs/Report.PDF")
	require.NoError(t, err)
	assert.IsType(t, &PDF{}, extractor)

	_, err = registry.ForPath("/docs/photo.jpg")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_Supported(t *testing.T) {
	registry := DefaultRegistry()

	assert.True(t, registry.Supported("notes.md"))
	assert.True(t, registry.Supported("data.csv"))
	assert.True(t, registry.Supported("page.htm"))
	assert.False(t, registry.Supported("binary.exe"))
	assert.False(t, registry.Supported("no-extension"))
}

func TestPlainText_Extract(t *testing.T) {
	path := writeFile(t, "note.txt", "  Hello world.\nSecond line.\n")

	extraction, err := NewPlainText().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.\nSecond line.", extraction.Text)
	assert.Nil(t, extraction.Metadata)
	assert.False(t, extraction.Table)
}

func TestPlainText_Extract_MissingFile(t *testing.T) {
	_, err := NewPlainText().Extract(context.Background(), "/nonexistent/file.txt")
	assert.Error(t, err)
}

func TestMarkdown_Extract(t *testing.T) {
	path := writeFile(t, "doc.md", `# Quarterly Report

Revenue grew this quarter.

## Details

- first item
- second item
`)

	extraction, err := NewMarkdown().Extract(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, extraction.Metadata)
	assert.Equal(t, "Quarterly Report", extraction.Metadata.Title)
	assert.Contains(t, extraction.Text, "Revenue grew this quarter.")
	assert.Contains(t, extraction.Text, "first item")
	assert.NotContains(t, extraction.Text, "##")
	assert.NotContains(t, extraction.Text, "- first")
}

func TestMarkdown_Extract_NoHeading(t *testing.T) {
	path := writeFile(t, "plain.md", "Just a paragraph.\n\nAnother one.")

	extraction, err := NewMarkdown().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, extraction.Metadata)
	assert.Contains(t, extraction.Text, "Just a paragraph.")
	assert.Contains(t, extraction.Text, "Another one.")
}

func TestHTML_Extract(t *testing.T) {
	path := writeFile(t, "page.html", `<html>
<head><title>Team Handbook</title><style>p { color: red }</style></head>
<body>
<script>console.log("ignored")</script>
<h1>Welcome</h1>
<p>This is the handbook.</p>
<ul><li>Rule one</li><li>Rule two</li></ul>
</body>
</html>`)

	extraction, err := NewHTML().Extract(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, extraction.Metadata)
	assert.Equal(t, "Team Handbook", extraction.Metadata.Title)
	assert.Contains(t, extraction.Text, "Welcome")
	assert.Contains(t, extraction.Text, "This is the handbook.")
	assert.Contains(t, extraction.Text, "Rule one")
	assert.NotContains(t, extraction.Text, "console.log")
	assert.NotContains(t, extraction.Text, "color: red")
}

func TestCSV_Extract(t *testing.T) {
	path := writeFile(t, "data.csv", "name,amount\nalpha,10\nbeta,20\n")

	extraction, err := NewCSV().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, extraction.Table)
	assert.Equal(t, "name, amount\nalpha, 10\nbeta, 20", extraction.Text)
}

func TestCSV_Extract_RaggedRows(t *testing.T) {
	path := writeFile(t, "ragged.csv", "a,b,c\n1,2\n")

	extraction, err := NewCSV().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, extraction.Text, "1, 2")
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"D:20240315094500Z", "2024-03-15T09:45:00Z"},
		{"D:20240315", "2024-03-15T00:00:00Z"},
		{"20240315094500", "2024-03-15T09:45:00Z"},
		{"garbage", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePDFDate(tt.raw), "raw=%q", tt.raw)
	}
}

func TestDocxMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	writer := zip.NewWriter(f)
	core, err := writer.Create("docProps/core.xml")
	require.NoError(t, err)
	_, err = core.Write([]byte(`<?xml version="1.0"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"
 xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>Budget Plan</dc:title>
<dc:creator>A. Author</dc:creator>
<dcterms:created xsi:type="dcterms:W3CDTF">2024-02-01T10:30:00Z</dcterms:created>
</cp:coreProperties>`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, f.Close())

	meta := docxMetadata(path)
	require.NotNil(t, meta)
	assert.Equal(t, "Budget Plan", meta.Title)
	assert.Equal(t, "A. Author", meta.Author)
	assert.Equal(t, "2024-02-01T10:30:00Z", meta.CreatedAt)
}

func TestDocxMetadata_NoCoreProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	writer := zip.NewWriter(f)
	require.NoError(t, writer.Close())
	require.NoError(t, f.Close())

	assert.Nil(t, docxMetadata(path))
}
