package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/core/domain"
)

func TestArtifactStore_WriteAndReadProjection(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	entries := []domain.RecordProjection{
		{Path: "/docs/a.txt", Extension: ".txt", Summary: "About apples."},
		{Path: "/docs/b.pdf", Extension: ".pdf", Summary: "About bananas.", Title: "B"},
	}
	require.NoError(t, store.WriteProjection(ctx, "run-1", entries))

	got, err := store.ReadProjection(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestArtifactStore_ReadProjection_NotFound(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.ReadProjection(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArtifactStore_WriteRecords_SchemaFields(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	records := []domain.DocumentRecord{
		{
			Path:      "/docs/a.txt",
			Extension: ".txt",
			Summary:   []string{"A sentence."},
			Status:    domain.StatusSummarised,
			// Working state must not leak into the artifact.
			ExtractedText: "full text here",
		},
	}
	require.NoError(t, store.WriteRecords(ctx, "run-1", records))

	data, err := os.ReadFile(store.RecordsPath())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "/docs/a.txt", raw[0]["file_path"])
	assert.Equal(t, ".txt", raw[0]["file_type"])
	assert.NotContains(t, raw[0], "ExtractedText")
	assert.NotContains(t, raw[0], "extracted_text")
}

func TestArtifactStore_WriteProjection_EmptyIsArray(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.WriteProjection(ctx, "run-1", nil))

	data, err := os.ReadFile(store.ProjectionPath())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
