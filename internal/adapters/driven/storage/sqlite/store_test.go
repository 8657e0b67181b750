package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := &domain.DocumentRecord{
		Path:      "/docs/report.pdf",
		Extension: ".pdf",
		Metadata: &domain.FileMetadata{
			Title:     "Annual Report",
			Author:    "Finance",
			CreatedAt: "2024-01-01T00:00:00Z",
		},
		Summary:      []string{"First sentence.", "Second sentence."},
		Embedding:    []float32{0.1, -0.5, 2.25},
		Status:       domain.StatusSummarised,
		DiscoveredAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, record))

	got, err := store.Get(ctx, "/docs/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, ".pdf", got.Extension)
	assert.Equal(t, domain.StatusSummarised, got.Status)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "Annual Report", got.Metadata.Title)
	assert.Equal(t, []string{"First sentence.", "Second sentence."}, got.Summary)
	assert.Equal(t, []float32{0.1, -0.5, 2.25}, got.Embedding)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "/docs/missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_List_DiscoveryOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	paths := []string{"/docs/c.txt", "/docs/a.txt", "/docs/b.txt"}
	for _, path := range paths {
		require.NoError(t, store.Save(ctx, &domain.DocumentRecord{
			Path:         path,
			Extension:    ".txt",
			Status:       domain.StatusPending,
			DiscoveredAt: time.Now().UTC(),
		}))
	}

	// Updating the first record must not move it.
	require.NoError(t, store.Save(ctx, &domain.DocumentRecord{
		Path:         "/docs/c.txt",
		Extension:    ".txt",
		Status:       domain.StatusExtracted,
		DiscoveredAt: time.Now().UTC(),
	}))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, path := range paths {
		assert.Equal(t, path, records[i].Path)
	}
	assert.Equal(t, domain.StatusExtracted, records[0].Status)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening must not re-apply migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
