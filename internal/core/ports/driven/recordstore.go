package driven

import (
	"context"

	"github.com/docfold/docfold/internal/core/domain"
)

// RecordStore holds the per-run document records. The collection is
// append-only: records are created at discovery and updated in place
// as extraction and summarisation progress, never deleted within a
// run. List order is directory-scan discovery order; output
// determinism depends on it.
type RecordStore interface {
	// Save stores or updates a record, keyed by path. The first Save
	// for a path fixes its position in discovery order.
	Save(ctx context.Context, record *domain.DocumentRecord) error

	// Get retrieves a record by its source path.
	// Returns domain.ErrNotFound when the path was never discovered.
	Get(ctx context.Context, path string) (*domain.DocumentRecord, error)

	// List returns all records in discovery order.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Close releases resources.
	Close() error
}

// ArtifactStore persists the two end-of-scan artifacts: the full
// record set (internal working state, embeddings included) and the
// reduced projection that is the sole input to the plan service.
// Both schemas are stable across runs.
type ArtifactStore interface {
	// WriteRecords persists the full record set for a run.
	WriteRecords(ctx context.Context, runID string, records []domain.DocumentRecord) error

	// WriteProjection persists the reduced projection for a run.
	WriteProjection(ctx context.Context, runID string, entries []domain.RecordProjection) error

	// ReadProjection loads the most recently written projection.
	// Returns domain.ErrNotFound when no scan has been persisted.
	ReadProjection(ctx context.Context) ([]domain.RecordProjection, error)

	// RecordsPath returns the full record set file path.
	RecordsPath() string

	// ProjectionPath returns the projection file path.
	ProjectionPath() string
}
