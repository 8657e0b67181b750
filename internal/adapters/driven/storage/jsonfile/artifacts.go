// Package jsonfile persists the end-of-scan artifacts as JSON files:
// the full record set and the reduced projection handed to the plan
// service. Both schemas are stable across runs, so downstream tooling
// can consume them.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/logger"
)

// Artifact file names.
const (
	RecordsFile    = "processed_documents.json"
	ProjectionFile = "llm_input.json"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore writes scan artifacts into a directory. Writes are
// atomic: content lands in a temp file first and is renamed over the
// target, so a crashed run never leaves a half-written artifact.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a store rooted at dir. If dir is empty,
// defaults to ~/.docfold.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".docfold")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// WriteRecords persists the full record set for a run.
func (s *ArtifactStore) WriteRecords(_ context.Context, runID string, records []domain.DocumentRecord) error {
	if records == nil {
		records = []domain.DocumentRecord{}
	}
	logger.Debug("Writing %d records for run %s", len(records), runID)
	return s.writeJSON(s.RecordsPath(), records)
}

// WriteProjection persists the reduced projection for a run.
func (s *ArtifactStore) WriteProjection(_ context.Context, runID string, entries []domain.RecordProjection) error {
	if entries == nil {
		entries = []domain.RecordProjection{}
	}
	logger.Debug("Writing %d projection entries for run %s", len(entries), runID)
	return s.writeJSON(s.ProjectionPath(), entries)
}

// ReadProjection loads the most recently written projection.
func (s *ArtifactStore) ReadProjection(_ context.Context) ([]domain.RecordProjection, error) {
	data, err := os.ReadFile(s.ProjectionPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading projection: %w", err)
	}

	var entries []domain.RecordProjection
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing projection: %w", err)
	}
	return entries, nil
}

// RecordsPath returns the full record set file path.
func (s *ArtifactStore) RecordsPath() string {
	return filepath.Join(s.dir, RecordsFile)
}

// ProjectionPath returns the projection file path.
func (s *ArtifactStore) ProjectionPath() string {
	return filepath.Join(s.dir, ProjectionFile)
}

// writeJSON marshals v indented and renames it into place.
func (s *ArtifactStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling artifact: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming artifact: %w", err)
	}
	return nil
}
