// Package memory provides an in-memory record store. It is the
// default store for single-run scans and the test double for the
// pipeline services.
package memory

import (
	"context"
	"sync"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
// Records are keyed by path; insertion order is kept so List returns
// discovery order.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.DocumentRecord
	order   []string
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]domain.DocumentRecord),
	}
}

// Save stores or updates a record. The first save for a path fixes
// its position in discovery order.
func (s *RecordStore) Save(_ context.Context, record *domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Path]; !exists {
		s.order = append(s.order, record.Path)
	}
	s.records[record.Path] = *record
	return nil
}

// Get retrieves a record by its source path.
func (s *RecordStore) Get(_ context.Context, path string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// List returns all records in discovery order.
func (s *RecordStore) List(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.DocumentRecord, 0, len(s.order))
	for _, path := range s.order {
		records = append(records, s.records[path])
	}
	return records, nil
}

// Close releases resources.
func (s *RecordStore) Close() error {
	return nil
}
