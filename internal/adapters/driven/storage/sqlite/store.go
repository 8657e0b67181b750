// Package sqlite provides a SQLite-backed record store for scans that
// should survive the process, such as watch mode.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docfold/docfold/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// Store is a SQLite-backed implementation of driven.RecordStore.
// Discovery order is kept in an explicit position column.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.docfold/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docfold", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "records.db")

	// WAL mode for better concurrency between the watcher and readers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save stores or updates a record. The first save for a path fixes
// its position in discovery order.
func (s *Store) Save(ctx context.Context, record *domain.DocumentRecord) error {
	metadataJSON, err := marshalMetadata(record.Metadata)
	if err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}
	embeddingBlob := float32SliceToBytes(record.Embedding)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records
			(path, extension, position, metadata, summary, embedding, status, failure_reason, discovered_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM records), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			extension = excluded.extension,
			metadata = excluded.metadata,
			summary = excluded.summary,
			embedding = excluded.embedding,
			status = excluded.status,
			failure_reason = excluded.failure_reason,
			discovered_at = excluded.discovered_at
	`, record.Path, record.Extension, metadataJSON, string(summaryJSON),
		embeddingBlob, string(record.Status), record.FailureReason, record.DiscoveredAt)

	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Get retrieves a record by its source path.
func (s *Store) Get(ctx context.Context, path string) (*domain.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, extension, metadata, summary, embedding, status, failure_reason, discovered_at
		FROM records WHERE path = ?
	`, path)

	record, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns all records in discovery order.
func (s *Store) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, extension, metadata, summary, embedding, status, failure_reason, discovered_at
		FROM records ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.DocumentRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// marshalMetadata serialises metadata, NULL when absent.
func marshalMetadata(meta *domain.FileMetadata) (any, error) {
	if meta == nil {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

// scanRecord scans one record row.
func scanRecord(scan func(dest ...any) error) (*domain.DocumentRecord, error) {
	var (
		record        domain.DocumentRecord
		metadataJSON  sql.NullString
		summaryJSON   string
		embeddingBlob []byte
		status        string
	)
	if err := scan(&record.Path, &record.Extension, &metadataJSON, &summaryJSON,
		&embeddingBlob, &status, &record.FailureReason, &record.DiscoveredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	record.Status = domain.RecordStatus(status)
	record.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON.Valid && metadataJSON.String != "" {
		var meta domain.FileMetadata
		if err := json.Unmarshal([]byte(metadataJSON.String), &meta); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		record.Metadata = &meta
	}
	if summaryJSON != "" {
		if err := json.Unmarshal([]byte(summaryJSON), &record.Summary); err != nil {
			return nil, fmt.Errorf("unmarshaling summary: %w", err)
		}
	}
	return &record, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
