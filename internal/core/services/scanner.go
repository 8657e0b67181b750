package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/logger"
)

// DefaultScanWorkers is the default summarisation concurrency.
const DefaultScanWorkers = 4

// Scanner discovers supported files under a base path, extracts their
// text, and summarises them. Records are processed in discovery order
// and results are merged back in that order, so repeated scans of an
// unchanged tree produce identical artifacts. Summarisation is the
// only parallel stage; each worker owns disjoint records.
type Scanner struct {
	registry   driven.ExtractorRegistry
	summariser *Summariser
	records    driven.RecordStore
	metrics    *domain.MetricsLedger
	workers    int
}

// ScannerOption configures the scanner.
type ScannerOption func(*Scanner)

// WithWorkers sets the summarisation concurrency.
func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewScanner creates a scanner over the given extractor registry,
// summariser and record store.
func NewScanner(
	registry driven.ExtractorRegistry,
	summariser *Summariser,
	records driven.RecordStore,
	metrics *domain.MetricsLedger,
	opts ...ScannerOption,
) *Scanner {
	s := &Scanner{
		registry:   registry,
		summariser: summariser,
		records:    records,
		metrics:    metrics,
		workers:    DefaultScanWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks basePath, processes every supported file, and returns
// the records in discovery order.
func (s *Scanner) Scan(ctx context.Context, basePath string) ([]domain.DocumentRecord, error) {
	var recs []domain.DocumentRecord

	err := s.metrics.TimeStage(domain.StageScan, func() error {
		var err error
		recs, err = s.discover(ctx, basePath)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Found %d supported documents", len(recs))

	err = s.metrics.TimeStage(domain.StageExtract, func() error {
		for i := range recs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.extractRecord(ctx, &recs[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.metrics.TimeStage(domain.StageEmbed, func() error {
		s.summariseAll(ctx, recs)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	for i := range recs {
		if err := s.records.Save(ctx, &recs[i]); err != nil {
			return nil, fmt.Errorf("save record %s: %w", recs[i].Path, err)
		}
	}
	return recs, nil
}

// discover walks the tree and creates pending records for supported
// files, in walk order.
func (s *Scanner) discover(ctx context.Context, basePath string) ([]domain.DocumentRecord, error) {
	var recs []domain.DocumentRecord

	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !s.registry.Supported(path) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		logger.Debug("Found: %s", abs)
		recs = append(recs, domain.DocumentRecord{
			Path:         abs,
			Extension:    strings.ToLower(filepath.Ext(abs)),
			Status:       domain.StatusPending,
			DiscoveredAt: time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", basePath, err)
	}

	s.metrics.Add(domain.CounterFilesDiscovered, int64(len(recs)))
	return recs, nil
}

// extractRecord runs text extraction for one record. Failure marks
// the record failed and never aborts sibling work.
func (s *Scanner) extractRecord(ctx context.Context, rec *domain.DocumentRecord) {
	extractor, err := s.registry.ForPath(rec.Path)
	if err != nil {
		s.failRecord(rec, err)
		return
	}

	extraction, err := extractor.Extract(ctx, rec.Path)
	if err != nil {
		s.failRecord(rec, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err))
		return
	}

	rec.ExtractedText = extraction.Text
	rec.Metadata = extraction.Metadata
	rec.Table = extraction.Table
	rec.Status = domain.StatusExtracted
	s.metrics.Add(domain.CounterExtracted, 1)
}

func (s *Scanner) failRecord(rec *domain.DocumentRecord, err error) {
	rec.Status = domain.StatusFailed
	rec.FailureReason = err.Error()
	s.metrics.Add(domain.CounterExtractFailed, 1)
	logger.Warn("Extraction failed for %s: %v", rec.Path, err)
}

// summariseAll summarises extracted records across the worker pool.
// Workers receive record indices, so each record has exactly one
// owner and results land in discovery order without merging.
func (s *Scanner) summariseAll(ctx context.Context, recs []domain.DocumentRecord) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				s.summariseRecord(ctx, &recs[idx])
			}
		}()
	}

	for i := range recs {
		if ctx.Err() != nil {
			break
		}
		if recs[i].Status == domain.StatusExtracted {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()
}

// summariseRecord ranks and selects summary sentences for one record.
// A summarisation failure is recoverable: the record keeps its
// extracted status and an empty summary, and still reaches the plan
// service.
func (s *Scanner) summariseRecord(ctx context.Context, rec *domain.DocumentRecord) {
	var (
		summary []string
		vector  []float32
		err     error
	)
	if rec.Table {
		summary, vector, err = s.summariser.SummariseTable(ctx, rec.ExtractedText)
	} else {
		summary, vector, err = s.summariser.Summarise(ctx, rec.ExtractedText)
	}
	if err != nil {
		s.metrics.Add(domain.CounterSummariseFailed, 1)
		logger.Warn("Summarisation failed for %s: %v", rec.Path, err)
		return
	}

	rec.Summary = summary
	rec.Embedding = vector
	rec.Status = domain.StatusSummarised
	s.metrics.Add(domain.CounterSummarised, 1)
}

// ProcessFile re-runs extraction and summarisation for a single file
// and saves the result. Used by watch mode.
func (s *Scanner) ProcessFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	rec := domain.DocumentRecord{
		Path:         abs,
		Extension:    strings.ToLower(filepath.Ext(abs)),
		Status:       domain.StatusPending,
		DiscoveredAt: time.Now(),
	}

	s.extractRecord(ctx, &rec)
	if rec.Status == domain.StatusExtracted {
		s.summariseRecord(ctx, &rec)
	}
	return s.records.Save(ctx, &rec)
}

// Watch re-processes files under basePath as they are created or
// modified, until the context is cancelled. New directories are added
// to the watch as they appear.
func (s *Scanner) Watch(ctx context.Context, basePath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", basePath, err)
	}
	logger.Info("Watching %s for changes", basePath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("Failed to watch %s: %v", event.Name, err)
				}
				continue
			}
			if !s.registry.Supported(event.Name) {
				continue
			}
			logger.Debug("Change detected: %s", event.Name)
			if err := s.ProcessFile(ctx, event.Name); err != nil {
				logger.Warn("Failed to re-process %s: %v", event.Name, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
