package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// fakeMover is an in-memory driven.FileMover. Paths use forward
// slashes; directories must be created before files land in them.
type fakeMover struct {
	mu    sync.Mutex
	files map[string]string
	dirs  map[string]bool

	// moveErr injects a failure for a specific source path.
	moveErr map[string]error

	moves []string
}

func newFakeMover() *fakeMover {
	return &fakeMover{
		files:   make(map[string]string),
		dirs:    make(map[string]bool),
		moveErr: make(map[string]error),
	}
}

func (f *fakeMover) addFile(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

func (f *fakeMover) Move(src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.moveErr[src]; err != nil {
		return err
	}
	content, ok := f.files[src]
	if !ok {
		return fmt.Errorf("move %s: no such file", src)
	}
	if _, exists := f.files[dst]; exists {
		return fmt.Errorf("move %s: destination exists", dst)
	}
	delete(f.files, src)
	f.files[dst] = content
	f.moves = append(f.moves, src+" -> "+dst)
	return nil
}

func (f *fakeMover) MkdirAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for path != "/" && path != "." && path != "" {
		f.dirs[path] = true
		idx := strings.LastIndex(path, "/")
		if idx <= 0 {
			break
		}
		path = path[:idx]
	}
	return nil
}

func (f *fakeMover) Exists(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.files[path]; ok {
		return true, nil
	}
	return f.dirs[path], nil
}

func (f *fakeMover) IsRegular(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.files[path]
	return ok, nil
}

func (f *fakeMover) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.files))
	for p := range f.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// fakeLLM replays queued responses in order. Queued errors are
// returned in the same position they were queued.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeLLM) queue(response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response)
	f.errs = append(f.errs, nil)
}

func (f *fakeLLM) queueErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, "")
	f.errs = append(f.errs, err)
}

func (f *fakeLLM) next(prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "", fmt.Errorf("fakeLLM: no response queued")
	}
	resp, err := f.responses[0], f.errs[0]
	f.responses, f.errs = f.responses[1:], f.errs[1:]
	return resp, err
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return f.next(prompt)
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	prompt := ""
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Content
	}
	return f.next(prompt)
}

func (f *fakeLLM) ModelName() string            { return "fake" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

// fakeExtractor serves canned extractions keyed by base name. Paths
// with no canned entry fail.
type fakeExtractor struct {
	exts    []string
	results map[string]*driven.Extraction
}

func (f *fakeExtractor) SupportedExtensions() []string { return f.exts }

func (f *fakeExtractor) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	base := path[strings.LastIndex(path, "/")+1:]
	if out, ok := f.results[base]; ok {
		return out, nil
	}
	return nil, fmt.Errorf("extract %s: canned failure", path)
}

// fakeRegistry routes every supported extension to one extractor.
type fakeRegistry struct {
	extractor *fakeExtractor
}

func (f *fakeRegistry) ForPath(path string) (driven.Extractor, error) {
	if !f.Supported(path) {
		return nil, domain.ErrUnsupportedType
	}
	return f.extractor, nil
}

func (f *fakeRegistry) Supported(path string) bool {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return false
	}
	ext := strings.ToLower(path[idx:])
	for _, e := range f.extractor.exts {
		if e == ext {
			return true
		}
	}
	return false
}

// memRecords is an in-memory driven.RecordStore preserving discovery
// order.
type memRecords struct {
	mu      sync.Mutex
	byPath  map[string]domain.DocumentRecord
	order   []string
	saveErr error
}

func newMemRecords() *memRecords {
	return &memRecords{byPath: make(map[string]domain.DocumentRecord)}
}

func (m *memRecords) Save(_ context.Context, record *domain.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.byPath[record.Path]; !ok {
		m.order = append(m.order, record.Path)
	}
	m.byPath[record.Path] = *record
	return nil
}

func (m *memRecords) Get(_ context.Context, path string) (*domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byPath[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *memRecords) List(_ context.Context) ([]domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DocumentRecord, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, m.byPath[p])
	}
	return out, nil
}

func (m *memRecords) Close() error { return nil }

// fakeArtifacts captures artifact writes in memory.
type fakeArtifacts struct {
	mu         sync.Mutex
	records    []domain.DocumentRecord
	projection []domain.RecordProjection
	written    bool
	runID      string
}

func (f *fakeArtifacts) WriteRecords(_ context.Context, runID string, records []domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runID = runID
	f.records = append([]domain.DocumentRecord(nil), records...)
	return nil
}

func (f *fakeArtifacts) WriteProjection(_ context.Context, runID string, entries []domain.RecordProjection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runID = runID
	f.projection = append([]domain.RecordProjection(nil), entries...)
	f.written = true
	return nil
}

func (f *fakeArtifacts) ReadProjection(_ context.Context) ([]domain.RecordProjection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.written {
		return nil, domain.ErrNotFound
	}
	return f.projection, nil
}

func (f *fakeArtifacts) RecordsPath() string    { return "/artifacts/processed_documents.json" }
func (f *fakeArtifacts) ProjectionPath() string { return "/artifacts/llm_input.json" }
