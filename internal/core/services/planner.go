package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/logger"
)

// DefaultPlanAttempts bounds retries against the plan service.
const DefaultPlanAttempts = 3

// sectionSeparator splits the plan response into its three parts:
// JSON plan, ASCII tree, rationale.
const sectionSeparator = "-----"

// Planner is the boundary to the external plan service. It builds the
// analysis and proposal prompts from the record projection, parses
// the structured response, and retries transient failures with
// exponential backoff. Every response is untrusted until validated.
type Planner struct {
	llm         driven.LLMService
	metrics     *domain.MetricsLedger
	maxAttempts int
}

// PlannerOption configures the planner.
type PlannerOption func(*Planner)

// WithMaxAttempts bounds retries per service call.
func WithMaxAttempts(n int) PlannerOption {
	return func(p *Planner) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// NewPlanner creates a planner over the given LLM service.
func NewPlanner(llm driven.LLMService, metrics *domain.MetricsLedger, opts ...PlannerOption) *Planner {
	p := &Planner{
		llm:         llm,
		metrics:     metrics,
		maxAttempts: DefaultPlanAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyse asks the service to critique the current file structure.
// The returned text is display-only and seeds later prompts.
func (p *Planner) Analyse(ctx context.Context, projection []domain.RecordProjection) (string, error) {
	if p.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	prompt := analysisPrompt(projection)

	analysis, err := p.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(analysis), nil
}

// Propose asks the service for an organisation plan. The response
// must contain a JSON directory plan, an ASCII tree and a rationale,
// separated by '-----'; anything else is a service failure and is
// retried up to the attempt bound.
func (p *Planner) Propose(
	ctx context.Context,
	projection []domain.RecordProjection,
	analysis string,
) (*domain.OrganisationPlan, error) {
	if p.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	prompt := proposalPrompt(projection, analysis)

	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			if p.metrics != nil {
				p.metrics.Add(domain.CounterPlanRetries, 1)
			}
			if err := sleep(ctx, backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		raw, err := p.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			logger.Warn("Plan request failed (attempt %d/%d): %v", attempt+1, p.maxAttempts, err)
			continue
		}

		plan, err := p.parsePlan(raw, projection)
		if err != nil {
			lastErr = err
			logger.Warn("Plan response rejected (attempt %d/%d): %v", attempt+1, p.maxAttempts, err)
			continue
		}
		return plan, nil
	}
	return nil, lastErr
}

// generate runs one completion and records its latency and estimated
// token usage (length/4 heuristic) in the ledger.
func (p *Planner) generate(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	out, err := p.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.3})
	latency := time.Since(started)
	if p.metrics != nil {
		p.metrics.ObserveAPICall(latency, int64(len(prompt)/4+len(out)/4))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrServiceFailure, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrServiceFailure)
	}
	return out, nil
}

// parsePlan turns the raw three-section response into an
// OrganisationPlan, resolving plan filenames back to source paths via
// the projection. Filenames the service invented are dropped with a
// warning; the validator handles the records left uncovered.
func (p *Planner) parsePlan(raw string, projection []domain.RecordProjection) (*domain.OrganisationPlan, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")

	parts := strings.SplitN(raw, sectionSeparator, 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected three sections separated by %q", domain.ErrServiceFailure, sectionSeparator)
	}
	jsonPart := strings.TrimSpace(parts[0])
	rationale := strings.TrimSpace(parts[2])

	entries, err := parsePlanObject(jsonPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceFailure, err)
	}

	// The service maps filenames; we map paths. Resolve through the
	// projection's base names.
	sources := make(map[string]string, len(projection))
	for _, entry := range projection {
		sources[filepath.Base(entry.Path)] = entry.Path
	}

	plan := &domain.OrganisationPlan{Rationale: rationale}
	for _, entry := range entries {
		dir := strings.Trim(strings.TrimSpace(entry.dir), "/")
		for _, name := range entry.files {
			source, ok := sources[name]
			if !ok {
				logger.Warn("Plan references unknown file %q, dropping", name)
				continue
			}
			plan.Mappings = append(plan.Mappings, domain.PlanMapping{
				Source:      source,
				Destination: path.Join(dir, name),
			})
		}
	}
	if len(plan.Mappings) == 0 {
		return nil, fmt.Errorf("%w: plan covers no known files", domain.ErrServiceFailure)
	}
	return plan, nil
}

// planEntry preserves the plan object's key order; collision
// resolution downstream depends on mapping order being stable.
type planEntry struct {
	dir   string
	files []string
}

// parsePlanObject decodes {"dir": ["file", ...], ...} keeping key
// order, which encoding/json maps would lose.
func parsePlanObject(s string) ([]planEntry, error) {
	dec := json.NewDecoder(strings.NewReader(s))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode plan: expected object, got %v", tok)
	}

	var entries []planEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode plan key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode plan key: got %v", keyTok)
		}

		var files []string
		if err := dec.Decode(&files); err != nil {
			return nil, fmt.Errorf("decode files for %q: %w", key, err)
		}
		entries = append(entries, planEntry{dir: key, files: files})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return entries, nil
}

// backoff returns the wait before retry attempt n (0-indexed),
// exponential with jitter, capped at 30s.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// analysisPrompt asks for a critique of the current layout, analysis
// only, no plan yet.
func analysisPrompt(projection []domain.RecordProjection) string {
	var b strings.Builder
	b.WriteString(`You are an expert file organisation assistant. Analyse the current file structure based on the provided file paths, types, and summaries, explain why the existing placement may not be optimal, and outline how a new organisation would help.

File information:
`)
	for _, entry := range projection {
		fmt.Fprintf(&b, "- File Path: %s\n  Type: %s\n  Summary: %s\n", entry.Path, entry.Extension, entry.Summary)
	}
	b.WriteString(`
Respond ONLY with a concise analysis (200-400 words) covering the current structure, why it may not be optimal, and high-level suggestions. Do not provide a JSON plan, file tree, or any reorganisation details yet.`)
	return b.String()
}

// proposalPrompt asks for the three-section organisation plan.
func proposalPrompt(projection []domain.RecordProjection, analysis string) string {
	var b strings.Builder
	b.WriteString(`You are an expert file organisation assistant. Based on the analysis below, organise the listed files into a logical folder structure.

Previous analysis of current structure:
`)
	b.WriteString(analysis)
	b.WriteString("\n\nFile information:\n")
	for _, entry := range projection {
		fmt.Fprintf(&b, "- File: %s\n  Summary: %s\n", filepath.Base(entry.Path), entry.Summary)
	}
	b.WriteString(`
Respond ONLY with a single output containing three sections separated by a line with exactly "-----". DO NOT CHANGE THE NAMES OF FILES.

1. A JSON object where each key is a proposed directory path (forward slashes) and each value is the list of filenames to move there.
2. An ASCII file tree of the same structure.
3. A concise rationale (100-200 words) for the organisation.

Ensure every file from the input appears in both the JSON and the tree.`)
	return b.String()
}
