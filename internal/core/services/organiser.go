package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/core/ports/driving"
	"github.com/docfold/docfold/internal/logger"
)

// Ensure Organiser implements the interface.
var _ driving.Organiser = (*Organiser)(nil)

// Organiser coordinates the full pipeline: scan and summarise,
// persist artifacts, analyse, converse, propose, validate, execute.
// One Organiser serves one run; the destination subtree is treated as
// exclusively owned for the run's duration.
type Organiser struct {
	scanner   *Scanner
	planner   *Planner
	validator *Validator
	executor  *Executor
	records   driven.RecordStore
	artifacts driven.ArtifactStore
	metrics   *domain.MetricsLedger
	llm       driven.LLMService

	mu           sync.Mutex
	runID        string
	projection   []domain.RecordProjection
	analysis     string
	conversation *Conversation
}

// NewOrganiser wires the pipeline services together.
func NewOrganiser(
	scanner *Scanner,
	planner *Planner,
	validator *Validator,
	executor *Executor,
	records driven.RecordStore,
	artifacts driven.ArtifactStore,
	llm driven.LLMService,
	metrics *domain.MetricsLedger,
) *Organiser {
	return &Organiser{
		scanner:   scanner,
		planner:   planner,
		validator: validator,
		executor:  executor,
		records:   records,
		artifacts: artifacts,
		llm:       llm,
		metrics:   metrics,
		runID:     uuid.New().String(),
	}
}

// Scan walks basePath, processes every supported file and persists
// the two scan artifacts: the full record set and the reduced
// projection for the plan service.
func (o *Organiser) Scan(ctx context.Context, basePath string) (*driving.ScanSummary, error) {
	recs, err := o.scanner.Scan(ctx, basePath)
	if err != nil {
		return nil, err
	}

	summary := &driving.ScanSummary{
		RunID:          o.runID,
		Discovered:     len(recs),
		RecordsPath:    o.artifacts.RecordsPath(),
		ProjectionPath: o.artifacts.ProjectionPath(),
	}

	var projection []domain.RecordProjection
	for i := range recs {
		switch recs[i].Status {
		case domain.StatusSummarised:
			summary.Summarised++
			summary.Extracted++
		case domain.StatusExtracted:
			summary.Extracted++
		case domain.StatusFailed:
			summary.Failed++
		}
		// Failed records never reach the plan service.
		if recs[i].Status.AtLeast(domain.StatusExtracted) {
			projection = append(projection, recs[i].Projection())
		}
	}

	if err := o.artifacts.WriteRecords(ctx, o.runID, recs); err != nil {
		return nil, err
	}
	if err := o.artifacts.WriteProjection(ctx, o.runID, projection); err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.projection = projection
	o.mu.Unlock()

	logger.Info("Scan complete: %d records, %d in projection", len(recs), len(projection))
	return summary, nil
}

// Watch keeps re-processing changed files until ctx is cancelled.
func (o *Organiser) Watch(ctx context.Context, basePath string) error {
	return o.scanner.Watch(ctx, basePath)
}

// Projection returns the reduced record view, loading the persisted
// artifact when this process has not scanned itself.
func (o *Organiser) Projection(ctx context.Context) ([]domain.RecordProjection, error) {
	o.mu.Lock()
	cached := o.projection
	o.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	projection, err := o.artifacts.ReadProjection(ctx)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.projection = projection
	o.mu.Unlock()
	return projection, nil
}

// Analyse asks the plan service to critique the current structure and
// opens the Q&A session over the result.
func (o *Organiser) Analyse(ctx context.Context) (string, error) {
	projection, err := o.Projection(ctx)
	if err != nil {
		return "", err
	}

	var analysis string
	err = o.metrics.TimeStage(domain.StagePlan, func() error {
		var err error
		analysis, err = o.planner.Analyse(ctx, projection)
		return err
	})
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.analysis = analysis
	o.conversation = NewConversation(o.llm, o.metrics, projection, analysis)
	o.mu.Unlock()
	return analysis, nil
}

// Ask answers one question in the open Q&A session.
func (o *Organiser) Ask(ctx context.Context, question string) (string, error) {
	o.mu.Lock()
	conv := o.conversation
	o.mu.Unlock()
	if conv == nil {
		return "", errors.New("no analysis available, run Analyse first")
	}
	return conv.Ask(ctx, question)
}

// ConversationState reports the Q&A session state.
func (o *Organiser) ConversationState() domain.ConversationState {
	o.mu.Lock()
	conv := o.conversation
	o.mu.Unlock()
	if conv == nil {
		return domain.ConversationDone
	}
	return conv.State()
}

// EndConversation closes the Q&A session.
func (o *Organiser) EndConversation() {
	o.mu.Lock()
	conv := o.conversation
	o.mu.Unlock()
	if conv != nil {
		conv.End()
	}
}

// Propose asks the plan service for an organisation plan over the
// current projection and the analysis context.
func (o *Organiser) Propose(ctx context.Context) (*domain.OrganisationPlan, error) {
	projection, err := o.Projection(ctx)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	analysis := o.analysis
	o.mu.Unlock()

	var plan *domain.OrganisationPlan
	err = o.metrics.TimeStage(domain.StagePlan, func() error {
		var err error
		plan, err = o.planner.Propose(ctx, projection, analysis)
		return err
	})
	return plan, err
}

// Validate reconciles the plan into an executable move set.
func (o *Organiser) Validate(ctx context.Context, plan *domain.OrganisationPlan) (*domain.ValidationReport, error) {
	records, err := o.knownRecords(ctx)
	if err != nil {
		return nil, err
	}

	var report *domain.ValidationReport
	err = o.metrics.TimeStage(domain.StageValidate, func() error {
		var err error
		report, err = o.validator.Validate(ctx, plan, records)
		return err
	})
	return report, err
}

// Execute applies a validated move set behind the confirmation gate.
func (o *Organiser) Execute(ctx context.Context, set domain.MoveSet, confirmed bool) (*domain.ExecutionReport, error) {
	var report *domain.ExecutionReport
	err := o.metrics.TimeStage(domain.StageExecute, func() error {
		var err error
		report, err = o.executor.Execute(ctx, set, confirmed)
		return err
	})
	return report, err
}

// Rollback restores files moved by the last Execute.
func (o *Organiser) Rollback(ctx context.Context) (*domain.ExecutionReport, error) {
	return o.executor.Rollback(ctx)
}

// Metrics snapshots the run's KPI ledger.
func (o *Organiser) Metrics() domain.MetricsReport {
	return o.metrics.Report()
}

// knownRecords returns the records the validator checks coverage
// against. A fresh process that only loaded artifacts reconstructs
// extracted-status records from the projection; by construction it
// contains exactly the records that reached extraction.
func (o *Organiser) knownRecords(ctx context.Context) ([]domain.DocumentRecord, error) {
	records, err := o.records.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}

	projection, err := o.Projection(ctx)
	if err != nil {
		return nil, err
	}
	records = make([]domain.DocumentRecord, 0, len(projection))
	for _, entry := range projection {
		records = append(records, domain.DocumentRecord{
			Path:      entry.Path,
			Extension: entry.Extension,
			Status:    domain.StatusExtracted,
		})
	}
	return records, nil
}
