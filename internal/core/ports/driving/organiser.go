package driving

import (
	"context"

	"github.com/docfold/docfold/internal/core/domain"
)

// Organiser drives the document organisation pipeline end to end:
// scan and summarise, analyse, converse, propose, validate, execute.
//
// A run may be abandoned between any two stages with no side effects
// beyond the persisted scan artifacts; only Execute mutates the
// filesystem, and only when confirmed.
type Organiser interface {
	// Scan walks basePath, extracts and summarises every supported
	// file, and persists the scan artifacts.
	Scan(ctx context.Context, basePath string) (*ScanSummary, error)

	// Watch keeps re-processing files under basePath as they change,
	// until the context is cancelled. Requires a prior Scan.
	Watch(ctx context.Context, basePath string) error

	// Projection loads the reduced record view from the last scan.
	Projection(ctx context.Context) ([]domain.RecordProjection, error)

	// Analyse asks the plan service to critique the current file
	// structure. The analysis seeds the Q&A session and the plan
	// proposal prompt.
	Analyse(ctx context.Context) (string, error)

	// Ask answers one user question about the analysis.
	Ask(ctx context.Context, question string) (string, error)

	// ConversationState reports the Q&A session state.
	ConversationState() domain.ConversationState

	// EndConversation moves the Q&A session to its terminal state.
	EndConversation()

	// Propose asks the plan service for an organisation plan.
	Propose(ctx context.Context) (*domain.OrganisationPlan, error)

	// Validate reconciles a plan against the live filesystem into an
	// executable move set.
	Validate(ctx context.Context, plan *domain.OrganisationPlan) (*domain.ValidationReport, error)

	// Execute applies a validated move set. Without confirmed it
	// performs no mutation and returns an empty report.
	Execute(ctx context.Context, set domain.MoveSet, confirmed bool) (*domain.ExecutionReport, error)

	// Rollback moves files completed by the last Execute back to
	// their sources, best effort, in reverse order.
	Rollback(ctx context.Context) (*domain.ExecutionReport, error)

	// Metrics snapshots the run's KPI ledger.
	Metrics() domain.MetricsReport
}

// ScanSummary reports the outcome of one scan run.
type ScanSummary struct {
	// RunID identifies the run on persisted artifacts.
	RunID string

	// Discovered is the number of supported files found.
	Discovered int

	// Extracted is the number of files whose text extraction succeeded.
	Extracted int

	// Summarised is the number of records with a ranked summary.
	Summarised int

	// Failed is the number of records marked failed.
	Failed int

	// RecordsPath is where the full record set was written.
	RecordsPath string

	// ProjectionPath is where the reduced projection was written.
	ProjectionPath string
}
