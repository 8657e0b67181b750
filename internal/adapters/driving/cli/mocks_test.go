package cli

import (
	"context"
	"time"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driving"
)

// mockOrganiser implements driving.Organiser with canned results.
type mockOrganiser struct {
	scanSummary *driving.ScanSummary
	scanErr     error
	scannedPath string

	projection    []domain.RecordProjection
	projectionErr error

	analysis string
	answers  map[string]string

	plan    *domain.OrganisationPlan
	planErr error

	validation    *domain.ValidationReport
	validationErr error

	execReport        *domain.ExecutionReport
	executedConfirmed *bool
	rollbackReport    *domain.ExecutionReport
	rolledBack        bool
}

func (m *mockOrganiser) Scan(_ context.Context, basePath string) (*driving.ScanSummary, error) {
	m.scannedPath = basePath
	return m.scanSummary, m.scanErr
}

func (m *mockOrganiser) Watch(_ context.Context, _ string) error { return nil }

func (m *mockOrganiser) Projection(_ context.Context) ([]domain.RecordProjection, error) {
	return m.projection, m.projectionErr
}

func (m *mockOrganiser) Analyse(_ context.Context) (string, error) {
	return m.analysis, nil
}

func (m *mockOrganiser) Ask(_ context.Context, question string) (string, error) {
	return m.answers[question], nil
}

func (m *mockOrganiser) ConversationState() domain.ConversationState {
	return domain.ConversationAwaitingQuestion
}

func (m *mockOrganiser) EndConversation() {}

func (m *mockOrganiser) Propose(_ context.Context) (*domain.OrganisationPlan, error) {
	return m.plan, m.planErr
}

func (m *mockOrganiser) Validate(_ context.Context, _ *domain.OrganisationPlan) (*domain.ValidationReport, error) {
	return m.validation, m.validationErr
}

func (m *mockOrganiser) Execute(_ context.Context, _ domain.MoveSet, confirmed bool) (*domain.ExecutionReport, error) {
	m.executedConfirmed = &confirmed
	if !confirmed {
		return &domain.ExecutionReport{}, nil
	}
	return m.execReport, nil
}

func (m *mockOrganiser) Rollback(_ context.Context) (*domain.ExecutionReport, error) {
	m.rolledBack = true
	return m.rollbackReport, nil
}

func (m *mockOrganiser) Metrics() domain.MetricsReport {
	return domain.MetricsReport{
		Elapsed: 1500 * time.Millisecond,
		Counters: map[string]int64{
			domain.CounterFilesDiscovered: 4,
			domain.CounterExtracted:       3,
			domain.CounterSummarised:      3,
		},
		Stages: map[domain.Stage]time.Duration{
			domain.StageScan: 20 * time.Millisecond,
		},
	}
}

// setupOrganiser installs a builder returning the mock and restores
// the previous builder on cleanup.
func setupOrganiser(org *mockOrganiser) func() {
	oldBuilder := buildOrganiser
	buildOrganiser = func(_ PipelineOptions) (driving.Organiser, error) {
		return org, nil
	}
	return func() {
		buildOrganiser = oldBuilder
	}
}
