package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/core/domain"
)

func extractedRecords(paths ...string) []domain.DocumentRecord {
	records := make([]domain.DocumentRecord, len(paths))
	for i, p := range paths {
		records[i] = domain.DocumentRecord{Path: p, Status: domain.StatusExtracted}
	}
	return records
}

func TestValidator_Validate(t *testing.T) {
	mover := newFakeMover()
	v := NewValidator("/dest", mover, nil)

	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/src/report.pdf", Destination: "finance/report.pdf"},
		{Source: "/src/notes.txt", Destination: "notes.txt"},
	}}
	records := extractedRecords("/src/report.pdf", "/src/notes.txt")

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)

	require.Len(t, report.MoveSet.Ops, 2)
	// Depth ascending: the root-level file moves first.
	assert.Equal(t, "/dest/notes.txt", report.MoveSet.Ops[0].ResolvedDestination)
	assert.Equal(t, "/dest/finance/report.pdf", report.MoveSet.Ops[1].ResolvedDestination)
	assert.Empty(t, report.Unmapped)
	assert.Empty(t, report.Renamed)
	assert.Zero(t, report.Elided)
}

func TestValidator_Validate_SchemaErrors(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/src/a.txt", "/src/b.txt")

	tests := []struct {
		name string
		plan *domain.OrganisationPlan
	}{
		{"nil plan", nil},
		{"no mappings", &domain.OrganisationPlan{}},
		{"empty source", &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
			{Source: "", Destination: "x/a.txt"},
		}}},
		{"empty destination", &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
			{Source: "/src/a.txt", Destination: ""},
		}}},
		{"duplicate source", &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
			{Source: "/src/a.txt", Destination: "x/a.txt"},
			{Source: "/src/a.txt", Destination: "y/a.txt"},
		}}},
		{"unknown source", &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
			{Source: "/src/ghost.txt", Destination: "x/ghost.txt"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.plan, records)
			assert.ErrorIs(t, err, domain.ErrPlanMalformed)
		})
	}
}

func TestValidator_Validate_RejectsUnextractedSource(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := []domain.DocumentRecord{
		{Path: "/src/a.txt", Status: domain.StatusPending},
	}
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/src/a.txt", Destination: "x/a.txt"},
	}}

	_, err := v.Validate(context.Background(), plan, records)
	assert.ErrorIs(t, err, domain.ErrPlanMalformed)
}

func TestValidator_Validate_UnmappedIsNonFatal(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/src/a.txt", "/src/b.txt", "/src/c.txt")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/src/a.txt", Destination: "docs/a.txt"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/b.txt", "/src/c.txt"}, report.Unmapped)
	assert.Len(t, report.MoveSet.Ops, 1)
}

func TestValidator_Validate_FailedRecordsNotCounted(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := []domain.DocumentRecord{
		{Path: "/src/a.txt", Status: domain.StatusExtracted},
		{Path: "/src/broken.bin", Status: domain.StatusFailed},
	}
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/src/a.txt", Destination: "docs/a.txt"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	assert.Empty(t, report.Unmapped)
}

func TestValidator_Validate_PathEscape(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/src/a.txt")

	for _, dest := range []string{
		"/etc/passwd",
		"../outside/a.txt",
		"docs/../../a.txt",
		"..",
		".",
	} {
		t.Run(dest, func(t *testing.T) {
			plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
				{Source: "/src/a.txt", Destination: dest},
			}}
			_, err := v.Validate(context.Background(), plan, records)
			assert.ErrorIs(t, err, domain.ErrPathEscape)
		})
	}
}

func TestValidator_Validate_DotSegmentsInsideRootAllowed(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/src/a.txt")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/src/a.txt", Destination: "docs/sub/../a.txt"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	require.Len(t, report.MoveSet.Ops, 1)
	assert.Equal(t, "/dest/docs/a.txt", report.MoveSet.Ops[0].ResolvedDestination)
}

func TestValidator_Validate_ElidesSelfMoves(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/dest/docs/a.txt", "/src/b.txt")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/dest/docs/a.txt", Destination: "docs/a.txt"},
		{Source: "/src/b.txt", Destination: "docs/b.txt"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Elided)
	require.Len(t, report.MoveSet.Ops, 1)
	assert.Equal(t, "/src/b.txt", report.MoveSet.Ops[0].Source)
}

func TestValidator_Validate_CollisionBetweenMappings(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/alpha/out.pdf", "/beta/out.pdf", "/gamma/out.pdf")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/alpha/out.pdf", Destination: "reports/out.pdf"},
		{Source: "/beta/out.pdf", Destination: "reports/out.pdf"},
		{Source: "/gamma/out.pdf", Destination: "reports/out.pdf"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	require.Len(t, report.MoveSet.Ops, 3)
	assert.Equal(t, "/dest/reports/out.pdf", report.MoveSet.Ops[0].ResolvedDestination)
	assert.Equal(t, "/dest/reports/out_1.pdf", report.MoveSet.Ops[1].ResolvedDestination)
	assert.Equal(t, "/dest/reports/out_2.pdf", report.MoveSet.Ops[2].ResolvedDestination)
	assert.Len(t, report.Renamed, 2)
}

func TestValidator_Validate_CollisionWithExistingFile(t *testing.T) {
	mover := newFakeMover()
	mover.addFile("/dest/reports/out.pdf", "existing")
	v := NewValidator("/dest", mover, nil)

	records := extractedRecords("/src/out.pdf")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/src/out.pdf", Destination: "reports/out.pdf"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	require.Len(t, report.MoveSet.Ops, 1)
	assert.Equal(t, "/dest/reports/out_1.pdf", report.MoveSet.Ops[0].ResolvedDestination)
	assert.True(t, report.MoveSet.Ops[0].Renamed())
}

func TestValidator_Validate_ElidedPathStaysTaken(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/dest/docs/a.txt", "/src/a.txt")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/dest/docs/a.txt", Destination: "docs/a.txt"},
		{Source: "/src/a.txt", Destination: "docs/a.txt"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Elided)
	require.Len(t, report.MoveSet.Ops, 1)
	assert.Equal(t, "/dest/docs/a_1.txt", report.MoveSet.Ops[0].ResolvedDestination)
}

func TestValidator_Validate_DepthOrdering(t *testing.T) {
	v := NewValidator("/dest", newFakeMover(), nil)
	records := extractedRecords("/src/a.txt", "/src/b.txt", "/src/c.txt")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/src/a.txt", Destination: "x/y/z/a.txt"},
		{Source: "/src/b.txt", Destination: "b.txt"},
		{Source: "/src/c.txt", Destination: "x/c.txt"},
	}}

	report, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	require.Len(t, report.MoveSet.Ops, 3)
	assert.Equal(t, "/dest/b.txt", report.MoveSet.Ops[0].ResolvedDestination)
	assert.Equal(t, "/dest/x/c.txt", report.MoveSet.Ops[1].ResolvedDestination)
	assert.Equal(t, "/dest/x/y/z/a.txt", report.MoveSet.Ops[2].ResolvedDestination)
}

func TestValidator_Validate_Deterministic(t *testing.T) {
	mover := newFakeMover()
	mover.addFile("/dest/docs/out.txt", "existing")
	v := NewValidator("/dest", mover, nil)

	records := extractedRecords("/a/out.txt", "/b/out.txt")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/a/out.txt", Destination: "docs/out.txt"},
		{Source: "/b/out.txt", Destination: "docs/out.txt"},
	}}

	first, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)
	assert.Equal(t, first.MoveSet, second.MoveSet)
}

func TestValidator_Validate_RecordsMetrics(t *testing.T) {
	metrics := domain.NewMetricsLedger()
	v := NewValidator("/dest", newFakeMover(), metrics)

	records := extractedRecords("/a/out.txt", "/b/out.txt", "/c/spare.txt")
	plan := &domain.OrganisationPlan{Mappings: []domain.PlanMapping{
		{Source: "/a/out.txt", Destination: "docs/out.txt"},
		{Source: "/b/out.txt", Destination: "docs/out.txt"},
	}}

	_, err := v.Validate(context.Background(), plan, records)
	require.NoError(t, err)

	report := metrics.Report()
	assert.Equal(t, int64(2), report.Count(domain.CounterMovesPlanned))
	assert.Equal(t, int64(1), report.Count(domain.CounterUnmappedRecords))
	assert.Equal(t, int64(1), report.Count(domain.CounterCollisionsRenamed))
}
