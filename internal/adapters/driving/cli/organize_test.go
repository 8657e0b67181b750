package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/core/domain"
)

func organizeMock() *mockOrganiser {
	return &mockOrganiser{
		projection: []domain.RecordProjection{
			{Path: "/inbox/invoice.pdf", Extension: ".pdf", Summary: "An invoice."},
		},
		analysis: "Everything sits in one flat folder.",
		answers: map[string]string{
			"Why?": "Invoices belong together.",
		},
		plan: &domain.OrganisationPlan{
			Mappings: []domain.PlanMapping{
				{Source: "/inbox/invoice.pdf", Destination: "finance/invoice.pdf"},
			},
			Rationale: "Finance documents get their own folder.",
		},
		validation: &domain.ValidationReport{
			MoveSet: domain.MoveSet{Ops: []domain.MoveOp{{
				Source:              "/inbox/invoice.pdf",
				Destination:         "/dest/finance/invoice.pdf",
				ResolvedDestination: "/dest/finance/invoice.pdf",
			}}},
		},
		execReport: &domain.ExecutionReport{Succeeded: 1},
	}
}

func TestOrganizeCmd_Use(t *testing.T) {
	assert.Equal(t, "organize", organizeCmd.Use)
}

func TestOrganizeCmd_YesFlow(t *testing.T) {
	org := organizeMock()
	cleanup := setupOrganiser(org)
	defer cleanup()

	out, err := runCommand(t, "", "organize", "--dest", "/dest", "--yes")
	require.NoError(t, err)

	assert.Contains(t, out, "=== Structure Analysis ===")
	assert.Contains(t, out, "Everything sits in one flat folder.")
	assert.Contains(t, out, "=== Proposed Structure ===")
	assert.Contains(t, out, "finance/")
	assert.Contains(t, out, "invoice.pdf")
	assert.Contains(t, out, "=== Rationale ===")
	assert.Contains(t, out, "1 moves ready under /dest")
	assert.Contains(t, out, "Moved 1 of 1 files")
	assert.Contains(t, out, "=== KPI Report ===")

	require.NotNil(t, org.executedConfirmed)
	assert.True(t, *org.executedConfirmed)
}

func TestOrganizeCmd_InteractiveConfirmAndExecute(t *testing.T) {
	org := organizeMock()
	cleanup := setupOrganiser(org)
	defer cleanup()

	// Empty line ends Q&A, "y" confirms planning, "yes" confirms moves.
	out, err := runCommand(t, "\ny\nyes\n", "organize", "--dest", "/dest")
	require.NoError(t, err)

	assert.Contains(t, out, "Moved 1 of 1 files")
	require.NotNil(t, org.executedConfirmed)
	assert.True(t, *org.executedConfirmed)
}

func TestOrganizeCmd_QuestionsAreAnswered(t *testing.T) {
	org := organizeMock()
	cleanup := setupOrganiser(org)
	defer cleanup()

	out, err := runCommand(t, "Why?\n\ny\nyes\n", "organize", "--dest", "/dest")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoices belong together.")
}

func TestOrganizeCmd_DeclinePlanning(t *testing.T) {
	org := organizeMock()
	cleanup := setupOrganiser(org)
	defer cleanup()

	out, err := runCommand(t, "\nn\n", "organize", "--dest", "/dest")
	require.NoError(t, err)

	assert.Contains(t, out, "Stopped before planning. Nothing was moved.")
	assert.Nil(t, org.executedConfirmed)
}

func TestOrganizeCmd_WithheldConfirmation(t *testing.T) {
	org := organizeMock()
	cleanup := setupOrganiser(org)
	defer cleanup()

	// Anything but the exact word "yes" withholds consent.
	out, err := runCommand(t, "\ny\ny\n", "organize", "--dest", "/dest")
	require.NoError(t, err)

	assert.Contains(t, out, "Not confirmed. Nothing was moved.")
	require.NotNil(t, org.executedConfirmed)
	assert.False(t, *org.executedConfirmed)
}

func TestOrganizeCmd_RequiresDestRoot(t *testing.T) {
	cleanup := setupOrganiser(organizeMock())
	defer cleanup()

	oldStore := configStore
	configStore = nil
	defer func() { configStore = oldStore }()

	_, err := runCommand(t, "", "organize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination root")
}

func TestOrganizeCmd_RequiresScanArtifacts(t *testing.T) {
	org := organizeMock()
	org.projectionErr = domain.ErrNotFound
	cleanup := setupOrganiser(org)
	defer cleanup()

	_, err := runCommand(t, "", "organize", "--dest", "/dest", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docfold scan")
}

func TestOrganizeCmd_SurfacesValidationWarnings(t *testing.T) {
	org := organizeMock()
	org.validation.Unmapped = []string{"/inbox/forgotten.txt"}
	org.validation.Renamed = []domain.MoveOp{{
		Source:              "/inbox/dup.pdf",
		Destination:         "/dest/finance/invoice.pdf",
		ResolvedDestination: "/dest/finance/invoice_1.pdf",
	}}
	cleanup := setupOrganiser(org)
	defer cleanup()

	out, err := runCommand(t, "", "organize", "--dest", "/dest", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "/inbox/forgotten.txt is not covered")
	assert.Contains(t, out, "renamed to /dest/finance/invoice_1.pdf")
}

func TestOrganizeCmd_MalformedPlan(t *testing.T) {
	org := organizeMock()
	org.validationErr = domain.ErrPlanMalformed
	cleanup := setupOrganiser(org)
	defer cleanup()

	_, err := runCommand(t, "", "organize", "--dest", "/dest", "--yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPlanMalformed)
}

func TestOrganizeCmd_EmptyMoveSet(t *testing.T) {
	org := organizeMock()
	org.validation.MoveSet.Ops = nil
	cleanup := setupOrganiser(org)
	defer cleanup()

	out, err := runCommand(t, "", "organize", "--dest", "/dest", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to move")
	assert.Nil(t, org.executedConfirmed)
}

func TestOrganizeCmd_RollbackAfterFailures(t *testing.T) {
	org := organizeMock()
	org.execReport = &domain.ExecutionReport{
		Succeeded: 1,
		Failed: []domain.MoveFailure{{
			Op:  domain.MoveOp{Source: "/inbox/gone.pdf"},
			Err: errors.New("source vanished"),
		}},
	}
	org.rollbackReport = &domain.ExecutionReport{Succeeded: 1}
	cleanup := setupOrganiser(org)
	defer cleanup()

	out, err := runCommand(t, "\ny\nyes\ny\n", "organize", "--dest", "/dest")
	require.NoError(t, err)
	assert.Contains(t, out, "Failed: /inbox/gone.pdf")
	assert.Contains(t, out, "Rolled back 1 moves")
	assert.True(t, org.rolledBack)
}
