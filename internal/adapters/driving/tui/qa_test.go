package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driving"
)

// mockOrganiser implements driving.Organiser for the session tests.
// Only Ask carries behaviour.
type mockOrganiser struct {
	asked  []string
	answer string
	err    error
}

func (m *mockOrganiser) Scan(_ context.Context, _ string) (*driving.ScanSummary, error) {
	return nil, nil
}
func (m *mockOrganiser) Watch(_ context.Context, _ string) error { return nil }
func (m *mockOrganiser) Projection(_ context.Context) ([]domain.RecordProjection, error) {
	return nil, nil
}
func (m *mockOrganiser) Analyse(_ context.Context) (string, error) { return "", nil }

func (m *mockOrganiser) Ask(_ context.Context, question string) (string, error) {
	m.asked = append(m.asked, question)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockOrganiser) ConversationState() domain.ConversationState {
	return domain.ConversationAwaitingQuestion
}
func (m *mockOrganiser) EndConversation() {}
func (m *mockOrganiser) Propose(_ context.Context) (*domain.OrganisationPlan, error) {
	return nil, nil
}
func (m *mockOrganiser) Validate(_ context.Context, _ *domain.OrganisationPlan) (*domain.ValidationReport, error) {
	return nil, nil
}
func (m *mockOrganiser) Execute(_ context.Context, _ domain.MoveSet, _ bool) (*domain.ExecutionReport, error) {
	return nil, nil
}
func (m *mockOrganiser) Rollback(_ context.Context) (*domain.ExecutionReport, error) {
	return nil, nil
}
func (m *mockOrganiser) Metrics() domain.MetricsReport { return domain.MetricsReport{} }

func newTestSession(org driving.Organiser) *Session {
	s := NewSession(context.Background(), org, "The files are scattered.")
	model, _ := s.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(*Session)
}

func TestSession_ViewShowsAnalysis(t *testing.T) {
	s := newTestSession(&mockOrganiser{})

	view := s.View()
	assert.Contains(t, view, "Structure Analysis")
	assert.Contains(t, view, "The files are scattered.")
}

func TestSession_EmptySubmitQuits(t *testing.T) {
	s := newTestSession(&mockOrganiser{})

	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSession_EscQuits(t *testing.T) {
	s := newTestSession(&mockOrganiser{})

	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSession_AskAppendsTranscript(t *testing.T) {
	org := &mockOrganiser{answer: "Because they are invoices."}
	s := newTestSession(org)

	s.input.SetValue("Why group these?")
	model, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	s = model.(*Session)
	require.NotNil(t, cmd)
	assert.True(t, s.waiting)

	// The command runs the service call and yields the answer.
	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"Why group these?"}, org.asked)

	model, _ = s.Update(answer)
	s = model.(*Session)
	assert.False(t, s.waiting)
	assert.Contains(t, s.View(), "Why group these?")
	assert.Contains(t, s.View(), "Because they are invoices.")
}

func TestSession_AskFailureShowsError(t *testing.T) {
	org := &mockOrganiser{err: errors.New("service down")}
	s := newTestSession(org)

	s.input.SetValue("Anything?")
	model, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	s = model.(*Session)
	require.NotNil(t, cmd)

	model, _ = s.Update(cmd())
	s = model.(*Session)
	assert.False(t, s.waiting)
	assert.Contains(t, s.View(), "service down")
	assert.NotContains(t, s.View(), "Anything?")
}

func TestSession_IgnoresSubmitWhileWaiting(t *testing.T) {
	org := &mockOrganiser{answer: "ok"}
	s := newTestSession(org)

	s.input.SetValue("first")
	model, _ := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	s = model.(*Session)
	require.True(t, s.waiting)

	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, org.asked, 1)
}
