// Package tui provides the interactive question and answer view shown
// between the structure analysis and plan confirmation.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docfold/docfold/internal/core/ports/driving"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// answerMsg carries one completed service call back into the model.
type answerMsg struct {
	question string
	answer   string
	err      error
}

// Session is the Q&A bubbletea model. It renders the analysis and the
// running transcript in a viewport, with a text input for the next
// question. An empty submission ends the session.
type Session struct {
	organiser driving.Organiser
	ctx       context.Context
	analysis  string

	input    textinput.Model
	viewport viewport.Model
	history  []string
	waiting  bool
	err      error
	ready    bool
	width    int
	height   int
}

// NewSession creates the Q&A model over an organiser whose Analyse has
// already run.
func NewSession(ctx context.Context, organiser driving.Organiser, analysis string) *Session {
	input := textinput.New()
	input.Placeholder = "Ask about the analysis, or press Enter to continue"
	input.Focus()
	input.CharLimit = 500

	s := &Session{
		organiser: organiser,
		ctx:       ctx,
		analysis:  analysis,
		input:     input,
		viewport:  viewport.New(80, 20),
		width:     80,
		height:    24,
	}
	s.refreshContent()
	return s
}

// Init starts the input cursor blink.
func (s *Session) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and completed answers.
func (s *Session) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.viewport.Width = msg.Width
		s.viewport.Height = msg.Height - 4
		s.ready = true
		s.refreshContent()
		return s, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return s, tea.Quit

		case tea.KeyEnter:
			if s.waiting {
				return s, nil
			}
			question := strings.TrimSpace(s.input.Value())
			if question == "" {
				return s, tea.Quit
			}
			s.input.SetValue("")
			s.waiting = true
			s.err = nil
			return s, s.ask(question)

		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			s.viewport, cmd = s.viewport.Update(msg)
			return s, cmd
		}

	case answerMsg:
		s.waiting = false
		if msg.err != nil {
			s.err = msg.err
		} else {
			s.history = append(s.history,
				questionStyle.Render("Q: "+msg.question),
				answerStyle.Render(msg.answer),
				"")
		}
		s.refreshContent()
		s.viewport.GotoBottom()
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// View renders the session.
func (s *Session) View() string {
	var b strings.Builder
	b.WriteString(s.viewport.View())
	b.WriteString("\n")
	if s.waiting {
		b.WriteString(helpStyle.Render("Thinking..."))
	} else {
		b.WriteString(s.input.View())
	}
	b.WriteString("\n")
	if s.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", s.err)))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("Enter: ask / continue  •  Esc: continue  •  ↑/↓: scroll"))
	return b.String()
}

// ask runs one question against the organiser off the UI loop.
func (s *Session) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := s.organiser.Ask(s.ctx, question)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// refreshContent rebuilds the viewport from the analysis and the
// transcript.
func (s *Session) refreshContent() {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Structure Analysis"))
	b.WriteString("\n\n")
	b.WriteString(s.analysis)
	b.WriteString("\n\n")
	for _, line := range s.history {
		b.WriteString(line)
		b.WriteString("\n")
	}
	s.viewport.SetContent(lipgloss.NewStyle().Width(s.width).Render(b.String()))
}

// RunQA runs the Q&A session until the user continues or cancels.
func RunQA(ctx context.Context, organiser driving.Organiser, analysis string) error {
	p := tea.NewProgram(NewSession(ctx, organiser, analysis), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("question session: %w", err)
	}
	return nil
}
