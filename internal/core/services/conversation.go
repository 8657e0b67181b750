package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Conversation is the Q&A session held between the structure analysis
// and plan confirmation. It is an explicit state machine: awaiting a
// question, answering while a service call is in flight, done once
// ended. The natural-language content comes from the same LLM service
// as the plan.
type Conversation struct {
	llm        driven.LLMService
	metrics    *domain.MetricsLedger
	projection []domain.RecordProjection
	analysis   string

	mu         sync.Mutex
	state      domain.ConversationState
	transcript []domain.Exchange
}

// NewConversation starts a session over the projection and the
// analysis already shown to the user.
func NewConversation(
	llm driven.LLMService,
	metrics *domain.MetricsLedger,
	projection []domain.RecordProjection,
	analysis string,
) *Conversation {
	return &Conversation{
		llm:        llm,
		metrics:    metrics,
		projection: projection,
		analysis:   analysis,
		state:      domain.ConversationAwaitingQuestion,
	}
}

// State returns the current session state.
func (c *Conversation) State() domain.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the exchanges so far.
func (c *Conversation) Transcript() []domain.Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Exchange, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Ask answers one user question. The session transitions to answering
// for the duration of the service call and back to awaiting on
// return, successful or not.
func (c *Conversation) Ask(ctx context.Context, question string) (string, error) {
	c.mu.Lock()
	if c.state == domain.ConversationDone {
		c.mu.Unlock()
		return "", domain.ErrConversationDone
	}
	c.state = domain.ConversationAnswering
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.state == domain.ConversationAnswering {
			c.state = domain.ConversationAwaitingQuestion
		}
		c.mu.Unlock()
	}()

	if c.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	prompt := c.answerPrompt(question)
	started := time.Now()
	answer, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.3})
	if c.metrics != nil {
		c.metrics.ObserveAPICall(time.Since(started), int64(len(prompt)/4+len(answer)/4))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrServiceFailure, err)
	}

	answer = strings.TrimSpace(answer)
	c.mu.Lock()
	c.transcript = append(c.transcript, domain.Exchange{Question: question, Answer: answer})
	c.mu.Unlock()
	return answer, nil
}

// End moves the session to its terminal state. Idempotent.
func (c *Conversation) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = domain.ConversationDone
}

// answerPrompt grounds the answer in the file summaries and the
// analysis the user has already seen.
func (c *Conversation) answerPrompt(question string) string {
	var b strings.Builder
	b.WriteString(`You are a file organisation assistant. You have already provided the user with an initial analysis of their files. Answer the user's follow-up question.

Original file information:
`)
	for _, entry := range c.projection {
		fmt.Fprintf(&b, "- File: %s\n  Summary: %s\n", filepath.Base(entry.Path), entry.Summary)
	}
	b.WriteString("\nYour previous analysis:\n")
	b.WriteString(c.analysis)
	fmt.Fprintf(&b, "\n\nUser's question:\n%q\n", question)
	b.WriteString(`
Provide a clear and concise answer based on the context above. When asked why files might be grouped together, explain the logical connection based on their summaries.`)
	return b.String()
}
