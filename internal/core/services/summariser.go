package services

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
)

// DefaultMaxSentences is the default summary length bound.
const DefaultMaxSentences = 5

// DefaultMinSimilarity is the default relevance floor: sentences whose
// cosine similarity to the document embedding falls below it are never
// selected, even when the budget is not exhausted.
const DefaultMinSimilarity = 0.1

// sentenceSplitter breaks text into sentence units on terminal
// punctuation.
var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Summariser produces a ranked, length-bounded summary and a
// whole-document embedding. It is a pure function over its inputs and
// the injected embedding service: identical text and embedder yield
// an identical summary and vector.
type Summariser struct {
	embedder      driven.EmbeddingService
	maxSentences  int
	minSimilarity float64
}

// SummariserOption configures the summariser.
type SummariserOption func(*Summariser)

// WithMaxSentences bounds the number of selected sentences.
func WithMaxSentences(n int) SummariserOption {
	return func(s *Summariser) {
		if n > 0 {
			s.maxSentences = n
		}
	}
}

// WithMinSimilarity sets the relevance floor for sentence selection.
func WithMinSimilarity(min float64) SummariserOption {
	return func(s *Summariser) {
		if min >= 0 {
			s.minSimilarity = min
		}
	}
}

// NewSummariser creates a summariser over the given embedding service.
func NewSummariser(embedder driven.EmbeddingService, opts ...SummariserOption) *Summariser {
	s := &Summariser{
		embedder:      embedder,
		maxSentences:  DefaultMaxSentences,
		minSimilarity: DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarise selects the sentences most similar to the whole-document
// embedding. Ranking is by cosine similarity descending with ties
// broken by original sentence order; the selection is then emitted in
// original document order so the summary reads coherently.
//
// Empty text yields an empty summary and no vector without error. An
// embedding failure is returned to the caller, who records it as a
// recoverable per-document failure.
func (s *Summariser) Summarise(ctx context.Context, text string) ([]string, []float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}
	if s.embedder == nil {
		return nil, nil, domain.ErrEmbeddingUnavailable
	}

	docVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, nil, err
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil, docVec, nil
	}

	sentVecs, err := s.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, nil, err
	}

	sims := make([]float64, len(sentences))
	for i := range sentences {
		sims[i] = cosine(docVec, sentVecs[i])
	}

	// Rank by similarity descending; SliceStable keeps ties in
	// original sentence order.
	ranked := make([]int, len(sentences))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return sims[ranked[a]] > sims[ranked[b]]
	})

	var selected []int
	for _, idx := range ranked {
		if len(selected) == s.maxSentences {
			break
		}
		if sims[idx] > s.minSimilarity {
			selected = append(selected, idx)
		}
	}
	sort.Ints(selected)

	summary := make([]string, 0, len(selected))
	for _, idx := range selected {
		summary = append(summary, sentences[idx])
	}
	return summary, docVec, nil
}

// SummariseTable produces a line-based summary for tabular content:
// the first maxSentences non-empty lines, headers first. Sentence
// ranking is meaningless for rows, so no embedding of individual
// lines is attempted; the document embedding is still computed.
func (s *Summariser) SummariseTable(ctx context.Context, text string) ([]string, []float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}
	if s.embedder == nil {
		return nil, nil, domain.ErrEmbeddingUnavailable
	}

	docVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, nil, err
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == s.maxSentences {
			break
		}
	}
	return lines, docVec, nil
}

// SplitSentences breaks text into trimmed sentence units. Text with
// no terminal punctuation is treated as a single sentence.
func SplitSentences(text string) []string {
	sentences := sentenceSplitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// cosine computes dot(a,b) / (|a|*|b|). Similarity is undefined when
// either vector has zero norm and is reported as 0.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
