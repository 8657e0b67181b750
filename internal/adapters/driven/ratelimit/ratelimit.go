// Package ratelimit wraps the external AI services with token bucket
// rate limiting. Sentence-level summarisation can issue hundreds of
// embedding requests per scan; the wrappers keep the request rate
// under provider quotas without the callers knowing about it.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Config holds rate limiting configuration for one service.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int
}

// Conservative defaults, well under typical provider quotas.
var (
	DefaultEmbeddingLimit = Config{RequestsPerSecond: 10.0, BurstSize: 20}
	DefaultLLMLimit       = Config{RequestsPerSecond: 2.0, BurstSize: 4}
)

// Ensure the wrappers implement the interfaces.
var (
	_ driven.EmbeddingService = (*Embedding)(nil)
	_ driven.LLMService       = (*LLM)(nil)
)

// Embedding rate-limits an EmbeddingService.
type Embedding struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// NewEmbedding wraps the service with the given limit. A zero config
// falls back to the embedding default.
func NewEmbedding(inner driven.EmbeddingService, cfg Config) *Embedding {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultEmbeddingLimit
	}
	return &Embedding{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Embed waits for a token and delegates.
func (e *Embedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, text)
}

// EmbedBatch waits for a single token and delegates. A batch is one
// request upstream regardless of size.
func (e *Embedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector size.
func (e *Embedding) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the wrapped service's model name.
func (e *Embedding) ModelName() string { return e.inner.ModelName() }

// Ping delegates without consuming a token.
func (e *Embedding) Ping(ctx context.Context) error { return e.inner.Ping(ctx) }

// Close closes the wrapped service.
func (e *Embedding) Close() error { return e.inner.Close() }

// LLM rate-limits an LLMService.
type LLM struct {
	inner   driven.LLMService
	limiter *rate.Limiter
}

// NewLLM wraps the service with the given limit. A zero config falls
// back to the LLM default.
func NewLLM(inner driven.LLMService, cfg Config) *LLM {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultLLMLimit
	}
	return &LLM{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Generate waits for a token and delegates.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.inner.Generate(ctx, prompt, opts)
}

// Chat waits for a token and delegates.
func (l *LLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.inner.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped service's model name.
func (l *LLM) ModelName() string { return l.inner.ModelName() }

// Ping delegates without consuming a token.
func (l *LLM) Ping(ctx context.Context) error { return l.inner.Ping(ctx) }

// Close closes the wrapped service.
func (l *LLM) Close() error { return l.inner.Close() }
