// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): extraction, embeddings, the plan LLM,
// record and artifact storage, configuration and filesystem moves.
package driven
