package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnsupportedType indicates a file type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// Plan errors. Malformed and PathEscape abort the run before any
	// filesystem mutation; ServiceFailure is retryable by the caller.

	// ErrPlanMalformed indicates the proposed plan does not satisfy the
	// plan shape or its invariants. Fatal to the run.
	ErrPlanMalformed = errors.New("plan malformed")

	// ErrPathEscape indicates a plan destination escapes the destination
	// root via traversal segments. Fatal to the run.
	ErrPathEscape = errors.New("destination escapes root")

	// ErrServiceFailure indicates the plan service call failed
	// (network error, malformed or empty response). Retryable.
	ErrServiceFailure = errors.New("plan service failure")

	// Move errors. All are per-item; the executor records them and
	// continues with the rest of the batch.

	// ErrSourceVanished indicates the source file disappeared between
	// validation and execution.
	ErrSourceVanished = errors.New("source vanished")

	// ErrDestinationRace indicates the destination appeared after
	// validation. The file is never overwritten.
	ErrDestinationRace = errors.New("destination already exists")

	// ErrNotConfirmed indicates execution was requested without the
	// human confirmation gate. No mutation is performed.
	ErrNotConfirmed = errors.New("execution not confirmed")

	// ErrExtractionFailed indicates per-document text extraction failed.
	// The record is marked failed and excluded from summarisation.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Summarisation degrades to empty summaries.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrConversationDone indicates a question was asked after the
	// conversation reached its terminal state.
	ErrConversationDone = errors.New("conversation finished")
)
