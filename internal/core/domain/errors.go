package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidFilter indicates a metadata filter names an unknown key.
	ErrInvalidFilter = errors.New("invalid metadata filter")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrIndexUnavailable indicates the semantic index could not be scanned.
	// Synchronisation aborts rather than assuming an empty index.
	ErrIndexUnavailable = errors.New("semantic index unavailable")

	// ErrSubmissionFailed indicates a document batch could not be indexed.
	ErrSubmissionFailed = errors.New("batch submission failed")

	// Query Errors.

	// ErrQueryExecutionFailed indicates a generated structured query did not run.
	ErrQueryExecutionFailed = errors.New("query execution failed")

	// ErrNotReadOnly indicates generated text is not a read-only query.
	ErrNotReadOnly = errors.New("not a read-only query")

	// ErrRetrievalEmpty indicates a similarity search matched nothing.
	// It is informational: an empty retrieval is a valid answer.
	ErrRetrievalEmpty = errors.New("no documents retrieved")
)

// SubmissionError reports a failed index batch and the ids it carried.
// None of RecordIDs were recorded as indexed.
type SubmissionError struct {
	RecordIDs []string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s (%d documents, first %q): %v",
		ErrSubmissionFailed, len(e.RecordIDs), firstOrEmpty(e.RecordIDs), e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *SubmissionError) Unwrap() []error {
	return []error{ErrSubmissionFailed, e.Err}
}

// QueryExecutionError carries the structured query that was attempted.
type QueryExecutionError struct {
	Query string
	Err   error
}

func (e *QueryExecutionError) Error() string {
	q := strings.TrimSpace(e.Query)
	if q == "" {
		return fmt.Sprintf("%s: %v", ErrQueryExecutionFailed, e.Err)
	}
	return fmt.Sprintf("%s: %v (query: %s)", ErrQueryExecutionFailed, e.Err, q)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *QueryExecutionError) Unwrap() []error {
	return []error{ErrQueryExecutionFailed, e.Err}
}

func firstOrEmpty(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
