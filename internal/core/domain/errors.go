package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoResults indicates there is nothing to export.
	ErrNoResults = errors.New("no results")

	// Ingestion Errors.

	// ErrIncompleteDocument indicates identity fields (title, source) are missing.
	// The caller must supply more data; retrying the same input cannot succeed.
	ErrIncompleteDocument = errors.New("incomplete document")

	// ErrIngestFailed indicates the relational write failed. No vectors were written.
	ErrIngestFailed = errors.New("ingest failed")

	// ErrPartiallySynced indicates the relational row exists but some vectors are missing.
	// Re-ingesting the same article heals it.
	ErrPartiallySynced = errors.New("partially synced")

	// Query Errors.

	// ErrInvalidQuery indicates an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidFilterRange indicates dateFrom is after dateTo.
	ErrInvalidFilterRange = errors.New("invalid filter range")

	// Collaborator Errors.

	// ErrEmbeddingUnavailable indicates the embedding service failed or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates a relational or vector store failed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConstraintViolation indicates the relational store rejected a row.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrDimensionMismatch indicates a vector does not match the store's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// IsInputError reports whether err was caused by the caller's input rather than
// by a collaborator. Input errors should be fixed, not retried.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrInvalidFilterRange) ||
		errors.Is(err, ErrIncompleteDocument) ||
		errors.Is(err, ErrInvalidInput)
}
