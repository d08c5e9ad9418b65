package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIngestInProgress indicates an ingestion run is already running.
	ErrIngestInProgress = errors.New("ingestion in progress")

	// Ingestion Errors.

	// ErrLoadFailure indicates a source document could not be read or parsed.
	// Document-scoped: the document is skipped and reported, the run continues.
	ErrLoadFailure = errors.New("document load failure")

	// ErrEmbeddingUnavailable indicates the embedding capability cannot be
	// reached. Transient: retried with bounded backoff, then the affected
	// batch is skipped and reported.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation capability is not reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Index Integrity Errors. Run-scoped: further writes must halt.

	// ErrDimensionMismatch indicates a vector's length does not match the
	// index's fixed dimension. The write is rejected and the index unchanged.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIncompatibleIndexVersion indicates a persisted index snapshot has an
	// unsupported schema version or dimension. Fatal at load time: the index
	// refuses to serve queries rather than return wrong-dimension results.
	ErrIncompatibleIndexVersion = errors.New("incompatible index version")

	// Query Outcomes.

	// ErrNoRelevantContext indicates no indexed chunk met the similarity
	// threshold for a query. Not a failure: a defined, user-visible outcome
	// meaning the corpus does not cover the question. Callers should report
	// inability to answer rather than invoke generation without grounding.
	ErrNoRelevantContext = errors.New("no relevant context")
)
