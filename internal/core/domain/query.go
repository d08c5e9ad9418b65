package domain

import "time"

// AskOptions configures a knowledge-base query.
type AskOptions struct {
	// Language is an explicit language hint. When set and valid it takes
	// precedence over script detection of the question text.
	Language Language

	// TopK is the maximum number of chunks to retrieve (0 = configured default).
	TopK int

	// MinSimilarity overrides the configured similarity threshold when set.
	// An explicit zero is honoured: cosine scores can be negative, so a zero
	// threshold is a meaningful request, not an absent one.
	MinSimilarity *float64

	// SkipGeneration retrieves and assembles context without calling the
	// generation capability. Used by callers that do their own prompting.
	SkipGeneration bool
}

// RetrievedChunk is a supporting chunk reference in a query result,
// carrying enough detail to trace the answer back to its source span.
type RetrievedChunk struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the parent document (content hash).
	DocumentID string

	// URI is the parent document's original location.
	URI string

	// StartOffset is the chunk's byte start in the parent content.
	StartOffset int

	// EndOffset is the chunk's byte end in the parent content.
	EndOffset int

	// Content is a preview of the chunk text.
	Content string

	// Score is the similarity score under the index's metric.
	Score float64
}

// Answer is the result of a knowledge-base query: an assembled context,
// the generated answer, and the ranked chunk references that ground it.
type Answer struct {
	// Question is the original query string.
	Question string

	// Answer is the generated response. Empty when SkipGeneration is set.
	Answer string

	// Context is the assembled, bounded context handed to generation.
	Context string

	// Language is the effective query language after routing.
	Language Language

	// Sources are the surviving chunks, most relevant first.
	Sources []RetrievedChunk

	// EmbeddingModel names the embedding model used for the query.
	EmbeddingModel string

	// GenerationModel names the model that produced the answer.
	GenerationModel string

	// Elapsed is the total query processing time.
	Elapsed time.Duration
}

// IngestFailure records a document-scoped ingestion failure with enough
// detail to retry just the failed unit.
type IngestFailure struct {
	// URI is the failed document's location.
	URI string

	// Stage is the pipeline stage that failed (load, normalise, chunk,
	// embed, store, index).
	Stage string

	// Reason is the failure description.
	Reason string
}

// IngestReport summarises an ingestion run.
type IngestReport struct {
	// SourceID identifies the ingested source.
	SourceID string

	// DocumentsProcessed counts documents fully ingested.
	DocumentsProcessed int

	// DocumentsSkipped counts documents skipped (unsupported type,
	// unchanged content).
	DocumentsSkipped int

	// DocumentsFailed counts documents that failed and were reported.
	DocumentsFailed int

	// ChunksIndexed counts chunks committed to the vector index.
	ChunksIndexed int

	// Failures lists per-document failure details.
	Failures []IngestFailure

	// Elapsed is the total run time.
	Elapsed time.Duration
}
