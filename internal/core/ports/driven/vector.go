package driven

import (
	"context"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

// VectorIndex owns persisted vectors and their metadata, and provides
// nearest-neighbour search over them.
//
// The index has a fixed dimensionality and similarity metric, set at
// creation. Mutations (Upsert, DeleteDocument, Persist) are serialized by
// the implementation; Search may run concurrently with other searches and
// observes either the pre- or post-mutation state, never a partial one.
type VectorIndex interface {
	// Upsert inserts entries; an entry whose ChunkID already exists
	// replaces the previous one. Entries whose vector length does not
	// match the index dimension are rejected with
	// domain.ErrDimensionMismatch and the index is left unchanged.
	Upsert(ctx context.Context, entries []domain.VectorEntry) error

	// DeleteDocument removes all entries belonging to a document,
	// supporting re-ingestion of updated content.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search returns the k entries most similar to the query vector among
	// those matching the filter, ordered by non-increasing similarity.
	// Ties are broken by insertion order (earlier wins) so results are
	// deterministic.
	Search(ctx context.Context, query []float32, k int, filter domain.SearchFilter) ([]VectorHit, error)

	// Persist writes an atomic snapshot to durable storage: the snapshot
	// is either fully visible or not visible at all after a crash.
	Persist(ctx context.Context) error

	// Load restores the index from its snapshot. A snapshot with an
	// unsupported schema version or a different dimension fails with
	// domain.ErrIncompatibleIndexVersion.
	Load(ctx context.Context) error

	// Count returns the number of entries in the index.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the fixed vector dimensionality.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the matched chunk's parent document.
	DocumentID string

	// Similarity is the score under the index's metric (higher is closer).
	Similarity float64
}
