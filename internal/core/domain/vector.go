package domain

// SimilarityMetric identifies the distance function used by a vector index.
// The metric is fixed at index creation and used for every query against it.
type SimilarityMetric string

// Available similarity metrics.
const (
	// MetricCosine scores by cosine similarity (1.0 = identical direction).
	MetricCosine SimilarityMetric = "cosine"

	// MetricEuclidean scores by inverted Euclidean distance.
	MetricEuclidean SimilarityMetric = "euclidean"
)

// IsValid returns true if the metric is recognised.
func (m SimilarityMetric) IsValid() bool {
	switch m {
	case MetricCosine, MetricEuclidean:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SimilarityMetric) String() string {
	return string(m)
}

// Description returns a human-readable description of the metric.
func (m SimilarityMetric) Description() string {
	switch m {
	case MetricCosine:
		return "Cosine similarity"
	case MetricEuclidean:
		return "Euclidean (inverted distance)"
	default:
		return unknownDescription
	}
}

// VectorEntry is a chunk embedding plus the metadata persisted alongside it
// in a vector index. All entries in one index share a fixed dimensionality.
type VectorEntry struct {
	// ChunkID is the unique chunk identifier. Upserting an existing
	// ChunkID replaces the previous entry.
	ChunkID string

	// DocumentID links to the parent document, enabling document-scoped
	// deletion for re-ingestion of updated content.
	DocumentID string

	// Language is the chunk's language tag, available as a search filter.
	Language Language

	// Vector is the embedding. Its length must match the index dimension.
	Vector []float32
}

// SearchFilter restricts vector search to entries matching its fields.
// Zero-value fields do not filter.
type SearchFilter struct {
	// Language restricts results to chunks tagged with this language.
	Language Language

	// DocumentID restricts results to chunks of a single document.
	DocumentID string
}

// Matches reports whether an entry passes the filter.
func (f SearchFilter) Matches(e *VectorEntry) bool {
	if f.Language != "" && e.Language != f.Language {
		return false
	}
	if f.DocumentID != "" && e.DocumentID != f.DocumentID {
		return false
	}
	return true
}
