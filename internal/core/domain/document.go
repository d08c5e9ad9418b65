package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document represents a normalised source document.
// It is the canonical representation after normalisation and is immutable
// once ingested: the ID is the hex SHA-256 of the normalised content, so
// identical content always maps to the same document.
type Document struct {
	// ID is the content hash of the normalised text (hex SHA-256).
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// Language is the detected document language.
	Language Language

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// ContentHash computes the content-addressed document ID for the given
// normalised text. Identical content always hashes to the same ID, which is
// what makes re-ingestion idempotent.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Chunk represents a retrievable unit within a document.
// Documents are split into overlapping chunks for granular retrieval.
// A chunk's text is a contiguous substring of its parent document's
// normalised content, identified by byte offsets.
type Chunk struct {
	// ID is the deterministic chunk identifier (UUIDv5 of documentID:position).
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// StartOffset is the byte offset of the chunk start in the parent content.
	StartOffset int

	// EndOffset is the byte offset one past the chunk end in the parent content.
	EndOffset int

	// Language is the detected language, inherited from the parent document.
	Language Language

	// Embedding is the vector representation for semantic retrieval.
	Embedding []float32
}
