// Package domain defines the core business entities for Marjaa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A normalised source document, addressed by content hash
//   - Chunk: A bounded, overlapping span of a document, the retrieval unit
//   - VectorEntry: A chunk's embedding plus metadata as stored in the index
//   - Answer: A grounded answer with its supporting chunk references
//   - Quote: A priced quotation with bilingual email drafts
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
