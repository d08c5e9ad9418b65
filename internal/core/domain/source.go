package domain

import "time"

// Source represents a configured document source.
// Each source produces documents via a connector.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the connector type (e.g., "filesystem").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// Config contains connector-specific configuration.
	// For filesystem sources, "path" is the root directory.
	Config map[string]string

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// SyncState tracks the ingestion progress for a source.
type SyncState struct {
	// SourceID links to the Source being ingested.
	SourceID string

	// Cursor is an opaque token for incremental ingestion.
	// The filesystem connector stores a mod-time watermark.
	Cursor string

	// LastSync is when the last successful ingestion completed.
	LastSync time.Time
}
