package driving

import (
	"context"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

// IngestOrchestrator coordinates the full ingestion pipeline for a source:
// fetch, normalise, chunk, embed, index, persist.
type IngestOrchestrator interface {
	// IngestSource runs a full ingestion for the given source.
	// Documents whose content hash is unchanged are skipped. Per-document
	// failures are collected in the report; only source-scoped failures
	// abort the run. Returns domain.ErrIngestInProgress if an ingestion
	// for this source is already running.
	IngestSource(ctx context.Context, sourceID string) (*domain.IngestReport, error)

	// IngestIncremental applies only changes since the last sync.
	// Falls back to a full ingestion when the connector does not support
	// incremental sync or no cursor is stored.
	IngestIncremental(ctx context.Context, sourceID string) (*domain.IngestReport, error)

	// Status returns the current ingestion status for a source.
	Status(sourceID string) IngestStatus

	// Reindex re-embeds and re-indexes all stored chunks for a source
	// without re-fetching from the connector. Used after an embedding
	// model change.
	Reindex(ctx context.Context, sourceID string) (*domain.IngestReport, error)
}

// IngestStatus describes the state of an ingestion run.
type IngestStatus string

const (
	// IngestStatusIdle means no ingestion is running or has run.
	IngestStatusIdle IngestStatus = "idle"

	// IngestStatusRunning means an ingestion is in progress.
	IngestStatusRunning IngestStatus = "running"

	// IngestStatusCompleted means the last ingestion finished successfully.
	IngestStatusCompleted IngestStatus = "completed"

	// IngestStatusFailed means the last ingestion aborted with a
	// source-scoped error.
	IngestStatusFailed IngestStatus = "failed"
)
