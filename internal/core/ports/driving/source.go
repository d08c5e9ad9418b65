package driving

import (
	"context"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

// SourceService manages configured document sources.
type SourceService interface {
	// AddSource registers a new source after validating that its
	// connector can reach the configured location.
	// Returns domain.ErrUnsupportedType for unknown connector types and
	// domain.ErrInvalidInput for incomplete configuration.
	AddSource(ctx context.Context, name, sourceType string, config map[string]string) (*domain.Source, error)

	// GetSource returns a source by ID.
	GetSource(ctx context.Context, id string) (*domain.Source, error)

	// ListSources returns all configured sources.
	ListSources(ctx context.Context) ([]domain.Source, error)

	// RemoveSource deletes a source together with its sync state and all
	// its ingested documents, chunks and vectors.
	RemoveSource(ctx context.Context, id string) error
}
