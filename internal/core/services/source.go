package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
	"github.com/alrouf-labs/marjaa-cli/internal/logger"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService manages configured document sources.
// Adding a source validates connector reachability before persisting;
// removing a source also removes its sync state, documents and vectors.
type SourceService struct {
	sourceStore driven.SourceStore
	syncStore   driven.SyncStateStore
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	factory     driven.ConnectorFactory
}

// NewSourceService creates a source management service.
func NewSourceService(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	factory driven.ConnectorFactory,
) *SourceService {
	return &SourceService{
		sourceStore: sourceStore,
		syncStore:   syncStore,
		docStore:    docStore,
		vectorIndex: vectorIndex,
		factory:     factory,
	}
}

// AddSource registers a new source after validating its connector.
func (s *SourceService) AddSource(ctx context.Context, name, sourceType string, config map[string]string) (*domain.Source, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: source name is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	source := domain.Source{
		ID:        uuid.NewString(),
		Type:      sourceType,
		Name:      name,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	connector, err := s.factory.Create(ctx, source)
	if err != nil {
		return nil, err
	}
	defer connector.Close() //nolint:errcheck // Validation connector, nothing to flush

	if connector.Capabilities().SupportsValidation {
		if err := connector.Validate(ctx); err != nil {
			return nil, fmt.Errorf("source validation failed: %w", err)
		}
	}

	if err := s.sourceStore.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}

	logger.Info("added source %s (%s)", source.ID, source.Name)
	return &source, nil
}

// GetSource returns a source by ID.
func (s *SourceService) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	return s.sourceStore.Get(ctx, id)
}

// ListSources returns all configured sources.
func (s *SourceService) ListSources(ctx context.Context) ([]domain.Source, error) {
	return s.sourceStore.List(ctx)
}

// RemoveSource deletes a source and everything ingested from it.
func (s *SourceService) RemoveSource(ctx context.Context, id string) error {
	if _, err := s.sourceStore.Get(ctx, id); err != nil {
		return err
	}

	docs, err := s.docStore.ListDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	for i := range docs {
		if err := s.vectorIndex.DeleteDocument(ctx, docs[i].ID); err != nil {
			return fmt.Errorf("failed to delete vectors for %s: %w", docs[i].ID, err)
		}
		if err := s.docStore.DeleteDocument(ctx, docs[i].ID); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", docs[i].ID, err)
		}
	}

	if err := s.syncStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sync state: %w", err)
	}
	if err := s.sourceStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	logger.Info("removed source %s with %d documents", id, len(docs))
	return nil
}
