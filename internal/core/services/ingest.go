package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
	"github.com/alrouf-labs/marjaa-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestOrchestrator = (*IngestService)(nil)

// IngestService coordinates the ingestion pipeline: fetch, normalise,
// chunk, embed, store, index.
//
// Documents flow from the connector through a pool of workers; each worker
// runs the full per-document pipeline. Per-document failures are collected
// in the run report and never abort the run. Index integrity errors
// (dimension mismatch, incompatible snapshot) are run-scoped and abort it.
type IngestService struct {
	sourceStore driven.SourceStore
	syncStore   driven.SyncStateStore
	docStore    driven.DocumentStore
	factory     driven.ConnectorFactory
	registry    driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	settings    domain.IngestSettings

	// limiter paces outbound embedding calls across all workers.
	limiter *rate.Limiter

	mu       sync.Mutex
	statuses map[string]driving.IngestStatus
}

// NewIngestService creates an ingestion orchestrator.
func NewIngestService(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	docStore driven.DocumentStore,
	factory driven.ConnectorFactory,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	settings domain.IngestSettings,
) *IngestService {
	if settings.Workers <= 0 {
		settings.Workers = 1
	}
	if settings.EmbedBatchSize <= 0 {
		settings.EmbedBatchSize = 16
	}
	if settings.EmbedMaxAttempts <= 0 {
		settings.EmbedMaxAttempts = 1
	}
	rps := settings.EmbedRequestsPerSecond
	if rps <= 0 {
		rps = float64(rate.Inf)
	}
	return &IngestService{
		sourceStore: sourceStore,
		syncStore:   syncStore,
		docStore:    docStore,
		factory:     factory,
		registry:    registry,
		pipeline:    pipeline,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		settings:    settings,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		statuses:    make(map[string]driving.IngestStatus),
	}
}

// IngestSource runs a full ingestion for a source.
func (s *IngestService) IngestSource(ctx context.Context, sourceID string) (*domain.IngestReport, error) {
	return s.run(ctx, sourceID, false)
}

// IngestIncremental applies only changes since the last sync.
// Falls back to a full ingestion when the connector does not support
// incremental sync or no cursor has been stored yet.
func (s *IngestService) IngestIncremental(ctx context.Context, sourceID string) (*domain.IngestReport, error) {
	return s.run(ctx, sourceID, true)
}

// Status returns the current ingestion status for a source.
func (s *IngestService) Status(sourceID string) driving.IngestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.statuses[sourceID]; ok {
		return status
	}
	return driving.IngestStatusIdle
}

// run executes one ingestion for a source.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *IngestService) run(ctx context.Context, sourceID string, incremental bool) (*domain.IngestReport, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured. Run 'marjaa settings' to fix",
			domain.ErrEmbeddingUnavailable)
	}
	if err := s.begin(sourceID); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &ingestRun{report: domain.IngestReport{SourceID: sourceID}}

	finalErr := func() error {
		// 1. Resolve source configuration
		source, err := s.sourceStore.Get(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("get source: %w", err)
		}

		// 2. Create and validate the connector
		connector, err := s.factory.Create(ctx, *source)
		if err != nil {
			return fmt.Errorf("create connector: %w", err)
		}
		defer connector.Close()

		caps := connector.Capabilities()
		if caps.SupportsValidation {
			if err := connector.Validate(ctx); err != nil {
				return fmt.Errorf("validate source: %w", err)
			}
		}

		// 3. Resolve sync state for incremental runs
		syncState, err := s.syncStore.Get(ctx, sourceID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get sync state: %w", err)
		}

		logger.Section("Ingest")
		logger.Info("Starting ingestion for source %s", sourceID)

		// 4. Choose strategy and drain the connector.
		// The connector shares the cancellable context with the workers:
		// a fatal worker error must stop the stream too, or the connector
		// blocks sending into a pool that has already exited.
		syncCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var newCursor string
		if incremental && caps.SupportsIncremental && syncState != nil && syncState.Cursor != "" {
			changesCh, errsCh := connector.IncrementalSync(syncCtx, *syncState)
			newCursor, err = s.processChanges(syncCtx, source, changesCh, errsCh, report)
		} else {
			docsCh, errsCh := connector.FullSync(syncCtx)
			newCursor, err = s.processDocuments(syncCtx, cancel, source, docsCh, errsCh, report)
			if err == nil && newCursor == "" && caps.SupportsCursorReturn {
				newCursor = fmt.Sprintf("%d", time.Now().UnixNano())
			}
		}
		if err != nil {
			return err
		}

		// 5. Persist the vector index snapshot
		if err := s.vectorIndex.Persist(ctx); err != nil {
			return fmt.Errorf("persist index: %w", err)
		}

		// 6. Record sync state for the next incremental run
		newState := domain.SyncState{
			SourceID: sourceID,
			Cursor:   newCursor,
			LastSync: time.Now(),
		}
		if err := s.syncStore.Save(ctx, newState); err != nil {
			return fmt.Errorf("save sync state: %w", err)
		}
		return nil
	}()

	report.report.Elapsed = time.Since(start)
	s.finish(sourceID, finalErr == nil)

	if finalErr != nil {
		return nil, finalErr
	}
	logger.Info("Ingestion complete: %d processed, %d skipped, %d failed, %d chunks indexed",
		report.report.DocumentsProcessed, report.report.DocumentsSkipped,
		report.report.DocumentsFailed, report.report.ChunksIndexed)
	return &report.report, nil
}

// begin marks a source as running, rejecting concurrent runs.
func (s *IngestService) begin(sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statuses[sourceID] == driving.IngestStatusRunning {
		return domain.ErrIngestInProgress
	}
	s.statuses[sourceID] = driving.IngestStatusRunning
	return nil
}

func (s *IngestService) finish(sourceID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.statuses[sourceID] = driving.IngestStatusCompleted
	} else {
		s.statuses[sourceID] = driving.IngestStatusFailed
	}
}

// processDocuments drains a full-sync stream through the worker pool.
// Returns the new cursor from SyncComplete if the connector provides one.
//
//nolint:gocognit // Orchestration function coordinating multiple async operations
func (s *IngestService) processDocuments(
	ctx context.Context,
	cancel context.CancelFunc,
	source *domain.Source,
	docsCh <-chan domain.RawDocument,
	errsCh <-chan error,
	run *ingestRun,
) (string, error) {
	var wg sync.WaitGroup
	for range s.settings.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rawDoc := range docsCh {
				logger.Debug("Processing: %s", rawDoc.URI)
				if err := s.processOneDocument(ctx, source, &rawDoc, run); err != nil {
					if errors.Is(err, domain.ErrDimensionMismatch) {
						run.setFatal(err)
						cancel()
						return
					}
					if ctx.Err() != nil {
						return
					}
				}
			}
		}()
	}

	var newCursor string
	for err := range errsCh {
		if sc, ok := driven.IsSyncComplete(err); ok {
			newCursor = sc.NewCursor
			continue
		}
		if sd, ok := driven.IsSkippedDocument(err); ok {
			logger.Warn("Skipping %s: %v", sd.URI, sd.Reason)
			run.addFailure(domain.IngestFailure{URI: sd.URI, Stage: "load", Reason: sd.Reason.Error()})
			continue
		}
		// Source-scoped connector failure aborts the run. A fatal worker
		// error takes precedence: the cancellation it triggered surfaces
		// here as a connector "context canceled" and must not mask it.
		cancel()
		wg.Wait()
		if fatal := run.fatal(); fatal != nil {
			return "", fatal
		}
		return "", fmt.Errorf("connector: %w", err)
	}

	wg.Wait()
	if err := run.fatal(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return newCursor, nil
}

// processChanges drains an incremental-sync stream.
// Changes are applied sequentially: ordering matters for delete-then-create
// sequences on the same URI.
//
//nolint:gocognit // Orchestration function coordinating multiple async operations
func (s *IngestService) processChanges(
	ctx context.Context,
	source *domain.Source,
	changesCh <-chan domain.RawDocumentChange,
	errsCh <-chan error,
	run *ingestRun,
) (string, error) {
	var newCursor string

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, isComplete := driven.IsSyncComplete(err); isComplete {
				newCursor = sc.NewCursor
				continue
			}
			if sd, skipped := driven.IsSkippedDocument(err); skipped {
				logger.Warn("Skipping %s: %v", sd.URI, sd.Reason)
				run.addFailure(domain.IngestFailure{URI: sd.URI, Stage: "load", Reason: sd.Reason.Error()})
				continue
			}
			return "", fmt.Errorf("connector: %w", err)

		case change, ok := <-changesCh:
			if !ok {
				return newCursor, run.fatal()
			}

			switch change.Type {
			case domain.ChangeCreated, domain.ChangeUpdated:
				logger.Debug("Processing: %s", change.Document.URI)
				if err := s.processOneDocument(ctx, source, &change.Document, run); err != nil {
					if errors.Is(err, domain.ErrDimensionMismatch) {
						return "", err
					}
				}

			case domain.ChangeDeleted:
				logger.Debug("Deleting: %s", change.Document.URI)
				if err := s.deleteDocumentByURI(ctx, source.ID, change.Document.URI); err != nil {
					run.addFailure(domain.IngestFailure{
						URI:    change.Document.URI,
						Stage:  "delete",
						Reason: err.Error(),
					})
				}
			}
		}
	}
}

// processOneDocument runs the per-document pipeline:
// normalise, dedup by content hash, chunk, embed, store, index.
//
//nolint:gocognit,gocyclo // Pipeline orchestration with sequential steps
func (s *IngestService) processOneDocument(
	ctx context.Context,
	source *domain.Source,
	raw *domain.RawDocument,
	run *ingestRun,
) error {
	// 1. NORMALISE (produces Document with Content and Language)
	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) {
			logger.Debug("Unsupported type %s for %s", raw.MIMEType, raw.URI)
			run.addSkip()
			return nil
		}
		run.addFailure(domain.IngestFailure{URI: raw.URI, Stage: "normalise", Reason: err.Error()})
		return err
	}
	doc := result.Document

	// 2. DEDUP BY CONTENT HASH
	// Identical content already ingested means nothing to do. A different
	// hash at a known URI means the file changed: the stale document and
	// its vectors are removed before re-ingesting.
	if existing, err := s.docStore.GetDocument(ctx, doc.ID); err == nil && existing != nil {
		logger.Debug("Unchanged content for %s, skipping", raw.URI)
		run.addSkip()
		return nil
	}
	if prev, err := s.docStore.FindDocumentByURI(ctx, source.ID, raw.URI); err == nil && prev.ID != doc.ID {
		if err := s.deleteDocument(ctx, prev.ID); err != nil {
			run.addFailure(domain.IngestFailure{URI: raw.URI, Stage: "store", Reason: err.Error()})
			return err
		}
	}

	// 3. CHUNK via the post-processor pipeline
	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		run.addFailure(domain.IngestFailure{URI: raw.URI, Stage: "chunk", Reason: err.Error()})
		return err
	}

	// 4. EMBED in rate-limited, retried batches
	if err := s.embedChunks(ctx, chunks); err != nil {
		run.addFailure(domain.IngestFailure{URI: raw.URI, Stage: "embed", Reason: err.Error()})
		return err
	}

	// 5. STORE document and chunks
	if err := s.docStore.SaveDocument(ctx, &doc); err != nil {
		run.addFailure(domain.IngestFailure{URI: raw.URI, Stage: "store", Reason: err.Error()})
		return err
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		run.addFailure(domain.IngestFailure{URI: raw.URI, Stage: "store", Reason: err.Error()})
		return err
	}

	// 6. INDEX embeddings
	entries := vectorEntries(chunks)
	if err := s.vectorIndex.Upsert(ctx, entries); err != nil {
		if !errors.Is(err, domain.ErrDimensionMismatch) {
			run.addFailure(domain.IngestFailure{URI: raw.URI, Stage: "index", Reason: err.Error()})
		}
		return err
	}

	run.addProcessed(len(entries))
	return nil
}

// embedChunks fills in chunk embeddings batch by batch.
// Each batch is rate-limited and retried with bounded exponential backoff;
// exhausting the attempts fails the document.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	batchSize := s.settings.EmbedBatchSize
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := s.embedBatchWithRetry(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d for %d texts", len(vectors), len(batch))
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}
	}
	return nil
}

func (s *IngestService) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	delay := s.settings.EmbedRetryBaseDelay

	for attempt := 1; attempt <= s.settings.EmbedMaxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if attempt < s.settings.EmbedMaxAttempts {
			logger.Debug("Embedding attempt %d failed, retrying in %s: %v", attempt, delay, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil, lastErr
}

// deleteDocument removes a document, its chunks and its vectors.
func (s *IngestService) deleteDocument(ctx context.Context, documentID string) error {
	if err := s.vectorIndex.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// deleteDocumentByURI removes the document last ingested from a URI.
func (s *IngestService) deleteDocumentByURI(ctx context.Context, sourceID, uri string) error {
	doc, err := s.docStore.FindDocumentByURI(ctx, sourceID, uri)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // Already gone
		}
		return fmt.Errorf("find document: %w", err)
	}
	return s.deleteDocument(ctx, doc.ID)
}

// Reindex re-embeds and re-indexes all stored chunks for a source without
// re-fetching from the connector. Used after an embedding model change.
func (s *IngestService) Reindex(ctx context.Context, sourceID string) (*domain.IngestReport, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured. Run 'marjaa settings' to fix",
			domain.ErrEmbeddingUnavailable)
	}
	if err := s.begin(sourceID); err != nil {
		return nil, err
	}

	start := time.Now()
	run := &ingestRun{report: domain.IngestReport{SourceID: sourceID}}

	err := func() error {
		docs, err := s.docStore.ListDocuments(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}

		for i := range docs {
			chunks, err := s.docStore.GetChunks(ctx, docs[i].ID)
			if err != nil {
				run.addFailure(domain.IngestFailure{URI: docs[i].URI, Stage: "store", Reason: err.Error()})
				continue
			}
			if err := s.embedChunks(ctx, chunks); err != nil {
				run.addFailure(domain.IngestFailure{URI: docs[i].URI, Stage: "embed", Reason: err.Error()})
				continue
			}
			if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
				run.addFailure(domain.IngestFailure{URI: docs[i].URI, Stage: "store", Reason: err.Error()})
				continue
			}
			if err := s.vectorIndex.Upsert(ctx, vectorEntries(chunks)); err != nil {
				if errors.Is(err, domain.ErrDimensionMismatch) {
					return err
				}
				run.addFailure(domain.IngestFailure{URI: docs[i].URI, Stage: "index", Reason: err.Error()})
				continue
			}
			run.addProcessed(len(chunks))
		}

		return s.vectorIndex.Persist(ctx)
	}()

	run.report.Elapsed = time.Since(start)
	s.finish(sourceID, err == nil)
	if err != nil {
		return nil, err
	}
	return &run.report, nil
}

// vectorEntries converts embedded chunks to index entries.
func vectorEntries(chunks []domain.Chunk) []domain.VectorEntry {
	entries := make([]domain.VectorEntry, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Embedding == nil {
			continue
		}
		entries = append(entries, domain.VectorEntry{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Language:   chunk.Language,
			Vector:     chunk.Embedding,
		})
	}
	return entries
}

// ingestRun accumulates a run report safely across workers.
type ingestRun struct {
	mu       sync.Mutex
	report   domain.IngestReport
	fatalErr error
}

func (r *ingestRun) addProcessed(chunks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.DocumentsProcessed++
	r.report.ChunksIndexed += chunks
}

func (r *ingestRun) addSkip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.DocumentsSkipped++
}

func (r *ingestRun) addFailure(f domain.IngestFailure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.DocumentsFailed++
	r.report.Failures = append(r.report.Failures, f)
}

func (r *ingestRun) setFatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fatalErr == nil {
		r.fatalErr = err
	}
}

func (r *ingestRun) fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatalErr
}
