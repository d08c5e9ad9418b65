package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driven/storage/memory"
	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockConnector implements driven.Connector for testing.
// FullSync streams the configured documents and skip errors, then a
// SyncComplete carrying the cursor.
type mockConnector struct {
	sourceID string
	docs     []domain.RawDocument
	changes  []domain.RawDocumentChange
	skips    []driven.SkippedDocument
	cursor   string
	caps     driven.ConnectorCapabilities
	failWith error
}

func (m *mockConnector) Type() string     { return "mock" }
func (m *mockConnector) SourceID() string { return m.sourceID }

func (m *mockConnector) Capabilities() driven.ConnectorCapabilities { return m.caps }

func (m *mockConnector) Validate(_ context.Context) error { return nil }

func (m *mockConnector) FullSync(_ context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument)
	errsCh := make(chan error)
	go func() {
		defer close(docsCh)
		defer close(errsCh)
		for _, doc := range m.docs {
			docsCh <- doc
		}
		for i := range m.skips {
			errsCh <- &m.skips[i]
		}
		if m.failWith != nil {
			errsCh <- m.failWith
			return
		}
		if m.cursor != "" {
			errsCh <- &driven.SyncComplete{NewCursor: m.cursor}
		}
	}()
	return docsCh, errsCh
}

func (m *mockConnector) IncrementalSync(_ context.Context, _ domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error) {
	changesCh := make(chan domain.RawDocumentChange)
	errsCh := make(chan error)
	go func() {
		defer close(changesCh)
		defer close(errsCh)
		for _, change := range m.changes {
			changesCh <- change
		}
		if m.cursor != "" {
			errsCh <- &driven.SyncComplete{NewCursor: m.cursor}
		}
	}()
	return changesCh, errsCh
}

func (m *mockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, errors.New("watch not supported")
}

func (m *mockConnector) Close() error { return nil }

// mockStreamingConnector produces documents until its context is
// cancelled, mimicking a connector mid-walk over a large directory.
type mockStreamingConnector struct {
	mockConnector
	stopped chan struct{}
}

func (m *mockStreamingConnector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument)
	errsCh := make(chan error)
	go func() {
		defer close(docsCh)
		defer close(errsCh)
		defer close(m.stopped)
		for i := 0; ; i++ {
			doc := rawDoc(fmt.Sprintf("file:///kb/doc-%d.txt", i), fmt.Sprintf("Document body %d.", i))
			select {
			case docsCh <- doc:
			case <-ctx.Done():
				errsCh <- ctx.Err()
				return
			}
		}
	}()
	return docsCh, errsCh
}

// mockConnectorFactory implements driven.ConnectorFactory for testing.
type mockConnectorFactory struct {
	connector driven.Connector
}

func (f *mockConnectorFactory) Create(_ context.Context, _ domain.Source) (driven.Connector, error) {
	return f.connector, nil
}

// mockRegistry implements driven.NormaliserRegistry for testing.
// It treats raw content as plain text and hashes it for the document ID.
type mockRegistry struct{}

func (mockRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw.MIMEType == "application/octet-stream" {
		return nil, domain.ErrUnsupportedType
	}
	content := string(raw.Content)
	lang, ok := domain.DetectLanguage(content)
	if !ok {
		lang = domain.LanguageEnglish
	}
	now := time.Now()
	return &driven.NormaliseResult{Document: domain.Document{
		ID:        domain.ContentHash(content),
		SourceID:  raw.SourceID,
		URI:       raw.URI,
		Content:   content,
		Language:  lang,
		CreatedAt: now,
		UpdatedAt: now,
	}}, nil
}

func (mockRegistry) Register(_ driven.Normaliser) {}

func (mockRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

// mockChunkPipeline implements driven.PostProcessorPipeline for testing.
// It produces one chunk covering the whole document.
type mockChunkPipeline struct{}

func (mockChunkPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	return []domain.Chunk{{
		ID:         "chunk-" + doc.ID[:8],
		DocumentID: doc.ID,
		Content:    doc.Content,
		Position:   0,
		EndOffset:  len(doc.Content),
		Language:   doc.Language,
	}}, nil
}

// --- Test helpers ---

type ingestFixture struct {
	svc         *IngestService
	docStore    *memory.DocumentStore
	syncStore   *memory.SyncStateStore
	vectorIndex *mockVectorIndex
	embedder    *mockEmbeddingService
}

func newIngestFixture(t *testing.T, connector *mockConnector) *ingestFixture {
	t.Helper()

	sourceStore := memory.NewSourceStore()
	require.NoError(t, sourceStore.Save(context.Background(), domain.Source{
		ID:   connector.sourceID,
		Type: "mock",
		Name: "test source",
	}))

	f := &ingestFixture{
		docStore:    memory.NewDocumentStore(),
		syncStore:   memory.NewSyncStateStore(),
		vectorIndex: &mockVectorIndex{},
		embedder:    &mockEmbeddingService{dims: 3},
	}

	settings := domain.DefaultAppSettings().Ingest
	settings.Workers = 2
	settings.EmbedRetryBaseDelay = time.Millisecond

	f.svc = NewIngestService(
		sourceStore,
		f.syncStore,
		f.docStore,
		&mockConnectorFactory{connector: connector},
		mockRegistry{},
		mockChunkPipeline{},
		f.vectorIndex,
		f.embedder,
		settings,
	)
	return f
}

func rawDoc(uri, content string) domain.RawDocument {
	return domain.RawDocument{
		SourceID: "src-1",
		URI:      uri,
		MIMEType: "text/plain",
		Content:  []byte(content),
	}
}

// --- Tests ---

func TestIngestService_IngestSource_ProcessesAllDocuments(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Streetlight poles carry a 10 year warranty."),
			rawDoc("file:///kb/pricing.txt", "Obstruction lights are priced per volume."),
		},
		cursor: "cursor-1",
		caps:   driven.ConnectorCapabilities{SupportsCursorReturn: true},
	}
	f := newIngestFixture(t, connector)

	report, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)

	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Equal(t, 0, report.DocumentsFailed)
	assert.Equal(t, 2, report.ChunksIndexed)
	assert.True(t, f.vectorIndex.persisted, "index snapshot should be persisted after the run")
	assert.Len(t, f.vectorIndex.entries, 2)

	state, err := f.syncStore.Get(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, "cursor-1", state.Cursor)

	assert.Equal(t, driving.IngestStatusCompleted, f.svc.Status("src-1"))
}

func TestIngestService_IngestSource_SkipsUnchangedContent(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Streetlight poles carry a 10 year warranty."),
		},
	}
	f := newIngestFixture(t, connector)

	first, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.DocumentsProcessed)

	second, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.DocumentsProcessed)
	assert.Equal(t, 1, second.DocumentsSkipped)
	assert.Len(t, f.vectorIndex.entries, 1, "re-ingestion must not duplicate index entries")
}

func TestIngestService_IngestSource_ReplacesChangedContent(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Warranty is 5 years."),
		},
	}
	f := newIngestFixture(t, connector)

	_, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)
	oldID := domain.ContentHash("Warranty is 5 years.")

	connector.docs[0] = rawDoc("file:///kb/warranty.txt", "Warranty is 10 years.")
	_, err = f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)

	_, err = f.docStore.GetDocument(context.Background(), oldID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "stale document should be removed")

	newDoc, err := f.docStore.FindDocumentByURI(context.Background(), "src-1", "file:///kb/warranty.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.ContentHash("Warranty is 10 years."), newDoc.ID)
	assert.Len(t, f.vectorIndex.entries, 1)
}

func TestIngestService_IngestSource_UnsupportedTypeSkipped(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			{SourceID: "src-1", URI: "file:///kb/logo.bin", MIMEType: "application/octet-stream", Content: []byte{0x00}},
			rawDoc("file:///kb/warranty.txt", "Warranty is 10 years."),
		},
	}
	f := newIngestFixture(t, connector)

	report, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsSkipped)
	assert.Equal(t, 0, report.DocumentsFailed)
}

func TestIngestService_IngestSource_RecordsSkippedDocuments(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Warranty is 10 years."),
		},
		skips: []driven.SkippedDocument{
			{URI: "file:///kb/locked.txt", Reason: errors.New("permission denied")},
		},
	}
	f := newIngestFixture(t, connector)

	report, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsFailed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "file:///kb/locked.txt", report.Failures[0].URI)
	assert.Equal(t, "load", report.Failures[0].Stage)
}

func TestIngestService_IngestSource_EmbeddingRetry(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Warranty is 10 years."),
		},
	}
	f := newIngestFixture(t, connector)
	f.embedder.failBatch = 2 // fail twice, succeed on the third attempt

	report, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 3, f.embedder.batchCalls)
}

func TestIngestService_IngestSource_EmbeddingExhaustedFailsDocument(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Warranty is 10 years."),
		},
	}
	f := newIngestFixture(t, connector)
	f.embedder.failBatch = 10 // more than EmbedMaxAttempts

	report, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err, "per-document failures do not abort the run")

	assert.Equal(t, 0, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsFailed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "embed", report.Failures[0].Stage)
}

func TestIngestService_IngestSource_DimensionMismatchAborts(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Warranty is 10 years."),
		},
	}
	f := newIngestFixture(t, connector)
	f.vectorIndex.upsertErr = domain.ErrDimensionMismatch

	_, err := f.svc.IngestSource(context.Background(), "src-1")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, driving.IngestStatusFailed, f.svc.Status("src-1"))
}

func TestIngestService_DimensionMismatchStopsConnectorStream(t *testing.T) {
	connector := &mockStreamingConnector{stopped: make(chan struct{})}
	connector.sourceID = "src-1"

	sourceStore := memory.NewSourceStore()
	require.NoError(t, sourceStore.Save(context.Background(), domain.Source{
		ID:   "src-1",
		Type: "mock",
		Name: "test source",
	}))

	index := &mockVectorIndex{upsertErr: domain.ErrDimensionMismatch}
	settings := domain.DefaultAppSettings().Ingest
	settings.Workers = 2
	settings.EmbedRetryBaseDelay = time.Millisecond

	svc := NewIngestService(
		sourceStore,
		memory.NewSyncStateStore(),
		memory.NewDocumentStore(),
		&mockConnectorFactory{connector: connector},
		mockRegistry{},
		mockChunkPipeline{},
		index,
		&mockEmbeddingService{dims: 3},
		settings,
	)

	done := make(chan error, 1)
	go func() {
		_, err := svc.IngestSource(context.Background(), "src-1")
		done <- err
	}()

	// The run must abort with the mismatch, not hang draining the stream
	// or report the cancellation it triggered instead.
	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	case <-time.After(5 * time.Second):
		t.Fatal("ingestion did not stop after the index rejected the dimensions")
	}

	select {
	case <-connector.stopped:
	case <-time.After(time.Second):
		t.Fatal("connector kept streaming after the run aborted")
	}
}

func TestIngestService_NilEmbedder(t *testing.T) {
	f := newIngestFixture(t, &mockConnector{sourceID: "src-1"})
	f.svc.embedder = nil

	_, err := f.svc.IngestSource(context.Background(), "src-1")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "marjaa settings")
	assert.Equal(t, driving.IngestStatusIdle, f.svc.Status("src-1"))

	_, err = f.svc.Reindex(context.Background(), "src-1")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIngestService_IngestSource_ConnectorFailureAborts(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		failWith: errors.New("directory vanished"),
	}
	f := newIngestFixture(t, connector)

	_, err := f.svc.IngestSource(context.Background(), "src-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory vanished")
}

func TestIngestService_ConcurrentRunRejected(t *testing.T) {
	f := newIngestFixture(t, &mockConnector{sourceID: "src-1"})

	f.svc.mu.Lock()
	f.svc.statuses["src-1"] = driving.IngestStatusRunning
	f.svc.mu.Unlock()

	_, err := f.svc.IngestSource(context.Background(), "src-1")
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)
}

func TestIngestService_IngestIncremental_AppliesChanges(t *testing.T) {
	create := rawDoc("file:///kb/new.txt", "A new product sheet.")
	connector := &mockConnector{
		sourceID: "src-1",
		changes: []domain.RawDocumentChange{
			{Type: domain.ChangeCreated, Document: create},
		},
		cursor: "cursor-2",
		caps:   driven.ConnectorCapabilities{SupportsIncremental: true, SupportsCursorReturn: true},
	}
	f := newIngestFixture(t, connector)

	// Seed a cursor so the incremental path is taken.
	require.NoError(t, f.syncStore.Save(context.Background(), domain.SyncState{
		SourceID: "src-1",
		Cursor:   "cursor-1",
		LastSync: time.Now(),
	}))

	report, err := f.svc.IngestIncremental(context.Background(), "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	state, err := f.syncStore.Get(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, "cursor-2", state.Cursor)
}

func TestIngestService_IngestIncremental_DeleteChange(t *testing.T) {
	doc := rawDoc("file:///kb/old.txt", "Obsolete content.")
	full := &mockConnector{sourceID: "src-1", docs: []domain.RawDocument{doc}}
	f := newIngestFixture(t, full)

	_, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)

	full.docs = nil
	full.changes = []domain.RawDocumentChange{
		{Type: domain.ChangeDeleted, Document: domain.RawDocument{SourceID: "src-1", URI: "file:///kb/old.txt"}},
	}
	full.caps = driven.ConnectorCapabilities{SupportsIncremental: true}
	require.NoError(t, f.syncStore.Save(context.Background(), domain.SyncState{
		SourceID: "src-1",
		Cursor:   "cursor-1",
		LastSync: time.Now(),
	}))

	_, err = f.svc.IngestIncremental(context.Background(), "src-1")
	require.NoError(t, err)

	_, err = f.docStore.FindDocumentByURI(context.Background(), "src-1", "file:///kb/old.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.vectorIndex.entries)
}

func TestIngestService_Reindex(t *testing.T) {
	connector := &mockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			rawDoc("file:///kb/warranty.txt", "Warranty is 10 years."),
			rawDoc("file:///kb/pricing.txt", "Priced per volume."),
		},
	}
	f := newIngestFixture(t, connector)

	_, err := f.svc.IngestSource(context.Background(), "src-1")
	require.NoError(t, err)

	report, err := f.svc.Reindex(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Equal(t, 2, report.ChunksIndexed)
}
