package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driven/storage/memory"
	"github.com/alrouf-labs/marjaa-cli/internal/connectors"
	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

type sourceFixture struct {
	svc         *SourceService
	sourceStore *memory.SourceStore
	syncStore   *memory.SyncStateStore
	docStore    *memory.DocumentStore
	index       *mockVectorIndex
}

func newSourceFixture() *sourceFixture {
	f := &sourceFixture{
		sourceStore: memory.NewSourceStore(),
		syncStore:   memory.NewSyncStateStore(),
		docStore:    memory.NewDocumentStore(),
		index:       &mockVectorIndex{},
	}
	f.svc = NewSourceService(f.sourceStore, f.syncStore, f.docStore, f.index, connectors.NewFactory())
	return f
}

func TestAddSource_Filesystem(t *testing.T) {
	dir, err := os.MkdirTemp("", "marjaa-source-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	f := newSourceFixture()
	source, err := f.svc.AddSource(context.Background(), "docs", "filesystem", map[string]string{"path": dir})
	require.NoError(t, err)
	require.NotNil(t, source)

	assert.NotEmpty(t, source.ID)
	assert.Equal(t, "filesystem", source.Type)
	assert.Equal(t, "docs", source.Name)

	stored, err := f.sourceStore.Get(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, stored.ID)
}

func TestAddSource_MissingName(t *testing.T) {
	f := newSourceFixture()

	_, err := f.svc.AddSource(context.Background(), "", "filesystem", map[string]string{"path": "/tmp"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddSource_UnknownType(t *testing.T) {
	f := newSourceFixture()

	_, err := f.svc.AddSource(context.Background(), "docs", "ftp", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestAddSource_ValidationFailure(t *testing.T) {
	f := newSourceFixture()

	missing := filepath.Join(os.TempDir(), "marjaa-does-not-exist-xyz")
	_, err := f.svc.AddSource(context.Background(), "docs", "filesystem", map[string]string{"path": missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	// Nothing persisted.
	sources, err := f.sourceStore.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestListSources(t *testing.T) {
	dir, err := os.MkdirTemp("", "marjaa-source-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	f := newSourceFixture()
	_, err = f.svc.AddSource(context.Background(), "one", "filesystem", map[string]string{"path": dir})
	require.NoError(t, err)
	_, err = f.svc.AddSource(context.Background(), "two", "filesystem", map[string]string{"path": dir})
	require.NoError(t, err)

	sources, err := f.svc.ListSources(context.Background())
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestRemoveSource_DeletesDocumentsAndVectors(t *testing.T) {
	dir, err := os.MkdirTemp("", "marjaa-source-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	f := newSourceFixture()
	source, err := f.svc.AddSource(context.Background(), "docs", "filesystem", map[string]string{"path": dir})
	require.NoError(t, err)

	ctx := context.Background()
	doc := &domain.Document{ID: "doc-1", SourceID: source.ID, Content: "hello"}
	require.NoError(t, f.docStore.SaveDocument(ctx, doc))
	require.NoError(t, f.index.Upsert(ctx, []domain.VectorEntry{
		{ChunkID: "chunk-1", DocumentID: "doc-1", Vector: []float32{1, 0, 0}},
	}))
	require.NoError(t, f.syncStore.Save(ctx, domain.SyncState{SourceID: source.ID, Cursor: "42"}))

	require.NoError(t, f.svc.RemoveSource(ctx, source.ID))

	_, err = f.sourceStore.Get(ctx, source.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.docStore.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRemoveSource_NotFound(t *testing.T) {
	f := newSourceFixture()

	err := f.svc.RemoveSource(context.Background(), "no-such-source")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
