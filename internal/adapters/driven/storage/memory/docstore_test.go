package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:       domain.ContentHash("hello world"),
		SourceID: "src-1",
		URI:      "file:///tmp/hello.txt",
		Content:  "hello world",
		Language: domain.LanguageEnglish,
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.URI, got.URI)
	assert.Equal(t, domain.LanguageEnglish, got.Language)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_FindDocumentByURI(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	older := &domain.Document{
		ID:        "doc-old",
		SourceID:  "src-1",
		URI:       "file:///tmp/a.txt",
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	newer := &domain.Document{
		ID:        "doc-new",
		SourceID:  "src-1",
		URI:       "file:///tmp/a.txt",
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.SaveDocument(ctx, older))
	require.NoError(t, store.SaveDocument(ctx, newer))

	got, err := store.FindDocumentByURI(ctx, "src-1", "file:///tmp/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "doc-new", got.ID)

	_, err = store.FindDocumentByURI(ctx, "src-2", "file:///tmp/a.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Chunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c-1", DocumentID: "doc-1", Content: "first", Position: 0},
		{ID: "c-2", DocumentID: "doc-1", Content: "second", Position: 1},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	chunk, err := store.GetChunk(ctx, "c-2")
	require.NoError(t, err)
	assert.Equal(t, "second", chunk.Content)

	_, err = store.GetChunk(ctx, "c-3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1", SourceID: "src-1"}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "c-1", DocumentID: "doc-1"}}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetChunk(ctx, "c-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1", SourceID: "src-1"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-2", SourceID: "src-1"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-3", SourceID: "src-2"}))

	docs, err := store.ListDocuments(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
