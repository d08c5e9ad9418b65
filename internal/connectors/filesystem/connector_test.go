package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
)

func setupTestDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "marjaa-fs-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// collectSync drains both FullSync channels, separating documents, skips,
// and the completion sentinel.
func collectSync(t *testing.T, conn *Connector) ([]domain.RawDocument, []*driven.SkippedDocument, *driven.SyncComplete) {
	t.Helper()

	docsCh, errsCh := conn.FullSync(context.Background())

	var docs []domain.RawDocument
	done := make(chan struct{})
	go func() {
		defer close(done)
		for doc := range docsCh {
			docs = append(docs, doc)
		}
	}()

	var skips []*driven.SkippedDocument
	var complete *driven.SyncComplete
	for err := range errsCh {
		if sc, ok := driven.IsSyncComplete(err); ok {
			complete = sc
			continue
		}
		if sd, ok := driven.IsSkippedDocument(err); ok {
			skips = append(skips, sd)
			continue
		}
		t.Fatalf("unexpected sync error: %v", err)
	}
	<-done

	return docs, skips, complete
}

func TestConnector_Identity(t *testing.T) {
	conn := New("src-1", "/srv/kb")

	assert.Equal(t, "filesystem", conn.Type())
	assert.Equal(t, "src-1", conn.SourceID())

	caps := conn.Capabilities()
	assert.True(t, caps.SupportsIncremental)
	assert.True(t, caps.SupportsWatch)
	assert.True(t, caps.SupportsValidation)
	assert.True(t, caps.SupportsCursorReturn)
}

func TestConnector_Validate(t *testing.T) {
	t.Run("valid directory succeeds", func(t *testing.T) {
		dir := setupTestDir(t)
		conn := New("src-1", dir)
		assert.NoError(t, conn.Validate(context.Background()))
	})

	t.Run("missing path fails", func(t *testing.T) {
		conn := New("src-1", "/non/existent/path/12345")
		err := conn.Validate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("file instead of directory fails", func(t *testing.T) {
		dir := setupTestDir(t)
		file := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("content"), 0644))

		conn := New("src-1", file)
		err := conn.Validate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		dir := setupTestDir(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		conn := New("src-1", dir)
		assert.ErrorIs(t, conn.Validate(ctx), context.Canceled)
	})
}

func TestConnector_FullSync(t *testing.T) {
	dir := setupTestDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warranty.txt"), []byte("10 year warranty"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricing.md"), []byte("# Pricing"), 0644))

	conn := New("src-1", dir)
	docs, skips, complete := collectSync(t, conn)

	assert.Len(t, docs, 2)
	assert.Empty(t, skips)
	require.NotNil(t, complete)
	assert.NotEmpty(t, complete.NewCursor)

	// Cursor parses as nanoseconds.
	_, err := strconv.ParseInt(complete.NewCursor, 10, 64)
	assert.NoError(t, err)
}

func TestConnector_FullSync_DocumentFields(t *testing.T) {
	dir := setupTestDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "datasheet.txt"), []byte("hello"), 0644))

	conn := New("src-1", dir)
	docs, _, _ := collectSync(t, conn)

	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, "src-1", doc.SourceID)
	assert.Contains(t, doc.URI, "file://")
	assert.Contains(t, doc.URI, "datasheet.txt")
	assert.Equal(t, "text/plain", doc.MIMEType)
	assert.Equal(t, []byte("hello"), doc.Content)
	assert.Equal(t, "datasheet.txt", doc.Metadata["filename"])
	assert.Equal(t, "txt", doc.Metadata["extension"])
}

func TestConnector_FullSync_MIMETypes(t *testing.T) {
	dir := setupTestDir(t)
	files := map[string]string{
		"file.md":   "text/markdown",
		"file.json": "application/json",
		"file.csv":  "text/csv",
		"file.go":   "text/x-go",
	}
	for name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content"), 0644))
	}

	conn := New("src-1", dir)
	docs, _, _ := collectSync(t, conn)

	got := make(map[string]string)
	for _, doc := range docs {
		got[filepath.Base(doc.URI)] = doc.MIMEType
	}
	for name, want := range files {
		assert.Equal(t, want, got[name], name)
	}
}

func TestConnector_FullSync_SkipsHiddenFiles(t *testing.T) {
	dir := setupTestDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("visible"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("hidden"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("nope"), 0644))

	conn := New("src-1", dir)
	docs, _, _ := collectSync(t, conn)

	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].URI, "visible.txt")
}

func TestConnector_FullSync_WalksNestedDirectories(t *testing.T) {
	dir := setupTestDir(t)
	nested := filepath.Join(dir, "products", "street")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "root.txt"), []byte("root"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "poles.txt"), []byte("poles"), 0644))

	conn := New("src-1", dir)
	docs, _, _ := collectSync(t, conn)

	assert.Len(t, docs, 2)
}

func TestConnector_FullSync_MissingDirectory(t *testing.T) {
	conn := New("src-1", "/non/existent/path")

	docsCh, errsCh := conn.FullSync(context.Background())
	for range docsCh {
	}

	var syncErr error
	for err := range errsCh {
		syncErr = err
	}
	require.Error(t, syncErr)
	assert.Contains(t, syncErr.Error(), "does not exist")
}

func TestConnector_FullSync_CancelledContext(t *testing.T) {
	dir := setupTestDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := New("src-1", dir)
	docsCh, errsCh := conn.FullSync(ctx)

	// Channels must close without hanging.
	for range docsCh {
	}
	for range errsCh {
	}
}

func TestConnector_IncrementalSync_OnlyModifiedFiles(t *testing.T) {
	dir := setupTestDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.txt"), []byte("old"), 0644))

	time.Sleep(20 * time.Millisecond)
	cursor := fmt.Sprintf("%d", time.Now().UnixNano())
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0644))

	conn := New("src-1", dir)
	changesCh, errsCh := conn.IncrementalSync(context.Background(), domain.SyncState{
		SourceID: "src-1",
		Cursor:   cursor,
	})

	var changes []domain.RawDocumentChange
	done := make(chan struct{})
	go func() {
		defer close(done)
		for change := range changesCh {
			changes = append(changes, change)
		}
	}()

	var complete *driven.SyncComplete
	for err := range errsCh {
		if sc, ok := driven.IsSyncComplete(err); ok {
			complete = sc
			continue
		}
		t.Fatalf("unexpected error: %v", err)
	}
	<-done

	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeUpdated, changes[0].Type)
	assert.Contains(t, changes[0].Document.URI, "new.txt")

	// New cursor advances past the old one.
	require.NotNil(t, complete)
	oldNanos, _ := strconv.ParseInt(cursor, 10, 64)
	newNanos, err := strconv.ParseInt(complete.NewCursor, 10, 64)
	require.NoError(t, err)
	assert.Greater(t, newNanos, oldNanos)
}

func TestConnector_IncrementalSync_EmptyCursorActsAsFullSync(t *testing.T) {
	dir := setupTestDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))

	conn := New("src-1", dir)
	changesCh, errsCh := conn.IncrementalSync(context.Background(), domain.SyncState{SourceID: "src-1"})

	var changes []domain.RawDocumentChange
	done := make(chan struct{})
	go func() {
		defer close(done)
		for change := range changesCh {
			changes = append(changes, change)
		}
	}()
	for err := range errsCh {
		if _, ok := driven.IsSyncComplete(err); !ok {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	<-done

	require.Len(t, changes, 2)
	for _, change := range changes {
		assert.Equal(t, domain.ChangeCreated, change.Type)
	}
}

func TestConnector_IncrementalSync_InvalidCursor(t *testing.T) {
	dir := setupTestDir(t)
	conn := New("src-1", dir)

	changesCh, errsCh := conn.IncrementalSync(context.Background(), domain.SyncState{
		SourceID: "src-1",
		Cursor:   "not-a-timestamp",
	})
	for range changesCh {
	}

	var syncErr error
	for err := range errsCh {
		syncErr = err
	}
	require.Error(t, syncErr)
	assert.Contains(t, syncErr.Error(), "invalid cursor format")
}

func TestConnector_Watch_CreateModifyDelete(t *testing.T) {
	dir := setupTestDir(t)
	conn := New("src-1", dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changesCh, err := conn.Watch(ctx)
	require.NoError(t, err)

	file := filepath.Join(dir, "live.txt")
	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(file, []byte("created"), 0644)
	}()

	select {
	case change := <-changesCh:
		assert.Equal(t, domain.ChangeCreated, change.Type)
		assert.Contains(t, change.Document.URI, "live.txt")
		assert.Equal(t, []byte("created"), change.Document.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for create event")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.Remove(file)
	}()

	for {
		select {
		case change := <-changesCh:
			// Editors and filesystems may emit intermediate write events.
			if change.Type != domain.ChangeDeleted {
				continue
			}
			assert.Contains(t, change.Document.URI, "live.txt")
			return
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for delete event")
		}
	}
}

func TestConnector_Watch_MissingDirectory(t *testing.T) {
	conn := New("src-1", "/non/existent/path")

	changesCh, err := conn.Watch(context.Background())
	require.Error(t, err)
	assert.Nil(t, changesCh)
	assert.Contains(t, err.Error(), "root path error")
}

func TestConnector_Watch_ClosedConnector(t *testing.T) {
	dir := setupTestDir(t)
	conn := New("src-1", dir)
	require.NoError(t, conn.Close())

	changesCh, err := conn.Watch(context.Background())
	require.Error(t, err)
	assert.Nil(t, changesCh)
	assert.Contains(t, err.Error(), "closed")
}

func TestConnector_Watch_ClosesOnContextCancel(t *testing.T) {
	dir := setupTestDir(t)
	conn := New("src-1", dir)
	ctx, cancel := context.WithCancel(context.Background())

	changesCh, err := conn.Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-changesCh:
		if ok {
			for range changesCh {
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestConnector_Close_Idempotent(t *testing.T) {
	conn := New("src-1", "/srv/kb")
	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}

func TestDetectMIMEType_UnknownExtension(t *testing.T) {
	assert.Equal(t, "application/octet-stream", detectMIMEType(".blob9x"))
}

func TestConnector_FullSync_SkipSentinelUnwraps(t *testing.T) {
	reason := errors.New("read file: permission denied")
	skip := &driven.SkippedDocument{URI: "file:///srv/kb/locked.txt", Reason: reason}

	assert.ErrorIs(t, skip, reason)
	sd, ok := driven.IsSkippedDocument(skip)
	require.True(t, ok)
	assert.Equal(t, "file:///srv/kb/locked.txt", sd.URI)
}
