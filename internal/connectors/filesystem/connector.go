// Package filesystem provides a connector for local directories.
// It walks a root path, streams readable files as raw documents, and
// supports incremental sync via modification-time cursors.
package filesystem

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// ConnectorType is the source type identifier for filesystem connectors.
const ConnectorType = "filesystem"

// mimeByExtension maps common file extensions to MIME types.
// Checked before the platform mime database so results are stable
// across operating systems.
var mimeByExtension = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".json":     "application/json",
	".csv":      "text/csv",
	".html":     "text/html",
	".htm":      "text/html",
	".xml":      "application/xml",
	".yaml":     "application/yaml",
	".yml":      "application/yaml",
	".toml":     "application/toml",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".sh":       "text/x-shellscript",
}

// Connector streams documents from a local directory tree.
type Connector struct {
	sourceID string
	rootPath string

	mu     sync.Mutex
	closed bool
}

// New creates a filesystem connector rooted at rootPath.
// Path validation happens in Validate and at sync time, not here.
func New(sourceID, rootPath string) *Connector {
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return ConnectorType
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns what this connector supports.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        true,
		SupportsValidation:   true,
		SupportsCursorReturn: true,
	}
}

// Validate checks the root path exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path does not exist: %s", c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path is not a directory: %s", c.rootPath)
	}

	// Readability check: opening the directory catches permission problems
	// that Stat does not.
	f, err := os.Open(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path not readable: %w", err)
	}
	return f.Close()
}

// FullSync walks the directory tree and streams every readable file.
// Unreadable files are reported as document-scoped skips on the error
// channel; the walk continues. On success the error channel carries a
// SyncComplete sentinel with the new cursor before both channels close.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument)
	errsCh := make(chan error, 1)

	go func() {
		defer close(docsCh)
		defer close(errsCh)

		if err := c.Validate(ctx); err != nil {
			errsCh <- err
			return
		}

		var maxModNanos int64
		walkErr := c.walkFiles(ctx, func(path string, modNanos int64) error {
			doc, err := c.readDocument(path)
			if err != nil {
				// Document-scoped: report and keep walking.
				select {
				case errsCh <- &driven.SkippedDocument{URI: fileURI(path), Reason: err}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}

			if modNanos > maxModNanos {
				maxModNanos = modNanos
			}

			select {
			case docsCh <- doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil {
			errsCh <- walkErr
			return
		}

		if maxModNanos == 0 {
			maxModNanos = time.Now().UnixNano()
		}
		errsCh <- &driven.SyncComplete{NewCursor: strconv.FormatInt(maxModNanos, 10)}
	}()

	return docsCh, errsCh
}

// IncrementalSync streams files modified after the cursor timestamp.
// An empty cursor behaves like a full sync with every file reported as
// created. Deletions are not detectable from modification times alone;
// callers needing delete events should use Watch.
func (c *Connector) IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error) {
	changesCh := make(chan domain.RawDocumentChange)
	errsCh := make(chan error, 1)

	var since int64
	var cursorErr error
	if state.Cursor != "" {
		since, cursorErr = strconv.ParseInt(state.Cursor, 10, 64)
		if cursorErr != nil {
			cursorErr = fmt.Errorf("invalid cursor format %q: %w", state.Cursor, cursorErr)
		}
	}

	go func() {
		defer close(changesCh)
		defer close(errsCh)

		if cursorErr != nil {
			errsCh <- cursorErr
			return
		}
		if err := c.Validate(ctx); err != nil {
			errsCh <- err
			return
		}

		changeType := domain.ChangeUpdated
		if since == 0 {
			changeType = domain.ChangeCreated
		}

		maxModNanos := since
		walkErr := c.walkFiles(ctx, func(path string, modNanos int64) error {
			if modNanos <= since {
				return nil
			}

			doc, err := c.readDocument(path)
			if err != nil {
				select {
				case errsCh <- &driven.SkippedDocument{URI: fileURI(path), Reason: err}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}

			if modNanos > maxModNanos {
				maxModNanos = modNanos
			}

			select {
			case changesCh <- domain.RawDocumentChange{Type: changeType, Document: doc}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil {
			errsCh <- walkErr
			return
		}

		errsCh <- &driven.SyncComplete{NewCursor: strconv.FormatInt(maxModNanos, 10)}
	}()

	return changesCh, errsCh
}

// Watch emits change events as files are created, modified, or removed.
// The returned channel closes when the context is cancelled.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("connector closed")
	}

	if err := c.Validate(ctx); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the whole tree: fsnotify is not recursive.
	err = godirwalk.Walk(c.rootPath, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if isHidden(de.Name()) && path != c.rootPath {
					return filepath.SkipDir
				}
				return watcher.Add(path)
			}
			return nil
		},
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch tree: %w", err)
	}

	changesCh := make(chan domain.RawDocumentChange)

	go func() {
		defer close(changesCh)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change, ok := c.translateEvent(watcher, event)
				if !ok {
					continue
				}
				select {
				case changesCh <- change:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watcher errors are transient; keep watching.
			}
		}
	}()

	return changesCh, nil
}

// translateEvent converts an fsnotify event into a document change.
// Returns false for events that should be ignored.
func (c *Connector) translateEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.RawDocumentChange, bool) {
	name := filepath.Base(event.Name)
	if isHidden(name) {
		return domain.RawDocumentChange{}, false
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return domain.RawDocumentChange{}, false
		}
		if info.IsDir() {
			// New subdirectory: extend the watch, no document event.
			watcher.Add(event.Name)
			return domain.RawDocumentChange{}, false
		}
		doc, err := c.readDocument(event.Name)
		if err != nil {
			return domain.RawDocumentChange{}, false
		}
		return domain.RawDocumentChange{Type: domain.ChangeCreated, Document: doc}, true

	case event.Op.Has(fsnotify.Write):
		doc, err := c.readDocument(event.Name)
		if err != nil {
			return domain.RawDocumentChange{}, false
		}
		return domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: doc}, true

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID: c.sourceID,
				URI:      fileURI(event.Name),
			},
		}, true

	default:
		return domain.RawDocumentChange{}, false
	}
}

// Close releases resources. Idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// walkFiles visits every regular, non-hidden file under the root.
// The callback receives the absolute path and modification time in
// nanoseconds.
func (c *Connector) walkFiles(ctx context.Context, fn func(path string, modNanos int64) error) error {
	return godirwalk.Walk(c.rootPath, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if de.IsDir() {
				if isHidden(de.Name()) && path != c.rootPath {
					return filepath.SkipDir
				}
				return nil
			}
			if !de.IsRegular() || isHidden(de.Name()) {
				return nil
			}

			info, err := os.Stat(path)
			if err != nil {
				// File vanished mid-walk.
				return nil
			}
			return fn(path, info.ModTime().UnixNano())
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			// Unreadable directories are skipped, not fatal.
			return godirwalk.SkipNode
		},
	})
}

// readDocument loads a file into a RawDocument.
func (c *Connector) readDocument(path string) (domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("stat file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	return domain.RawDocument{
		SourceID: c.sourceID,
		URI:      fileURI(path),
		MIMEType: detectMIMEType(ext),
		Content:  content,
		Metadata: map[string]any{
			"filename":  filepath.Base(path),
			"extension": strings.TrimPrefix(ext, "."),
			"size":      info.Size(),
			"modified":  info.ModTime(),
		},
	}, nil
}

// detectMIMEType resolves a MIME type from a lowercased file extension.
func detectMIMEType(ext string) string {
	if mt, ok := mimeByExtension[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		// Strip charset parameters for stable comparisons.
		if idx := strings.Index(mt, ";"); idx >= 0 {
			mt = mt[:idx]
		}
		return mt
	}
	return "application/octet-stream"
}

// fileURI converts a path to a file:// URI.
func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}

// isHidden reports whether a file or directory name is dot-prefixed.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
