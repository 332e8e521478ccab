package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// openFile tracks one document's last-known content and how many scopes
// currently hold it open, so textDocument/didClose is only sent to the
// server once the last interested caller releases it.
type openFile struct {
	content string
	version int
	refcount int
}

// Sender delivers the didOpen/didClose notifications a FileBuffer issues
// as documents are opened and released. The
// Client Facade wires this as a thin wrapper over the textsync
// capability's Session calls, keeping this package free of an rpc/client
// import.
type Sender interface {
	DidOpen(ctx context.Context, uri, languageID, content string, version int) error
	DidClose(ctx context.Context, uri string) error
}

// FileBuffer tracks which documents are open on the server and how many
// independent callers currently need them open, matching the teacher's
// mutex-guarded state pattern (`adapters/claude/manager.go`'s
// `mu sync.RWMutex` + state field) generalized from a single running/idle
// flag to a per-URI reference count.
type FileBuffer struct {
	mu    sync.Mutex
	files map[string]*openFile
	send  Sender
}

// NewFileBuffer creates an empty buffer that reports opens/closes through
// send.
func NewFileBuffer(send Sender) *FileBuffer {
	return &FileBuffer{files: make(map[string]*openFile), send: send}
}

// OpenFiles reads each path from disk itself (matching the Python original's
// `LSPFileBufferItem.contents` reading `file_path.read_text()` on first
// open, never taking content from the caller), derives each path's file://
// URI, and opens every one not already open elsewhere, sending didOpen for
// each newly-opened URI. It increments every URI's refcount and returns the
// derived URIs (in the same order as paths) plus a release function the
// caller must invoke exactly once to give the scope back — the teacher's
// explicit scope-enter/scope-exit idiom (start/stop pairs) rather than a
// bare `defer Close()`, so the release can be handed to a different
// goroutine than the one that opened the scope.
func (b *FileBuffer) OpenFiles(ctx context.Context, languageID string, paths ...string) ([]string, func() error, error) {
	uris := make([]string, len(paths))
	abss := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, fmt.Errorf("workspace: resolving %q: %w", p, err)
		}
		abss[i] = abs
		uris[i] = PathToFileURI(abs)
	}

	b.mu.Lock()
	isNew := make(map[string]bool, len(uris))
	for _, uri := range uris {
		f, exists := b.files[uri]
		if !exists {
			f = &openFile{version: 1}
			b.files[uri] = f
			isNew[uri] = true
		}
		f.refcount++
	}
	b.mu.Unlock()

	for i, uri := range uris {
		if !isNew[uri] {
			continue
		}
		content, err := os.ReadFile(abss[i])
		if err != nil {
			return nil, nil, fmt.Errorf("workspace: reading %q: %w", paths[i], err)
		}

		b.mu.Lock()
		b.files[uri].content = string(content)
		b.mu.Unlock()

		if err := b.send.DidOpen(ctx, uri, languageID, string(content), 1); err != nil {
			return nil, nil, fmt.Errorf("workspace: opening %q: %w", uri, err)
		}
	}

	releaseURIs := append([]string(nil), uris...)
	released := false
	var releaseMu sync.Mutex
	release := func() error {
		releaseMu.Lock()
		defer releaseMu.Unlock()
		if released {
			return nil
		}
		released = true
		return b.releaseScope(ctx, releaseURIs)
	}
	return uris, release, nil
}

func (b *FileBuffer) releaseScope(ctx context.Context, uris []string) error {
	b.mu.Lock()
	toClose := make([]string, 0, len(uris))
	for _, uri := range uris {
		f, ok := b.files[uri]
		if !ok {
			continue
		}
		f.refcount--
		if f.refcount <= 0 {
			delete(b.files, uri)
			toClose = append(toClose, uri)
		}
	}
	b.mu.Unlock()

	var firstErr error
	for _, uri := range toClose {
		if err := b.send.DidClose(ctx, uri); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("workspace: closing %q: %w", uri, err)
		}
	}
	return firstErr
}

// UpdateContent records new content and bumps the version of an
// already-open document, used by the Client Facade's didChange operation.
// It does nothing for a URI that is not open. Once every scope has released
// a document its entry is dropped, and the next open reads the file from
// disk again.
func (b *FileBuffer) UpdateContent(uri, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.files[uri]; ok {
		f.content = content
		f.version++
	}
}

// IsOpen reports whether uri currently has at least one open scope.
func (b *FileBuffer) IsOpen(uri string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[uri]
	return ok
}

// Version returns the document's current version and whether it is open.
func (b *FileBuffer) Version(uri string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.files[uri]
	if !ok {
		return 0, false
	}
	return f.version, true
}

// OpenCount reports how many distinct documents are currently open, for
// shutdown-drain assertions in tests.
func (b *FileBuffer) OpenCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}
