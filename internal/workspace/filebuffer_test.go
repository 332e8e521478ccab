package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type recordingSender struct {
	mu     sync.Mutex
	opened []string
	closed []string
}

func (s *recordingSender) DidOpen(ctx context.Context, uri, languageID, content string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, uri)
	return nil
}

func (s *recordingSender) DidClose(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, uri)
	return nil
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.go")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestFileBuffer_OpenFiles_SendsDidOpenOnceForSharedScopes(t *testing.T) {
	sender := &recordingSender{}
	fb := NewFileBuffer(sender)
	ctx := context.Background()
	path := writeTempFile(t, "package a")

	urisA, releaseA, err := fb.OpenFiles(ctx, "go", path)
	if err != nil {
		t.Fatalf("OpenFiles (first scope): %v", err)
	}
	urisB, releaseB, err := fb.OpenFiles(ctx, "go", path)
	if err != nil {
		t.Fatalf("OpenFiles (second scope): %v", err)
	}
	uri := urisA[0]
	if urisB[0] != uri {
		t.Fatalf("expected both scopes to derive the same uri, got %q and %q", uri, urisB[0])
	}

	if len(sender.opened) != 1 {
		t.Fatalf("expected exactly one didOpen, got %d", len(sender.opened))
	}
	if sender.opened[0] != uri {
		t.Fatalf("expected didOpen for %q, got %q", uri, sender.opened[0])
	}
	if !fb.IsOpen(uri) {
		t.Fatal("expected file to be open")
	}

	if err := releaseA(); err != nil {
		t.Fatalf("release A: %v", err)
	}
	if len(sender.closed) != 0 {
		t.Fatal("expected no didClose while a second scope still holds the file open")
	}
	if !fb.IsOpen(uri) {
		t.Fatal("expected file to remain open with one scope still outstanding")
	}

	if err := releaseB(); err != nil {
		t.Fatalf("release B: %v", err)
	}
	if len(sender.closed) != 1 {
		t.Fatalf("expected exactly one didClose after the last scope releases, got %d", len(sender.closed))
	}
	if fb.IsOpen(uri) {
		t.Fatal("expected file to be closed once every scope released it")
	}
}

func TestFileBuffer_OpenFiles_ReadsContentFromDisk(t *testing.T) {
	sender := &recordingSender{}
	fb := NewFileBuffer(sender)
	ctx := context.Background()
	path := writeTempFile(t, "package a\n\nfunc F() {}")

	_, release, err := fb.OpenFiles(ctx, "go", path)
	if err != nil {
		t.Fatalf("OpenFiles: %v", err)
	}
	defer release()

	if len(sender.opened) != 1 {
		t.Fatalf("expected exactly one didOpen, got %d", len(sender.opened))
	}
}

func TestFileBuffer_OpenFiles_MissingFileErrors(t *testing.T) {
	fb := NewFileBuffer(&recordingSender{})
	ctx := context.Background()

	if _, _, err := fb.OpenFiles(ctx, "go", filepath.Join(t.TempDir(), "missing.go")); err == nil {
		t.Fatal("expected an error opening a file that does not exist")
	}
}

func TestFileBuffer_Release_IsIdempotent(t *testing.T) {
	sender := &recordingSender{}
	fb := NewFileBuffer(sender)
	ctx := context.Background()
	path := writeTempFile(t, "package a")

	_, release, err := fb.OpenFiles(ctx, "go", path)
	if err != nil {
		t.Fatalf("OpenFiles: %v", err)
	}

	if err := release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("second release should be a no-op, got: %v", err)
	}
	if len(sender.closed) != 1 {
		t.Fatalf("expected exactly one didClose despite calling release twice, got %d", len(sender.closed))
	}
}

func TestFileBuffer_UpdateContent_BumpsVersion(t *testing.T) {
	sender := &recordingSender{}
	fb := NewFileBuffer(sender)
	ctx := context.Background()
	path := writeTempFile(t, "package a")

	uris, release, err := fb.OpenFiles(ctx, "go", path)
	if err != nil {
		t.Fatalf("OpenFiles: %v", err)
	}
	defer release()
	uri := uris[0]

	fb.UpdateContent(uri, "package a\n\nfunc main() {}")

	version, ok := fb.Version(uri)
	if !ok {
		t.Fatal("expected file to be open")
	}
	if version != 2 {
		t.Fatalf("expected version 2 after one update, got %d", version)
	}
}
