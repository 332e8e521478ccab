// Package fswatch implements the filesystem watcher backing the
// workspace/didChangeWatchedFiles capability, built on fsnotify the same
// way the teacher's own repository watcher was.
package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ChangeType mirrors LSP's FileChangeType enum values exactly, so a
// FileEvent can be marshaled straight into a
// workspace/didChangeWatchedFiles notification.
type ChangeType int

const (
	Created ChangeType = 1
	Changed ChangeType = 2
	Deleted ChangeType = 3
)

// FileEvent is one coalesced filesystem change, relative to the watched
// workspace folder's root.
type FileEvent struct {
	Path       string
	ChangeType ChangeType
}

// pendingRename tracks a path whose old name we've seen but whose new name
// (the matching CREATE) hasn't arrived yet.
type pendingRename struct {
	oldPath   string
	timestamp time.Time
}

// Watcher watches a single workspace folder root and calls its callback
// with debounced, deduplicated FileEvents. Generalized from the teacher's
// `internal/adapters/watcher.Watcher`, with the event published to a plain
// callback instead of a `ports.EventHub`.
type Watcher struct {
	rootPath   string
	debounceMS int
	onEvent    func(FileEvent)

	mu             sync.RWMutex
	watcher        *fsnotify.Watcher
	ignorePatterns []string
	running        bool
	cancel         context.CancelFunc
	debouncer      *debouncer

	pendingRenames   map[string]pendingRename
	pendingRenamesMu sync.Mutex
}

// NewWatcher creates a watcher for rootPath. onEvent is called from the
// watcher's own goroutine; callers that need to hand off to another
// goroutine should do so themselves (e.g. by pushing onto a channel).
func NewWatcher(rootPath string, debounceMS int, ignorePatterns []string, onEvent func(FileEvent)) *Watcher {
	return &Watcher{
		rootPath:       rootPath,
		debounceMS:     debounceMS,
		onEvent:        onEvent,
		ignorePatterns: ignorePatterns,
		pendingRenames: make(map[string]pendingRename),
	}
}

// Start begins watching the root directory recursively.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fsw

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.debouncer = newDebouncer(time.Duration(w.debounceMS)*time.Millisecond, w.handleDebouncedEvent)
	w.running = true
	w.mu.Unlock()

	if err := w.addWatchRecursive(w.rootPath); err != nil {
		_ = w.Stop()
		return err
	}

	go w.eventLoop(watchCtx)
	go w.pendingRenameCleanup(watchCtx)

	log.Info().Str("path", w.rootPath).Int("debounce_ms", w.debounceMS).Msg("workspace file watcher started")
	return nil
}

// Stop terminates watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false

	if w.cancel != nil {
		w.cancel()
	}
	if w.debouncer != nil {
		w.debouncer.stop()
	}
	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		return err
	}
	return nil
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to add watch")
			return nil
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// pendingRenameCleanup treats renames that never get a matching CREATE
// within a second as deletions, the same macOS workaround the teacher's
// watcher carried.
func (w *Watcher) pendingRenameCleanup(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processStalePendingRenames()
		}
	}
}

func (w *Watcher) processStalePendingRenames() {
	w.pendingRenamesMu.Lock()
	defer w.pendingRenamesMu.Unlock()

	now := time.Now()
	for dir, pending := range w.pendingRenames {
		if now.Sub(pending.timestamp) > time.Second {
			delete(w.pendingRenames, dir)
			if w.onEvent != nil {
				w.onEvent(FileEvent{Path: pending.oldPath, ChangeType: Deleted})
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	if w.shouldIgnore(event.Name) || w.shouldIgnore(relPath) {
		return
	}

	var changeType ChangeType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		changeType = Created
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addWatchRecursive(event.Name)
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
		changeType = Changed
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		changeType = Deleted
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		dir := filepath.Dir(relPath)
		w.pendingRenamesMu.Lock()
		w.pendingRenames[dir] = pendingRename{oldPath: relPath, timestamp: time.Now()}
		w.pendingRenamesMu.Unlock()
		return
	case event.Op&fsnotify.Chmod == fsnotify.Chmod:
		return
	default:
		return
	}

	w.debouncer.add(relPath, changeType)
}

func (w *Watcher) handleDebouncedEvent(path string, changeType ChangeType) {
	if changeType == Created {
		dir := filepath.Dir(path)
		w.pendingRenamesMu.Lock()
		_, hasPending := w.pendingRenames[dir]
		if hasPending {
			delete(w.pendingRenames, dir)
		}
		w.pendingRenamesMu.Unlock()
	}

	if w.onEvent != nil {
		w.onEvent(FileEvent{Path: path, ChangeType: changeType})
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	for _, pattern := range w.ignorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		for _, part := range splitPath(path) {
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}

func splitPath(path string) []string {
	var parts []string
	for path != "" && path != "/" && path != "." {
		dir, file := filepath.Split(path)
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		path = filepath.Clean(dir)
	}
	return parts
}
