package capability

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/brianly1003/lspclient/internal/fswatch"
)

// WatchedFileSender delivers a workspace/didChangeWatchedFiles notification
// to the server; the Client Facade provides this as a thin wrapper over
// Session.Notify, keeping this package free of a direct rpc/client import.
type WatchedFileSender func(ctx context.Context, changes []FileChange) error

// FileChange is one entry of a workspace/didChangeWatchedFiles
// notification's `changes` array.
type FileChange struct {
	URI  string `json:"uri"`
	Type int    `json:"type"`
}

// DidChangeWatchedFiles watches every registered workspace folder with
// fswatch and forwards coalesced changes to the server. Declared as
// [EXPANSION, supplemented]: file watching is standard equipment in real
// LSP clients even though the distilled feature list didn't originally
// name it.
type DidChangeWatchedFiles struct {
	send   WatchedFileSender
	logger zerolog.Logger

	mu       sync.Mutex
	watchers []*fswatch.Watcher
	debounce int
}

// NewDidChangeWatchedFiles creates the capability. debounceMS controls how
// long the underlying fswatch.Watcher coalesces bursts of changes before
// notifying the server.
func NewDidChangeWatchedFiles(send WatchedFileSender, logger zerolog.Logger, debounceMS int) *DidChangeWatchedFiles {
	if debounceMS <= 0 {
		debounceMS = 250
	}
	return &DidChangeWatchedFiles{send: send, logger: logger, debounce: debounceMS}
}

func (c *DidChangeWatchedFiles) Methods() []string {
	return []string{"workspace/didChangeWatchedFiles"}
}

func (c *DidChangeWatchedFiles) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "workspace", "didChangeWatchedFiles", "dynamicRegistration")
}

func (c *DidChangeWatchedFiles) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	return nil
}

// WatchFolder starts watching rootPath (a workspace folder's filesystem
// path) and forwards every change via the configured sender, converting
// fswatch's local path into the fileURI scheme LSP expects.
func (c *DidChangeWatchedFiles) WatchFolder(ctx context.Context, rootPath string, ignorePatterns []string) error {
	w := fswatch.NewWatcher(rootPath, c.debounce, ignorePatterns, func(ev fswatch.FileEvent) {
		uri := pathToFileURI(rootPath, ev.Path)
		if err := c.send(context.Background(), []FileChange{{URI: uri, Type: int(ev.ChangeType)}}); err != nil {
			c.logger.Warn().Err(err).Str("uri", uri).Msg("failed to notify server of watched file change")
		}
	})

	if err := w.Start(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.watchers = append(c.watchers, w)
	c.mu.Unlock()
	return nil
}

// StopAll stops every folder watcher started via WatchFolder.
func (c *DidChangeWatchedFiles) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.watchers {
		_ = w.Stop()
	}
	c.watchers = nil
}

func pathToFileURI(root, relPath string) string {
	return "file://" + root + "/" + relPath
}
