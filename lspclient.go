// Package lspclient is a client-side Language Server Protocol runtime: it
// spawns or connects to a language server, performs the initialize
// handshake, composes capability mix-ins into ClientCapabilities, and
// exposes typed request/notification operations for the session's
// lifetime. It does not implement a language server, parse source, or
// persist state across runs.
package lspclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brianly1003/lspclient/internal/capability"
	"github.com/brianly1003/lspclient/internal/events"
	"github.com/brianly1003/lspclient/internal/fswatch"
	"github.com/brianly1003/lspclient/internal/rpc/client"
	"github.com/brianly1003/lspclient/internal/rpc/message"
	"github.com/brianly1003/lspclient/internal/supervisor"
	"github.com/brianly1003/lspclient/internal/workspace"
)

// DefaultCallTimeout bounds every typed operation and the initialize
// handshake; a caller's context deadline still applies when it is sooner.
const DefaultCallTimeout = 5 * time.Second

// ClientClass is implemented by a concrete language client (e.g. a Go,
// Python, or TypeScript client) to supply the pieces this core runtime
// cannot know on its own. The core consumes this interface; it never
// implements it.
type ClientClass interface {
	// LanguageID is the languageId sent on textDocument/didOpen.
	LanguageID() string
	// CreateInitializationOptions returns the value sent as initialize's
	// initializationOptions, or nil for none.
	CreateInitializationOptions() interface{}
	// CheckServerCompatibility vets the server's self-reported name/version
	// beyond plain capability assertions (e.g. rejecting a known-broken
	// release), returning a non-nil error to abort the handshake.
	CheckServerCompatibility(info capability.ServerInfo) error
	// CreateDefaultServers returns the ordered fallback chain of server
	// candidates to try when the caller didn't supply its own.
	CreateDefaultServers() []supervisor.Candidate
	// CreateDefaultConfigurationMap returns the initial values
	// workspace/configuration answers with, keyed by section.
	CreateDefaultConfigurationMap() map[string]interface{}
}

// Option configures a Client before Start.
type Option func(*Client)

// WithLogger overrides the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithServerCandidates overrides the fallback chain the ClientClass would
// otherwise supply, e.g. for a user-configured override.
func WithServerCandidates(candidates []supervisor.Candidate) Option {
	return func(c *Client) { c.candidates = candidates }
}

// WithWatcher enables the didChangeWatchedFiles capability with the given
// debounce and ignore patterns.
func WithWatcher(debounceMS int, ignorePatterns []string) Option {
	return func(c *Client) {
		c.watcherEnabled = true
		c.watcherDebounceMS = debounceMS
		c.watcherIgnorePatterns = ignorePatterns
	}
}

// Client is the scoped-lifetime facade over one language server
// conversation: workspace materialization, server supervision, the
// initialize/initialized handshake, typed operations, and
// shutdown/exit teardown. Grounded on the teacher's
// `adapters/claude/manager.go` state-guarded start/stop pattern,
// generalized from a single CLI subprocess to the full LSP handshake.
type Client struct {
	class     ClientClass
	workspace *workspace.Workspace
	logger    zerolog.Logger

	candidates []supervisor.Candidate

	watcherEnabled        bool
	watcherDebounceMS     int
	watcherIgnorePatterns []string

	mu        sync.Mutex
	state     *supervisor.StateMachine
	instance  *supervisor.Instance
	session   *client.Session
	registry  *capability.Registry
	hub       *events.Hub
	files     *workspace.FileBuffer
	watcher   *fswatch.Watcher
	serverInfo capability.ServerInfo
	serverCaps capability.ServerCapabilities
}

// New creates a Client bound to class and ws, applying opts. Start must be
// called before any typed operation is used.
func New(class ClientClass, ws *workspace.Workspace, opts ...Option) *Client {
	c := &Client{
		class:     class,
		workspace: ws,
		logger:    zerolog.Nop(),
		state:     supervisor.NewStateMachine(),
		hub:       events.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.candidates == nil {
		c.candidates = class.CreateDefaultServers()
	}
	return c
}

// State reports the client's current lifecycle state.
func (c *Client) State() supervisor.State {
	return c.state.Current()
}

// ServerInfo returns the server's self-reported name/version, valid once
// Start has completed.
func (c *Client) ServerInfo() capability.ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// Registry exposes the composed capability registry, mainly for
// diagnostics (Registry().Methods()) and tests.
func (c *Client) Registry() *capability.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry
}

// Events returns the client's event hub, publishing diagnostics and
// window-message events for subscribers to range over.
func (c *Client) Events() *events.Hub {
	return c.hub
}

// Start brings the session up: spawns or connects to the first working
// server candidate, builds the capability registry, runs the
// initialize/initialized handshake, and (if enabled) starts the workspace
// file watcher. It is an error to call Start twice.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Current() != supervisor.Uninitialized {
		c.mu.Unlock()
		return fmt.Errorf("lspclient: Start called from state %s", c.state.Current())
	}
	c.mu.Unlock()

	c.hub.Start()

	inst, err := supervisor.StartFirst(ctx, c.candidates)
	if err != nil {
		_ = c.state.Transition(supervisor.Failed)
		return fmt.Errorf("lspclient: starting server: %w", err)
	}

	if err := c.state.Transition(supervisor.Spawned); err != nil {
		return err
	}

	sess := client.NewSession(inst.Transport, client.WithLogger(c.logger))

	c.mu.Lock()
	c.instance = inst
	c.session = sess
	c.registry = c.buildRegistry()
	c.files = workspace.NewFileBuffer(&textSyncSender{client: c})
	c.mu.Unlock()

	go c.dispatchLoop(sess)

	if err := c.handshake(ctx); err != nil {
		// initialize never completed, so shutdown is skipped, but exit is
		// still sent and the process reaped: spec requires exit after a
		// failed handshake just as after a normal shutdown, so the
		// spawned server is never leaked on a CapabilityAssertionError or
		// similar rejection.
		_ = c.session.Notify(ctx, "exit", nil)
		_ = c.session.Close()
		_ = c.instance.Runtime.Stop(ctx)
		_ = c.state.Transition(supervisor.Failed)
		return err
	}

	if err := c.state.Transition(supervisor.Ready); err != nil {
		return err
	}

	if c.watcherEnabled {
		if err := c.startWatcher(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("failed to start workspace file watcher")
		}
	}

	return nil
}

func (c *Client) buildRegistry() *capability.Registry {
	declarations := []capability.Declaration{
		capability.NewTextSync(),
		capability.NewHover(),
		capability.NewDefinition(),
		capability.NewDeclaration(),
		capability.NewTypeDefinition(),
		capability.NewImplementation(),
		capability.NewReferences(),
		capability.NewDocumentSymbol(),
		capability.NewWorkspaceSymbol(),
		capability.NewCompletion(),
		capability.NewSignatureHelp(),
		capability.NewCallHierarchy(),
		capability.NewTypeHierarchy(),
		capability.NewInlayHint(),
		capability.NewInlineValue(),
		capability.NewDiagnostics(c.hub),
		capability.NewWindowMessages(c.hub),
		capability.NewWorkspaceFolders(c.listWorkspaceFolders),
		capability.NewConfiguration(c.resolveConfiguration),
	}
	if c.watcherEnabled {
		declarations = append(declarations, capability.NewDidChangeWatchedFiles(c.sendWatchedFileChange, c.logger, c.watcherDebounceMS))
	}
	return capability.NewRegistry(declarations...)
}

func (c *Client) listWorkspaceFolders() []capability.WorkspaceFolderInfo {
	folders := c.workspace.Folders()
	out := make([]capability.WorkspaceFolderInfo, 0, len(folders))
	for _, f := range folders {
		out = append(out, capability.WorkspaceFolderInfo{URI: f.URI, Name: f.Name})
	}
	return out
}

func (c *Client) resolveConfiguration(item capability.ConfigurationItem) interface{} {
	defaults := c.class.CreateDefaultConfigurationMap()
	if item.Section == "" {
		return defaults
	}
	return defaults[item.Section]
}

// dispatchLoop ranges over server-originated requests/notifications for
// the lifetime of the session, routing each to the registry's
// DispatchTable.
func (c *Client) dispatchLoop(sess *client.Session) {
	for sr := range sess.ServerRequests() {
		if sr.IsNotification {
			for _, handler := range c.registry.Dispatch().Notifications(sr.Method) {
				handler(context.Background(), sr.Params)
			}
			continue
		}

		handler := c.registry.Dispatch().Get(sr.Method)
		if handler == nil {
			sr.Reply(nil, message.ErrMethodNotFound(sr.Method))
			continue
		}
		result, rpcErr := handler(context.Background(), sr.Params)
		sr.Reply(result, rpcErr)
	}
}

// Stop runs the shutdown/exit sequence, stops the watcher, and tears down
// the server runtime. Stop is idempotent.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	state := c.state.Current()
	c.mu.Unlock()

	if state == supervisor.Exited || state == supervisor.Failed || state == supervisor.Uninitialized {
		return nil
	}

	if err := c.state.Transition(supervisor.ShuttingDown); err != nil {
		return err
	}

	if c.watcher != nil {
		c.watcher.Stop()
	}

	var shutdownErr error
	if _, err := c.session.CallWithID(ctx, message.ShutdownID(), "shutdown", nil); err != nil {
		shutdownErr = err
	}
	if err := c.session.Notify(ctx, "exit", nil); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	if err := c.session.Close(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}
	if err := c.instance.Runtime.Stop(ctx); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	c.hub.Stop()

	if shutdownErr != nil {
		_ = c.state.Transition(supervisor.Failed)
		return shutdownErr
	}
	return c.state.Transition(supervisor.Exited)
}

// textSyncSender adapts Client to workspace.Sender, keeping the workspace
// package free of an rpc/client import.
type textSyncSender struct {
	client *Client
}

func (s *textSyncSender) DidOpen(ctx context.Context, uri, languageID, content string, version int) error {
	return s.client.session.Notify(ctx, "textDocument/didOpen", map[string]interface{}{
		"textDocument": map[string]interface{}{
			"uri":        uri,
			"languageId": languageID,
			"version":    version,
			"text":       content,
		},
	})
}

func (s *textSyncSender) DidClose(ctx context.Context, uri string) error {
	return s.client.session.Notify(ctx, "textDocument/didClose", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
	})
}

func (c *Client) sendWatchedFileChange(ctx context.Context, changes []capability.FileChange) error {
	raw := make([]map[string]interface{}, 0, len(changes))
	for _, ch := range changes {
		raw = append(raw, map[string]interface{}{"uri": ch.URI, "type": ch.Type})
	}
	return c.session.Notify(ctx, "workspace/didChangeWatchedFiles", map[string]interface{}{"changes": raw})
}

func (c *Client) startWatcher(ctx context.Context) error {
	root, ok := c.workspace.SingleRoot()
	if !ok {
		folders := c.workspace.Folders()
		if len(folders) == 0 {
			return nil
		}
		root = folders[0]
	}

	ignore := c.watcherIgnorePatterns
	debounce := c.watcherDebounceMS
	if debounce <= 0 {
		debounce = 250
	}

	w := fswatch.NewWatcher(root.Path, debounce, ignore, func(ev fswatch.FileEvent) {
		uri := pathToFileURI(root.Path, ev.Path)
		_ = c.sendWatchedFileChange(context.Background(), []capability.FileChange{{URI: uri, Type: int(ev.ChangeType)}})
	})
	if err := w.Start(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	return nil
}
