// Package capability implements the composition model: capability mix-ins
// contribute fragments of ClientCapabilities, assert requirements against a
// server's advertised ServerCapabilities, and optionally register handlers
// for server-to-client requests/notifications in a shared DispatchTable.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// ServerInfo mirrors the InitializeResult's optional serverInfo field.
type ServerInfo struct {
	Name    string
	Version string
}

// ServerCapabilities is the server's advertised capabilities object. It is
// kept as a decoded JSON map rather than a fully typed struct: the LSP
// capabilities object is large, deeply optional, and grows with every
// protocol revision, so typed Has/Get accessors over a raw map absorb
// unknown server fields instead of a struct tag for every one of them.
type ServerCapabilities struct {
	raw map[string]interface{}
}

// ParseServerCapabilities decodes the "capabilities" field of an
// InitializeResult.
func ParseServerCapabilities(data json.RawMessage) (ServerCapabilities, error) {
	if len(data) == 0 {
		return ServerCapabilities{raw: map[string]interface{}{}}, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ServerCapabilities{}, &message.CodecError{Stage: "decode-server-capabilities", Cause: err}
	}
	return ServerCapabilities{raw: raw}, nil
}

// Has reports whether the dotted path is present and not `false`/`null`,
// e.g. Has("hoverProvider") or Has("completionProvider", "resolveProvider").
func (s ServerCapabilities) Has(path ...string) bool {
	v, ok := s.lookup(path)
	if !ok || v == nil {
		return false
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	return true
}

func (s ServerCapabilities) lookup(path []string) (interface{}, bool) {
	var cur interface{} = s.raw
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// CapabilityAssertionError reports that a server did not advertise a
// capability a composed Declaration requires to function.
type CapabilityAssertionError struct {
	Capability string
	ServerName string
}

func (e *CapabilityAssertionError) Error() string {
	return fmt.Sprintf("server %q does not support required capability %q", e.ServerName, e.Capability)
}

// ClientCapabilitiesBuilder accumulates the client-side ClientCapabilities
// fragments contributed by every composed Declaration before the
// initialize request is sent. Built as a dotted-path map for the same
// reason ServerCapabilities is: the object is a deep, sparse tree of
// mostly-boolean feature flags.
type ClientCapabilitiesBuilder struct {
	mu   sync.Mutex
	root map[string]interface{}
}

// NewClientCapabilitiesBuilder returns an empty builder.
func NewClientCapabilitiesBuilder() *ClientCapabilitiesBuilder {
	return &ClientCapabilitiesBuilder{root: map[string]interface{}{}}
}

// Set assigns value at the dotted path, creating intermediate maps as
// needed. Later calls to the same path overwrite earlier ones; composition
// order (declaration registration order) decides who wins.
func (b *ClientCapabilitiesBuilder) Set(value interface{}, path ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(path) == 0 {
		return
	}
	cur := b.root
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// Build returns the finished ClientCapabilities object ready to embed into
// an initialize request's params.
func (b *ClientCapabilitiesBuilder) Build() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.root
}

// Declaration is a capability mix-in. It is a value, not a base class:
// composition in Go means a slice of these rather than multiple
// inheritance, matching the design notes' explicit rejection of mix-in
// inheritance.
type Declaration interface {
	// Methods lists the LSP methods this capability is responsible for
	// (both client-to-server calls it exposes and server-to-client ones it
	// may handle), used for diagnostics and duplicate-registration checks.
	Methods() []string

	// ContributeClientCapabilities adds this capability's fragment of
	// ClientCapabilities to the shared builder.
	ContributeClientCapabilities(b *ClientCapabilitiesBuilder)

	// CheckServerCapabilities asserts that the server advertised whatever
	// this capability requires to be usable. A non-nil error fails the
	// handshake.
	CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error
}

// ServerRequestHandler is implemented by capabilities that also handle
// server-to-client requests or notifications (e.g. workspace/configuration,
// window/showMessage, didChangeWatchedFiles registration).
type ServerRequestHandler interface {
	RegisterServerRequestHooks(t *DispatchTable)
}

// HandlerFunc handles one server-to-client method.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error)

// DispatchTable routes server-to-client requests and notifications to
// registered handlers, the mirror image of the teacher's client-to-server
// `handler.Registry`/`HandlerFunc`/`Use` middleware shape. A method may
// have at most one request handler, since a request needs exactly one
// reply, but any number of notification handlers: notifications carry no
// reply, so every capability interested in one is broadcast it.
type DispatchTable struct {
	mu            sync.RWMutex
	requests      map[string]HandlerFunc
	notifications map[string][]HandlerFunc
	middleware    []MiddlewareFunc
}

// MiddlewareFunc wraps a HandlerFunc, e.g. for logging or recovering panics
// from a misbehaving capability handler.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// NewDispatchTable creates an empty table.
func NewDispatchTable() *DispatchTable {
	return &DispatchTable{
		requests:      make(map[string]HandlerFunc),
		notifications: make(map[string][]HandlerFunc),
	}
}

// Use appends middleware applied, innermost-first, to every handler
// resolved via Get or Notifications.
func (t *DispatchTable) Use(mw MiddlewareFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.middleware = append(t.middleware, mw)
}

// RegisterRequest installs the request handler for method. Registering the
// same method twice overwrites the previous handler; the composition order
// of Declarations determines which one wins.
func (t *DispatchTable) RegisterRequest(method string, h HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests[method] = h
}

// RegisterNotification adds h to the set of handlers notified for method.
// Unlike RegisterRequest, multiple declarations may each register their own
// handler for the same notification method and all of them run.
func (t *DispatchTable) RegisterNotification(method string, h HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifications[method] = append(t.notifications[method], h)
}

// Get resolves method to its request handler with middleware applied, or
// nil if nothing is registered.
func (t *DispatchTable) Get(method string) HandlerFunc {
	t.mu.RLock()
	h, ok := t.requests[method]
	mw := t.middleware
	t.mu.RUnlock()

	if !ok {
		return nil
	}
	return applyMiddleware(h, mw)
}

// Notifications resolves method to every registered notification handler,
// each with middleware applied, for the caller to invoke in turn.
func (t *DispatchTable) Notifications(method string) []HandlerFunc {
	t.mu.RLock()
	hs := t.notifications[method]
	mw := t.middleware
	t.mu.RUnlock()

	if len(hs) == 0 {
		return nil
	}
	out := make([]HandlerFunc, len(hs))
	for i, h := range hs {
		out[i] = applyMiddleware(h, mw)
	}
	return out
}

func applyMiddleware(h HandlerFunc, mw []MiddlewareFunc) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// Has reports whether method has a registered request handler or at least
// one registered notification handler.
func (t *DispatchTable) Has(method string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.requests[method]; ok {
		return true
	}
	return len(t.notifications[method]) > 0
}

// Registry composes a fixed set of Declarations into a single
// ClientCapabilities object, a server-capability assertion pass, and a
// shared DispatchTable, in deterministic registration order.
type Registry struct {
	declarations []Declaration
	dispatch     *DispatchTable
}

// NewRegistry composes declarations in the given order. Order matters for
// both ClientCapabilitiesBuilder.Set overwrites and DispatchTable.RegisterRequest
// overwrites: later declarations win on conflicts. RegisterNotification
// appends instead, so every declaration's notification handler is kept.
func NewRegistry(declarations ...Declaration) *Registry {
	r := &Registry{
		declarations: declarations,
		dispatch:     NewDispatchTable(),
	}
	for _, d := range declarations {
		if h, ok := d.(ServerRequestHandler); ok {
			h.RegisterServerRequestHooks(r.dispatch)
		}
	}
	return r
}

// BuildClientCapabilities merges every declaration's contribution into a
// single ClientCapabilities object for the initialize request.
func (r *Registry) BuildClientCapabilities() map[string]interface{} {
	b := NewClientCapabilitiesBuilder()
	for _, d := range r.declarations {
		d.ContributeClientCapabilities(b)
	}
	return b.Build()
}

// CheckServerCapabilities runs every declaration's assertion against the
// server's advertised capabilities, returning the first failure. Per §4.4,
// assertion failures are collected rather than stopping at the first one
// when AllAssertionErrors is used instead.
func (r *Registry) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	for _, d := range r.declarations {
		if err := d.CheckServerCapabilities(sc, info); err != nil {
			return err
		}
	}
	return nil
}

// AllAssertionErrors runs every declaration's assertion and returns every
// failure instead of stopping at the first, useful for diagnostics that
// want to report every missing capability in one pass.
func (r *Registry) AllAssertionErrors(sc ServerCapabilities, info ServerInfo) []error {
	var errs []error
	for _, d := range r.declarations {
		if err := d.CheckServerCapabilities(sc, info); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Dispatch returns the shared server-to-client dispatch table.
func (r *Registry) Dispatch() *DispatchTable {
	return r.dispatch
}

// Methods returns every method name contributed across all declarations,
// sorted, for logging and introspection.
func (r *Registry) Methods() []string {
	seen := map[string]struct{}{}
	for _, d := range r.declarations {
		for _, m := range d.Methods() {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
