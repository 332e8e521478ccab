package lspclient

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brianly1003/lspclient/internal/capability"
	"github.com/brianly1003/lspclient/internal/rpc/client"
	"github.com/brianly1003/lspclient/internal/rpc/message"
	"github.com/brianly1003/lspclient/internal/rpc/transport"
	"github.com/brianly1003/lspclient/internal/supervisor"
	"github.com/brianly1003/lspclient/internal/workspace"
)

// pipeTransport is an in-memory Transport for driving the handshake and
// typed operations without spawning a real process, the same double used
// by the Multiplexer's own tests.
type pipeTransport struct {
	in   chan []byte
	out  chan []byte
	done chan struct{}
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{in: make(chan []byte, 16), out: make(chan []byte, 16), done: make(chan struct{})}
}

func (p *pipeTransport) ID() string { return "pipe" }

func (p *pipeTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-p.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeTransport) Write(ctx context.Context, data []byte) error {
	select {
	case p.out <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeTransport) Close() error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return nil
}

func (p *pipeTransport) Done() <-chan struct{} { return p.done }

type fakeClass struct{}

func (fakeClass) LanguageID() string                      { return "go" }
func (fakeClass) CreateInitializationOptions() interface{} { return nil }
func (fakeClass) CheckServerCompatibility(capability.ServerInfo) error { return nil }
func (fakeClass) CreateDefaultServers() []supervisor.Candidate { return nil }
func (fakeClass) CreateDefaultConfigurationMap() map[string]interface{} {
	return map[string]interface{}{"go": map[string]interface{}{"gofumpt": true}}
}

// newTestClient builds a Client wired directly to a pipeTransport-backed
// session, bypassing supervisor.StartFirst so the handshake and typed
// operations can be driven against a scripted fake server.
func newTestClient(t *testing.T) (*Client, *pipeTransport) {
	t.Helper()
	folder, err := workspace.NewFolder("", t.TempDir())
	if err != nil {
		t.Fatalf("NewFolder: %v", err)
	}
	ws := workspace.New(folder)

	c := New(fakeClass{}, ws, WithLogger(zerolog.Nop()))

	pt := newPipeTransport()
	sess := client.NewSession(pt, client.WithLogger(zerolog.Nop()))

	c.mu.Lock()
	c.session = sess
	c.registry = c.buildRegistry()
	c.files = workspace.NewFileBuffer(&textSyncSender{client: c})
	c.instance = &supervisor.Instance{
		Runtime: fakeRuntime{},
		State:   supervisor.NewStateMachine(),
	}
	c.mu.Unlock()

	_ = c.state.Transition(supervisor.Spawned)
	go c.dispatchLoop(sess)

	return c, pt
}

type fakeRuntime struct{}

func (fakeRuntime) Start(ctx context.Context) (transport.Transport, error) { return nil, nil }
func (fakeRuntime) Stop(ctx context.Context) error                        { return nil }
func (fakeRuntime) Candidate() supervisor.Candidate                       { return supervisor.Candidate{Name: "fake"} }

func readRequest(t *testing.T, pt *pipeTransport) message.Request {
	t.Helper()
	select {
	case raw := <-pt.out:
		var req message.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound request")
	}
	return message.Request{}
}

// allRequiredServerCapabilities advertises every provider flag that the
// capabilities composed by buildRegistry assert during the handshake.
func allRequiredServerCapabilities() map[string]interface{} {
	return map[string]interface{}{
		"hoverProvider":           true,
		"definitionProvider":      true,
		"declarationProvider":     true,
		"typeDefinitionProvider":  true,
		"implementationProvider":  true,
		"referencesProvider":      true,
		"documentSymbolProvider":  true,
		"workspaceSymbolProvider": true,
		"completionProvider":      map[string]interface{}{},
		"signatureHelpProvider":   map[string]interface{}{},
		"callHierarchyProvider":   true,
		"typeHierarchyProvider":   true,
		"inlayHintProvider":       true,
		"inlineValueProvider":     true,
	}
}

func TestHandshake_SendsCapabilitiesAndAssertsServerSupport(t *testing.T) {
	c, pt := newTestClient(t)

	go func() {
		req := readRequest(t, pt)
		if req.Method != "initialize" {
			t.Errorf("expected initialize, got %s", req.Method)
			return
		}
		result := map[string]interface{}{
			"capabilities": allRequiredServerCapabilities(),
			"serverInfo":   map[string]interface{}{"name": "fakels", "version": "1.0"},
		}
		resp, _ := message.NewSuccessResponse(req.ID, result)
		data, _ := json.Marshal(resp)
		pt.in <- data

		initialized := readRequest(t, pt)
		if initialized.Method != "initialized" {
			t.Errorf("expected initialized notification, got %s", initialized.Method)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.handshake(ctx); err != nil {
		t.Fatalf("handshake: %v", err)
	}

	if c.ServerInfo().Name != "fakels" {
		t.Fatalf("expected server name fakels, got %q", c.ServerInfo().Name)
	}
}

func TestHandshake_FailsWhenRequiredCapabilityMissing(t *testing.T) {
	c, pt := newTestClient(t)

	go func() {
		req := readRequest(t, pt)
		result := map[string]interface{}{
			"capabilities": map[string]interface{}{},
			"serverInfo":   map[string]interface{}{"name": "bare", "version": "0.1"},
		}
		resp, _ := message.NewSuccessResponse(req.ID, result)
		data, _ := json.Marshal(resp)
		pt.in <- data
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.handshake(ctx); err == nil {
		t.Fatal("expected handshake to fail when the server advertises no capabilities at all")
	}
}

func TestWorkspaceFolders_ServedFromRegistry(t *testing.T) {
	c, pt := newTestClient(t)

	go func() {
		req := readRequest(t, pt)
		result := map[string]interface{}{"capabilities": allRequiredServerCapabilities()}
		resp, _ := message.NewSuccessResponse(req.ID, result)
		data, _ := json.Marshal(resp)
		pt.in <- data
		readRequest(t, pt) // initialized

		// Server asks for the client's workspace folders.
		wfReq, _ := message.NewRequest(message.NewUUIDID(), "workspace/workspaceFolders", nil)
		raw, _ := json.Marshal(wfReq)
		pt.in <- raw

		reply := <-pt.out
		var resp2 message.Response
		if err := json.Unmarshal(reply, &resp2); err != nil {
			t.Errorf("unmarshal reply: %v", err)
			return
		}
		var folders []capability.WorkspaceFolderInfo
		if err := json.Unmarshal(resp2.Result, &folders); err != nil {
			t.Errorf("unmarshal folders: %v", err)
			return
		}
		if len(folders) != 1 {
			t.Errorf("expected 1 folder, got %d", len(folders))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = c.handshake(ctx)
	time.Sleep(100 * time.Millisecond)
}
