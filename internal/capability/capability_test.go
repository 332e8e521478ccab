package capability

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brianly1003/lspclient/internal/rpc/message"
)

func TestRegistry_BuildClientCapabilities_MergesFragments(t *testing.T) {
	reg := NewRegistry(NewTextSync(), NewHover(), NewCompletion("."))

	caps := reg.BuildClientCapabilities()
	textDoc, ok := caps["textDocument"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected textDocument fragment, got %#v", caps)
	}
	if _, ok := textDoc["hover"]; !ok {
		t.Fatalf("expected hover fragment to be merged, got %#v", textDoc)
	}
	if _, ok := textDoc["completion"]; !ok {
		t.Fatalf("expected completion fragment to be merged, got %#v", textDoc)
	}
}

func TestRegistry_CheckServerCapabilities_FailsOnMissingFlag(t *testing.T) {
	reg := NewRegistry(NewHover())

	sc, err := ParseServerCapabilities([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseServerCapabilities error: %v", err)
	}

	if err := reg.CheckServerCapabilities(sc, ServerInfo{Name: "fake-lsp"}); err == nil {
		t.Fatal("expected assertion error for missing hoverProvider")
	}
}

func TestRegistry_CheckServerCapabilities_PassesWhenAdvertised(t *testing.T) {
	reg := NewRegistry(NewHover(), NewDefinition())

	sc, err := ParseServerCapabilities([]byte(`{"hoverProvider": true, "definitionProvider": true}`))
	if err != nil {
		t.Fatalf("ParseServerCapabilities error: %v", err)
	}

	if err := reg.CheckServerCapabilities(sc, ServerInfo{Name: "fake-lsp"}); err != nil {
		t.Fatalf("unexpected assertion error: %v", err)
	}
}

func TestRegistry_AllAssertionErrors_CollectsEveryFailure(t *testing.T) {
	reg := NewRegistry(NewHover(), NewDefinition(), NewReferences())

	sc, _ := ParseServerCapabilities([]byte(`{"hoverProvider": true}`))
	errs := reg.AllAssertionErrors(sc, ServerInfo{Name: "fake-lsp"})
	if len(errs) != 2 {
		t.Fatalf("expected 2 assertion errors (definition, references), got %d: %v", len(errs), errs)
	}
}

func TestServerCapabilities_Has_NestedPath(t *testing.T) {
	sc, err := ParseServerCapabilities([]byte(`{"completionProvider": {"resolveProvider": true}}`))
	if err != nil {
		t.Fatalf("ParseServerCapabilities error: %v", err)
	}
	if !sc.Has("completionProvider", "resolveProvider") {
		t.Fatal("expected nested Has to find resolveProvider")
	}
	if sc.Has("completionProvider", "triggerCharacters") {
		t.Fatal("expected Has to be false for absent nested key")
	}
}

func TestDispatchTable_RegisterRequestAndGet(t *testing.T) {
	dt := NewDispatchTable()
	dt.RegisterRequest("workspace/configuration", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		return nil, nil
	})
	if !dt.Has("workspace/configuration") {
		t.Fatal("expected method to be registered")
	}
	if dt.Has("textDocument/hover") {
		t.Fatal("did not expect unregistered method to be present")
	}
	if dt.Get("workspace/configuration") == nil {
		t.Fatal("expected Get to resolve the registered request handler")
	}
}

func TestDispatchTable_RegisterNotification_BroadcastsToAllHandlers(t *testing.T) {
	dt := NewDispatchTable()
	var calls []int
	dt.RegisterNotification("window/logMessage", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		calls = append(calls, 1)
		return nil, nil
	})
	dt.RegisterNotification("window/logMessage", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		calls = append(calls, 2)
		return nil, nil
	})

	handlers := dt.Notifications("window/logMessage")
	if len(handlers) != 2 {
		t.Fatalf("expected 2 registered notification handlers, got %d", len(handlers))
	}
	for _, h := range handlers {
		_, _ = h(context.Background(), nil)
	}
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("expected both handlers to run in registration order, got %v", calls)
	}

	if dt.Get("window/logMessage") != nil {
		t.Fatal("expected Get to find no request handler for a notification-only method")
	}
}
