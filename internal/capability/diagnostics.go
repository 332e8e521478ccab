package capability

import (
	"context"
	"encoding/json"

	"github.com/brianly1003/lspclient/internal/events"
	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// DiagnosticsEvent carries a textDocument/publishDiagnostics notification
// out to whoever subscribed via the events hub.
type DiagnosticsEvent struct {
	URI         string          `json:"uri"`
	Version     *int            `json:"version,omitempty"`
	Diagnostics json.RawMessage `json:"diagnostics"`
}

func (DiagnosticsEvent) Type() string { return "diagnostics/published" }

// Diagnostics implements both push-style publishDiagnostics (a
// server-to-client notification, no server capability flag required since
// every server may push diagnostics at will) and pull-style
// textDocument/diagnostic when the server advertises diagnosticProvider.
type Diagnostics struct {
	hub *events.Hub
}

// NewDiagnostics wires the capability to publish DiagnosticsEvent values on
// hub whenever the server pushes a publishDiagnostics notification.
func NewDiagnostics(hub *events.Hub) *Diagnostics {
	return &Diagnostics{hub: hub}
}

func (c *Diagnostics) Methods() []string {
	return []string{"textDocument/publishDiagnostics", "textDocument/diagnostic"}
}

func (c *Diagnostics) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "textDocument", "publishDiagnostics", "relatedInformation")
	b.Set(true, "textDocument", "publishDiagnostics", "versionSupport")
}

func (c *Diagnostics) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	// publishDiagnostics has no corresponding server capability to assert;
	// pullDiagnostics (textDocument/diagnostic) is optional and checked by
	// SupportsPull instead of failing the handshake when absent.
	return nil
}

// SupportsPull reports whether the server advertises diagnosticProvider,
// i.e. whether textDocument/diagnostic pull requests are meaningful.
func (c *Diagnostics) SupportsPull(sc ServerCapabilities) bool {
	return sc.Has("diagnosticProvider")
}

func (c *Diagnostics) RegisterServerRequestHooks(t *DispatchTable) {
	t.RegisterNotification("textDocument/publishDiagnostics", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		var ev DiagnosticsEvent
		if err := json.Unmarshal(params, &ev); err != nil {
			return nil, message.ErrInvalidParams(err.Error())
		}
		if c.hub != nil {
			c.hub.Publish(ev)
		}
		return nil, nil
	})
}
