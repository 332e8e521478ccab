package capability

import (
	"context"
	"encoding/json"

	"github.com/brianly1003/lspclient/internal/events"
	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// WindowMessageEvent carries a window/logMessage or window/showMessage
// notification out to subscribers.
type WindowMessageEvent struct {
	Kind    string `json:"kind"` // "log" or "show"
	Type    int    `json:"type"` // LSP MessageType: 1=Error 2=Warning 3=Info 4=Log
	Message string `json:"message"`
}

func (WindowMessageEvent) Type() string { return "window/message" }

// WindowMessages handles window/logMessage, window/showMessage,
// window/showMessageRequest, and window/showDocument, the server's only
// direct channels for user-facing text and document-reveal requests.
type WindowMessages struct {
	hub *events.Hub
}

func NewWindowMessages(hub *events.Hub) *WindowMessages {
	return &WindowMessages{hub: hub}
}

func (c *WindowMessages) Methods() []string {
	return []string{
		"window/logMessage",
		"window/showMessage",
		"window/showMessageRequest",
		"window/showDocument",
	}
}

func (c *WindowMessages) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "window", "showDocument", "support")
	b.Set(true, "window", "showMessage")
}

func (c *WindowMessages) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	return nil
}

func (c *WindowMessages) RegisterServerRequestHooks(t *DispatchTable) {
	t.RegisterNotification("window/logMessage", c.publishHandler("log"))
	t.RegisterNotification("window/showMessage", c.publishHandler("show"))

	t.RegisterRequest("window/showMessageRequest", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		var req struct {
			Type    int    `json:"type"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(params, &req)
		if c.hub != nil {
			c.hub.Publish(WindowMessageEvent{Kind: "show", Type: req.Type, Message: req.Message})
		}
		// No interactive action is taken on the client's behalf; answering
		// null tells the server the user dismissed the message.
		return nil, nil
	})

	t.RegisterRequest("window/showDocument", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		return map[string]bool{"success": true}, nil
	})
}

func (c *WindowMessages) publishHandler(kind string) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		var body struct {
			Type    int    `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(params, &body); err != nil {
			return nil, nil
		}
		if c.hub != nil {
			c.hub.Publish(WindowMessageEvent{Kind: kind, Type: body.Type, Message: body.Message})
		}
		return nil, nil
	}
}
