package capability

import (
	"context"
	"encoding/json"

	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// WorkspaceFolderInfo is the wire shape of a single LSP WorkspaceFolder.
type WorkspaceFolderInfo struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// WorkspaceFoldersProvider supplies the current folder list lazily, so the
// capability always answers with up-to-date state rather than a snapshot
// taken at registration time.
type WorkspaceFoldersProvider func() []WorkspaceFolderInfo

// WorkspaceFolders answers the server's workspace/workspaceFolders request
// and declares the corresponding client capability so the server knows it
// may ask.
type WorkspaceFolders struct {
	folders WorkspaceFoldersProvider
}

func NewWorkspaceFolders(folders WorkspaceFoldersProvider) *WorkspaceFolders {
	return &WorkspaceFolders{folders: folders}
}

func (c *WorkspaceFolders) Methods() []string { return []string{"workspace/workspaceFolders"} }

func (c *WorkspaceFolders) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "workspace", "workspaceFolders")
}

func (c *WorkspaceFolders) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	return nil
}

func (c *WorkspaceFolders) RegisterServerRequestHooks(t *DispatchTable) {
	t.RegisterRequest("workspace/workspaceFolders", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		if c.folders == nil {
			return []WorkspaceFolderInfo{}, nil
		}
		return c.folders(), nil
	})
}

// ConfigurationItem mirrors one entry of a workspace/configuration request.
type ConfigurationItem struct {
	ScopeURI string `json:"scopeUri,omitempty"`
	Section  string `json:"section,omitempty"`
}

// ConfigurationProvider resolves a single configuration section to a
// value, returning nil when the client has no opinion on that section.
type ConfigurationProvider func(item ConfigurationItem) interface{}

// Configuration answers workspace/configuration requests and declares
// didChangeConfiguration client-to-server notification support.
type Configuration struct {
	provider ConfigurationProvider
}

func NewConfiguration(provider ConfigurationProvider) *Configuration {
	return &Configuration{provider: provider}
}

func (c *Configuration) Methods() []string {
	return []string{"workspace/configuration", "workspace/didChangeConfiguration"}
}

func (c *Configuration) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "workspace", "configuration")
	b.Set(true, "workspace", "didChangeConfiguration", "dynamicRegistration")
}

func (c *Configuration) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	return nil
}

func (c *Configuration) RegisterServerRequestHooks(t *DispatchTable) {
	t.RegisterRequest("workspace/configuration", func(ctx context.Context, params json.RawMessage) (interface{}, *message.Error) {
		var req struct {
			Items []ConfigurationItem `json:"items"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, message.ErrInvalidParams(err.Error())
		}

		out := make([]interface{}, len(req.Items))
		for i, item := range req.Items {
			if c.provider != nil {
				out[i] = c.provider(item)
			}
		}
		return out, nil
	})
}
