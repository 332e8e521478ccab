package capability

// DocumentSymbol declares textDocument/documentSymbol and advertises
// support for the hierarchical symbol response shape most modern servers
// use.
type DocumentSymbol struct{ simpleRequest }

func NewDocumentSymbol() *DocumentSymbol {
	return &DocumentSymbol{simpleRequest{method: "textDocument/documentSymbol", serverFlag: []string{"documentSymbolProvider"}}}
}

func (c *DocumentSymbol) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "textDocument", "documentSymbol", "hierarchicalDocumentSymbolSupport")
}

// WorkspaceSymbol declares workspace/symbol.
type WorkspaceSymbol struct{ simpleRequest }

func NewWorkspaceSymbol() *WorkspaceSymbol {
	return &WorkspaceSymbol{simpleRequest{method: "workspace/symbol", serverFlag: []string{"workspaceSymbolProvider"}}}
}
