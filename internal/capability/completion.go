package capability

// Completion declares textDocument/completion. Whether the server also
// offers completionItem/resolve is reported by SupportsResolve; that
// method is not listed in Methods.
type Completion struct {
	simpleRequest
	TriggerCharacters []string
}

func NewCompletion(triggerCharacters ...string) *Completion {
	return &Completion{
		simpleRequest:     simpleRequest{method: "textDocument/completion", serverFlag: []string{"completionProvider"}},
		TriggerCharacters: triggerCharacters,
	}
}

func (c *Completion) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "textDocument", "completion", "completionItem", "snippetSupport")
	b.Set([]string{"markdown", "plaintext"}, "textDocument", "completion", "completionItem", "documentationFormat")
}

// SupportsResolve reports whether the server offers completionItem/resolve,
// checked lazily since it's optional even when completionProvider is set.
func (c *Completion) SupportsResolve(sc ServerCapabilities) bool {
	return sc.Has("completionProvider", "resolveProvider")
}

// SignatureHelp declares textDocument/signatureHelp.
type SignatureHelp struct{ simpleRequest }

func NewSignatureHelp() *SignatureHelp {
	return &SignatureHelp{simpleRequest{method: "textDocument/signatureHelp", serverFlag: []string{"signatureHelpProvider"}}}
}
