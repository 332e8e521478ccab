package capability

// TextSync is the core-mandated capability: every server needs
// textDocument/didOpen, didChange, and didClose regardless of what else it
// supports, so unlike the other capabilities it asserts nothing about
// ServerCapabilities — there is no server flag to check.
type TextSync struct {
	// SyncKind records full-document (1) vs incremental (2) sync; full is
	// the conservative default every server accepts. Client.DidChange
	// always sends the full document and does not read this field.
	SyncKind int
}

// NewTextSync returns the TextSync capability with full-document sync.
func NewTextSync() *TextSync {
	return &TextSync{SyncKind: 1}
}

func (c *TextSync) Methods() []string {
	return []string{"textDocument/didOpen", "textDocument/didChange", "textDocument/didClose"}
}

func (c *TextSync) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "textDocument", "synchronization", "didSave")
	b.Set(true, "textDocument", "synchronization", "willSave")
	b.Set(false, "textDocument", "synchronization", "willSaveWaitUntil")
}

func (c *TextSync) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	return nil
}
