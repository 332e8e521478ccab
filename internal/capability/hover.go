package capability

// Hover declares textDocument/hover support and requires the server to
// advertise hoverProvider.
type Hover struct{}

func NewHover() *Hover { return &Hover{} }

func (c *Hover) Methods() []string { return []string{"textDocument/hover"} }

func (c *Hover) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set([]string{"markdown", "plaintext"}, "textDocument", "hover", "contentFormat")
}

func (c *Hover) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	if !sc.Has("hoverProvider") {
		return &CapabilityAssertionError{Capability: "hoverProvider", ServerName: info.Name}
	}
	return nil
}
