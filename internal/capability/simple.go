package capability

// simpleRequest is the shared shape behind every capability that is just
// "one client-to-server request method, gated on one boolean (or
// boolean-or-object) server capability flag, with no interesting client
// capability fragment of its own". Declaration is still satisfied per
// concrete capability below; this only avoids repeating the same three
// lines of Methods/CheckServerCapabilities across a dozen files.
type simpleRequest struct {
	method     string
	serverFlag []string
}

func (s *simpleRequest) Methods() []string { return []string{s.method} }

func (s *simpleRequest) CheckServerCapabilities(sc ServerCapabilities, info ServerInfo) error {
	if !sc.Has(s.serverFlag...) {
		return &CapabilityAssertionError{Capability: s.method, ServerName: info.Name}
	}
	return nil
}

func (s *simpleRequest) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {}
