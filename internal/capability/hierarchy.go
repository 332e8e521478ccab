package capability

// CallHierarchy declares textDocument/prepareCallHierarchy plus the two
// follow-up requests (incoming/outgoing calls) that share the same server
// capability flag.
type CallHierarchy struct{ simpleRequest }

func NewCallHierarchy() *CallHierarchy {
	return &CallHierarchy{simpleRequest{method: "textDocument/prepareCallHierarchy", serverFlag: []string{"callHierarchyProvider"}}}
}

func (c *CallHierarchy) Methods() []string {
	return []string{
		"textDocument/prepareCallHierarchy",
		"callHierarchy/incomingCalls",
		"callHierarchy/outgoingCalls",
	}
}

// TypeHierarchy declares textDocument/prepareTypeHierarchy plus supertypes
// and subtypes.
type TypeHierarchy struct{ simpleRequest }

func NewTypeHierarchy() *TypeHierarchy {
	return &TypeHierarchy{simpleRequest{method: "textDocument/prepareTypeHierarchy", serverFlag: []string{"typeHierarchyProvider"}}}
}

func (c *TypeHierarchy) Methods() []string {
	return []string{
		"textDocument/prepareTypeHierarchy",
		"typeHierarchy/supertypes",
		"typeHierarchy/subtypes",
	}
}
