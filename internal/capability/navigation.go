package capability

// Navigation capabilities each expose one jump-to-X request and require the
// matching server-capability flag. They embed simpleRequest rather than
// repeating CheckServerCapabilities; apart from References, none
// contributes a ClientCapabilities fragment.

// Definition declares textDocument/definition.
type Definition struct{ simpleRequest }

func NewDefinition() *Definition {
	return &Definition{simpleRequest{method: "textDocument/definition", serverFlag: []string{"definitionProvider"}}}
}

// GoToDeclaration declares textDocument/declaration.
type GoToDeclaration struct{ simpleRequest }

func NewDeclaration() *GoToDeclaration {
	return &GoToDeclaration{simpleRequest{method: "textDocument/declaration", serverFlag: []string{"declarationProvider"}}}
}

// TypeDefinition declares textDocument/typeDefinition.
type TypeDefinition struct{ simpleRequest }

func NewTypeDefinition() *TypeDefinition {
	return &TypeDefinition{simpleRequest{method: "textDocument/typeDefinition", serverFlag: []string{"typeDefinitionProvider"}}}
}

// Implementation declares textDocument/implementation.
type Implementation struct{ simpleRequest }

func NewImplementation() *Implementation {
	return &Implementation{simpleRequest{method: "textDocument/implementation", serverFlag: []string{"implementationProvider"}}}
}

// References declares textDocument/references and contributes the
// textDocument.references.dynamicRegistration client capability fragment.
type References struct{ simpleRequest }

func NewReferences() *References {
	return &References{simpleRequest{method: "textDocument/references", serverFlag: []string{"referencesProvider"}}}
}

func (c *References) ContributeClientCapabilities(b *ClientCapabilitiesBuilder) {
	b.Set(true, "textDocument", "references", "dynamicRegistration")
}
