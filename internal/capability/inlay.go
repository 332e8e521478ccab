package capability

// InlayHint declares textDocument/inlayHint.
type InlayHint struct{ simpleRequest }

func NewInlayHint() *InlayHint {
	return &InlayHint{simpleRequest{method: "textDocument/inlayHint", serverFlag: []string{"inlayHintProvider"}}}
}

// InlineValue declares textDocument/inlineValue, used by debugger
// integrations to show values inline while stepping.
type InlineValue struct{ simpleRequest }

func NewInlineValue() *InlineValue {
	return &InlineValue{simpleRequest{method: "textDocument/inlineValue", serverFlag: []string{"inlineValueProvider"}}}
}
