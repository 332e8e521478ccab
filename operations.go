package lspclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brianly1003/lspclient/internal/rpc/message"
	"github.com/brianly1003/lspclient/internal/supervisor"
)

// Position is a zero-based line/character position, per LSP's
// `Position` type (UTF-16 code units for character, matching the
// protocol default).
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// TextDocumentIdentifier names an open document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentPositionParams is the common shape shared by hover,
// definition, references, and friends.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if c.State() != supervisor.Ready {
		return fmt.Errorf("lspclient: %s called from state %s, not Ready", method, c.State())
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultCallTimeout)
	defer cancel()

	resp, err := c.session.Call(ctx, method, params)
	if err != nil {
		return fmt.Errorf("lspclient: %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("lspclient: %s rejected: %w", method, message.NewRpcError(resp.Error))
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("lspclient: decoding %s result: %w", method, err)
	}
	return nil
}

// withOpenFile opens path for the duration of fn, matching the Python
// original's `open_files` async context manager: the file is opened (read
// from disk and, if not already open elsewhere, announced to the server via
// didOpen) before fn runs and released once fn returns, regardless of
// outcome. fn receives the file's derived `file://` URI to put in its
// request params.
func (c *Client) withOpenFile(ctx context.Context, path string, fn func(uri string) error) error {
	uris, release, err := c.files.OpenFiles(ctx, c.class.LanguageID(), path)
	if err != nil {
		return fmt.Errorf("lspclient: opening %q: %w", path, err)
	}
	defer release()
	return fn(uris[0])
}

// Hover sends textDocument/hover and decodes the raw Hover result.
func (c *Client) Hover(ctx context.Context, path string, pos Position) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/hover", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri}, Position: pos,
		}, &result)
	})
	return result, err
}

// Definition sends textDocument/definition.
func (c *Client) Definition(ctx context.Context, path string, pos Position) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/definition", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri}, Position: pos,
		}, &result)
	})
	return result, err
}

// TypeDefinition sends textDocument/typeDefinition.
func (c *Client) TypeDefinition(ctx context.Context, path string, pos Position) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/typeDefinition", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri}, Position: pos,
		}, &result)
	})
	return result, err
}

// Implementation sends textDocument/implementation.
func (c *Client) Implementation(ctx context.Context, path string, pos Position) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/implementation", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri}, Position: pos,
		}, &result)
	})
	return result, err
}

// References sends textDocument/references, optionally including the
// declaration itself.
func (c *Client) References(ctx context.Context, path string, pos Position, includeDeclaration bool) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		params := map[string]interface{}{
			"textDocument": TextDocumentIdentifier{URI: uri},
			"position":     pos,
			"context":      map[string]interface{}{"includeDeclaration": includeDeclaration},
		}
		return c.call(ctx, "textDocument/references", params, &result)
	})
	return result, err
}

// DocumentSymbol sends textDocument/documentSymbol.
func (c *Client) DocumentSymbol(ctx context.Context, path string) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/documentSymbol", map[string]interface{}{
			"textDocument": TextDocumentIdentifier{URI: uri},
		}, &result)
	})
	return result, err
}

// WorkspaceSymbol sends workspace/symbol with the given query string. It
// names no file, so it opens no document scope.
func (c *Client) WorkspaceSymbol(ctx context.Context, query string) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.call(ctx, "workspace/symbol", map[string]interface{}{"query": query}, &result)
	return result, err
}

// Completion sends textDocument/completion.
func (c *Client) Completion(ctx context.Context, path string, pos Position) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/completion", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri}, Position: pos,
		}, &result)
	})
	return result, err
}

// SignatureHelp sends textDocument/signatureHelp.
func (c *Client) SignatureHelp(ctx context.Context, path string, pos Position) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/signatureHelp", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri}, Position: pos,
		}, &result)
	})
	return result, err
}

// CallHierarchyPrepare sends textDocument/prepareCallHierarchy, the entry
// point into the call hierarchy methods.
func (c *Client) CallHierarchyPrepare(ctx context.Context, path string, pos Position) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/prepareCallHierarchy", TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri}, Position: pos,
		}, &result)
	})
	return result, err
}

// IncomingCalls sends callHierarchy/incomingCalls for a prior prepare
// result item. The item already names an open document, so no new scope
// is entered here.
func (c *Client) IncomingCalls(ctx context.Context, item json.RawMessage) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.call(ctx, "callHierarchy/incomingCalls", map[string]interface{}{"item": item}, &result)
	return result, err
}

// OutgoingCalls sends callHierarchy/outgoingCalls for a prior prepare
// result item. The item already names an open document, so no new scope
// is entered here.
func (c *Client) OutgoingCalls(ctx context.Context, item json.RawMessage) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.call(ctx, "callHierarchy/outgoingCalls", map[string]interface{}{"item": item}, &result)
	return result, err
}

// InlayHints sends textDocument/inlayHint over the given range.
func (c *Client) InlayHints(ctx context.Context, path string, startLine, endLine int) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		params := map[string]interface{}{
			"textDocument": TextDocumentIdentifier{URI: uri},
			"range": map[string]interface{}{
				"start": Position{Line: startLine, Character: 0},
				"end":   Position{Line: endLine, Character: 0},
			},
		}
		return c.call(ctx, "textDocument/inlayHint", params, &result)
	})
	return result, err
}

// PullDiagnostics sends textDocument/diagnostic for servers that declared
// diagnosticProvider instead of push diagnostics.
func (c *Client) PullDiagnostics(ctx context.Context, path string) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.withOpenFile(ctx, path, func(uri string) error {
		return c.call(ctx, "textDocument/diagnostic", map[string]interface{}{
			"textDocument": TextDocumentIdentifier{URI: uri},
		}, &result)
	})
	return result, err
}

// OpenFiles opens paths for the duration of the returned release scope,
// reading each from disk, sending textDocument/didOpen for any not already
// open elsewhere, and sending textDocument/didClose once every scope
// holding them has released. It returns the derived `file://` URI for each
// path, in the same order.
func (c *Client) OpenFiles(ctx context.Context, paths ...string) ([]string, func() error, error) {
	return c.files.OpenFiles(ctx, c.class.LanguageID(), paths...)
}

// DidChange sends textDocument/didChange with the document's full new
// content (full-document sync; the textsync capability's SyncKind is not
// consulted) and bumps the buffer's tracked version.
func (c *Client) DidChange(ctx context.Context, uri, content string) error {
	version, open := c.files.Version(uri)
	if !open {
		return fmt.Errorf("lspclient: DidChange on %q which is not open", uri)
	}
	version++
	c.files.UpdateContent(uri, content)

	ctx, cancel := context.WithTimeout(ctx, DefaultCallTimeout)
	defer cancel()
	return c.session.Notify(ctx, "textDocument/didChange", map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": uri, "version": version},
		"contentChanges": []map[string]interface{}{{"text": content}},
	})
}
