package lspclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/brianly1003/lspclient/internal/capability"
	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// handshake runs the initialize/initialized exchange: sends the composed
// ClientCapabilities and every workspace folder, decodes the server's
// InitializeResult, asserts every composed capability's requirement, and
// confirms compatibility with the ClientClass before sending initialized.
func (c *Client) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultCallTimeout)
	defer cancel()

	params := map[string]interface{}{
		"processId":         nil,
		"clientInfo":        map[string]interface{}{"name": "lspclient"},
		"capabilities":       c.registry.BuildClientCapabilities(),
		"workspaceFolders":   c.listWorkspaceFolders(),
		"initializationOptions": c.class.CreateInitializationOptions(),
	}
	if root, ok := c.workspace.SingleRoot(); ok {
		params["rootUri"] = root.URI
		params["rootPath"] = root.Path
	}

	resp, err := c.session.CallWithID(ctx, message.InitializeID(), "initialize", params)
	if err != nil {
		return fmt.Errorf("lspclient: initialize: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("lspclient: initialize rejected: %s", resp.Error.Error())
	}

	var result struct {
		Capabilities json.RawMessage     `json:"capabilities"`
		ServerInfo   *rawServerInfo      `json:"serverInfo"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("lspclient: decoding initialize result: %w", err)
	}

	caps, err := capability.ParseServerCapabilities(result.Capabilities)
	if err != nil {
		return fmt.Errorf("lspclient: decoding server capabilities: %w", err)
	}

	info := capability.ServerInfo{}
	if result.ServerInfo != nil {
		info.Name = result.ServerInfo.Name
		info.Version = result.ServerInfo.Version
	}

	if err := c.registry.CheckServerCapabilities(caps, info); err != nil {
		return err
	}
	if err := c.class.CheckServerCompatibility(info); err != nil {
		return err
	}

	c.mu.Lock()
	c.serverInfo = info
	c.serverCaps = caps
	c.mu.Unlock()

	if err := c.session.Notify(ctx, "initialized", map[string]interface{}{}); err != nil {
		return fmt.Errorf("lspclient: initialized: %w", err)
	}

	return nil
}

type rawServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func pathToFileURI(root, relPath string) string {
	abs := filepath.Join(root, relPath)
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
