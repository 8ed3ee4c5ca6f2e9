// Package tools contains the Tool Invoker: the single component that talks
// to a remote MCP tool-serving endpoint on behalf of an agent's tool
// adapters, converting every failure mode into a ToolError value.
package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/mcp"
	"github.com/tidwall/gjson"
)

// Caller is the seam tool adapters depend on; *Invoker implements it and
// tests substitute stubs.
type Caller interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (string, *deskmate.ToolError)
}

// Connector establishes a session with the tool-serving endpoint. The
// Invoker calls it lazily, at most once per (re)connection.
type Connector func(ctx context.Context) (*mcp.Client, error)

// Invoker owns one connection to one MCP endpoint. Each agent constructs
// its own Invoker; connections are never shared across agents. Calls are
// serialized, so reconnection cannot race.
type Invoker struct {
	endpoint string
	connect  Connector

	mu     sync.Mutex
	client *mcp.Client
}

// NewInvoker creates an invoker for the endpoint described by the connector.
// The endpoint string is used only in diagnostics.
func NewInvoker(endpoint string, connect Connector) *Invoker {
	return &Invoker{endpoint: endpoint, connect: connect}
}

// EnsureConnected establishes the session if absent. It is idempotent:
// when already connected it performs zero additional connection attempts.
func (v *Invoker) EnsureConnected(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ensureConnectedLocked(ctx)
}

func (v *Invoker) ensureConnectedLocked(ctx context.Context) error {
	if v.client != nil {
		return nil
	}
	client, err := v.connect(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", v.endpoint, err)
	}
	v.client = client
	return nil
}

// Invoke sends a named call to the endpoint and returns the raw JSON object
// payload from the reply's first content item. All failure modes come back
// as ToolError values, never as faults:
//
//   - connection or RPC failure        -> Transport
//   - reply with zero content items    -> EmptyResult
//   - payload not a JSON object        -> MalformedResult
//   - payload carrying an "error" key  -> Remote
func (v *Invoker) Invoke(ctx context.Context, tool string, args map[string]any) (string, *deskmate.ToolError) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureConnectedLocked(ctx); err != nil {
		return "", deskmate.NewToolError(deskmate.ToolErrTransport, tool, err.Error())
	}

	result, err := v.client.CallTool(ctx, tool, args)
	if err != nil {
		// The session may be gone; drop it so the next call reconnects.
		v.client = nil
		return "", deskmate.NewToolError(deskmate.ToolErrTransport, tool, err.Error())
	}

	raw, ok := result.FirstText()
	if !ok {
		return "", deskmate.NewToolError(deskmate.ToolErrEmptyResult, tool,
			"no result received from the tool server")
	}
	if result.IsError {
		message := strings.TrimSpace(result.Text())
		if message == "" {
			message = "tool reported an error"
		}
		return "", deskmate.NewToolError(deskmate.ToolErrRemote, tool, message)
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return "", deskmate.NewToolError(deskmate.ToolErrMalformedResult, tool,
			"tool reply is not a structured object")
	}
	if errField := parsed.Get("error"); errField.Exists() {
		return "", deskmate.NewToolError(deskmate.ToolErrRemote, tool, errField.String())
	}

	return raw, nil
}

// ListResources lists the endpoint's read-only resource snapshots.
func (v *Invoker) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensureConnectedLocked(ctx); err != nil {
		return nil, err
	}
	return v.client.ListResources(ctx)
}

// ReadResource reads one resource snapshot by URI.
func (v *Invoker) ReadResource(ctx context.Context, uri string) (mcp.ResourceContent, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensureConnectedLocked(ctx); err != nil {
		return mcp.ResourceContent{}, err
	}
	return v.client.ReadResource(ctx, uri)
}

// Close tears the session down. Safe on every exit path, including before
// the first connection.
func (v *Invoker) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.client == nil {
		return nil
	}
	err := v.client.Close()
	v.client = nil
	return err
}

var _ Caller = (*Invoker)(nil)
