package tools

import (
	"context"
	"fmt"

	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// MCPTool adapts one remote MCP operation to the agent tool contract: it
// forwards arguments through the Invoker, branches on ToolError vs success,
// and renders the success payload with a fixed, deterministic template.
type MCPTool struct {
	caller  Caller
	spec    models.ToolSpec
	opName  string
	prepare func(args map[string]any) map[string]any
	render  func(args map[string]any, raw string) string
}

// MCPToolConfig describes one adapter.
type MCPToolConfig struct {
	// Spec is the descriptor advertised to the reasoning backend.
	Spec models.ToolSpec
	// OpName is the human phrase used in narrated errors, e.g. "listing
	// messages" -> "Error listing messages: <message>".
	OpName string
	// Prepare normalizes backend-supplied arguments before the remote call.
	// Optional; defaults to pass-through.
	Prepare func(args map[string]any) map[string]any
	// Render turns the raw JSON payload into human-readable text. It also
	// receives the prepared arguments so templates can echo them back.
	Render func(args map[string]any, raw string) string
}

// NewMCPTool builds the adapter. Render is required: every adapter must
// produce deterministic text independent of the reasoning backend.
func NewMCPTool(caller Caller, cfg MCPToolConfig) *MCPTool {
	opName := cfg.OpName
	if opName == "" {
		opName = cfg.Spec.Name
	}
	prepare := cfg.Prepare
	if prepare == nil {
		prepare = func(args map[string]any) map[string]any { return args }
	}
	return &MCPTool{
		caller:  caller,
		spec:    cfg.Spec,
		opName:  opName,
		prepare: prepare,
		render:  cfg.Render,
	}
}

func (t *MCPTool) Spec() models.ToolSpec {
	return t.spec
}

// Invoke never raises: every code path, including every ToolError case,
// returns text for the conversation.
func (t *MCPTool) Invoke(ctx context.Context, args map[string]any) string {
	prepared := t.prepare(args)
	raw, terr := t.caller.Invoke(ctx, t.spec.Name, prepared)
	if terr != nil {
		return fmt.Sprintf("Error %s: %s", t.opName, terr.Message)
	}
	return t.render(prepared, raw)
}
