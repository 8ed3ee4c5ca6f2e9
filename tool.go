// Package deskmate is a conversational multi-agent runtime: a master agent
// routes user requests to specialist sub-agents, each of which drives its
// own reasoning/tool-execution loop against a remote MCP tool server.
package deskmate

import (
	"context"

	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// Tool wraps one operation behind a name, a description, and a parameter
// schema the reasoning backend can bind tool calls to.
//
// Invoke always returns text: adapters render successes through their fixed
// templates and narrate failures ("Error <operation>: <message>") instead of
// raising, so the executing loop never needs to recover from an adapter.
type Tool interface {
	Spec() models.ToolSpec
	Invoke(ctx context.Context, args map[string]any) string
}
