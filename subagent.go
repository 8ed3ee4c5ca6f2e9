package deskmate

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// SubAgent is the only surface the master agent depends on: raw text in,
// raw text out. The sub-agent's tool set and internal wiring stay invisible,
// and it retains its own conversation state between delegations.
type SubAgent interface {
	Name() string
	Description() string
	Chat(ctx context.Context, userInput string) (string, error)
}

// SubAgentTool exposes a SubAgent as a tool so the master's reasoning
// backend can delegate to it with an ordinary tool call.
type SubAgentTool struct {
	sub SubAgent
}

// NewSubAgentTool wraps a sub-agent.
func NewSubAgentTool(sub SubAgent) *SubAgentTool {
	return &SubAgentTool{sub: sub}
}

func (t *SubAgentTool) Spec() models.ToolSpec {
	return models.ToolSpec{
		Name:        t.sub.Name(),
		Description: t.sub.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_request": map[string]any{
					"type":        "string",
					"description": "The complete user request, passed through unchanged.",
				},
			},
			"required": []string{"user_request"},
		},
	}
}

// Invoke forwards the raw request text into the sub-agent's own loop and
// returns its final answer verbatim. Delegation failures are narrated, not
// raised, so the master's round always completes.
func (t *SubAgentTool) Invoke(ctx context.Context, args map[string]any) string {
	request, _ := args["user_request"].(string)
	if strings.TrimSpace(request) == "" {
		// Some backends put the payload under a generic key.
		request, _ = args["input"].(string)
	}
	if strings.TrimSpace(request) == "" {
		terr := NewToolError(ToolErrRemote, t.sub.Name(), "missing 'user_request' argument")
		return terr.Narrate()
	}

	answer, err := t.sub.Chat(ctx, request)
	if err != nil {
		terr := NewToolError(ToolErrRemote, t.sub.Name(), fmt.Sprintf("sub-agent failed: %v", err))
		return terr.Narrate()
	}
	return answer
}
