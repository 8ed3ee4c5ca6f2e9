package deskmate

import (
	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// MasterSystemPrompt instructs the master's reasoning backend to delegate
// topically-matching requests and to relay sub-agent answers unchanged.
// Routing is always the backend's tool-call decision; there is no keyword
// dispatch path.
const MasterSystemPrompt = `You are a master assistant that coordinates specialist agents.

CRITICAL RULES:
1. For ANY request involving tasks, todos, lists, or productivity - ALWAYS use the todo_agent tool.
2. For ANY request involving email, Gmail, or messages - ALWAYS use the gmail_agent tool.
3. Never try to handle those requests directly - always delegate, passing the complete user request unchanged.

RESPONSE HANDLING - EXTREMELY IMPORTANT:
- When a specialist tool returns a response, you MUST return that EXACT response.
- Do NOT add commentary, summaries, or your own interpretation.
- Do NOT say things like "I've displayed the tasks" or "Here are your emails".
- Simply return the specialist's response word-for-word.

For requests that match no specialist (general questions, calculations), respond directly.`

// MasterOptions configure the master agent.
type MasterOptions struct {
	Model        models.ChatModel
	SubAgents    []SubAgent
	SystemPrompt string
	MaxRounds    int
}

// NewMaster builds the routing agent: each sub-agent is registered as a
// tool, and an observer tracks which specialist handled the last request so
// follow-up turns carry that hint in the system instruction.
func NewMaster(opts MasterOptions) (*Agent, error) {
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = MasterSystemPrompt
	}

	tools := make([]Tool, 0, len(opts.SubAgents))
	names := make(map[string]bool, len(opts.SubAgents))
	for _, sub := range opts.SubAgents {
		tools = append(tools, NewSubAgentTool(sub))
		names[sub.Name()] = true
	}

	return New(Options{
		Name:         "master",
		Description:  "routes requests to specialist agents",
		Model:        opts.Model,
		SystemPrompt: prompt,
		Tools:        tools,
		MaxRounds:    opts.MaxRounds,
		Observer: func(state *ConversationState, call models.ToolCall, _ string) {
			if names[call.Name] {
				state.SetField(FieldActiveSubAgent, call.Name)
			}
		},
	})
}
