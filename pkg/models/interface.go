// Package models defines the reasoning-backend contract shared by every
// agent: the turn types that make up a conversation history, the tool
// descriptors advertised to the backend, and the ChatModel interface that
// concrete providers (Gemini, OpenAI, Anthropic, scripted) implement.
package models

import (
	"context"
	"strings"
)

// Turn roles. History is replayed to the backend verbatim, so the role
// strings double as the wire vocabulary for every provider adapter.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a single tool invocation requested by the reasoning backend.
// ID correlates the eventual result turn back to this request.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Turn is one entry in a conversation history.
//
// A user turn carries Content only. An assistant turn carries Content plus
// zero or more requested ToolCalls, in the order the backend produced them.
// A tool turn carries the rendered result text for exactly one call,
// identified by CallID and ToolName.
type Turn struct {
	Role      string
	Content   string
	ToolCalls []ToolCall
	CallID    string
	ToolName  string
}

// UserTurn builds a user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text}
}

// AssistantTurn builds an assistant turn with optional tool-call requests.
func AssistantTurn(text string, calls ...ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolTurn builds a tool-result turn for the call identified by callID.
func ToolTurn(callID, toolName, content string) Turn {
	return Turn{Role: RoleTool, CallID: callID, ToolName: toolName, Content: content}
}

// ToolSpec describes one tool to the reasoning backend. Parameters is a
// JSON-schema object ({"type":"object","properties":...,"required":...});
// provider adapters translate it into their SDK's native schema type.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is a full reasoning pass: system instruction, the complete
// history so far, and the tools the backend may request.
type ChatRequest struct {
	System  string
	History []Turn
	Tools   []ToolSpec
}

// ChatModel is the reasoning backend. Chat returns exactly one assistant
// turn; if it carries tool calls the caller executes them and comes back
// with the results appended to History.
type ChatModel interface {
	Chat(ctx context.Context, req ChatRequest) (Turn, error)
}

// lastUserText returns the content of the most recent user turn. Provider
// adapters use it when a backend needs a non-empty trailing user message.
func lastUserText(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser && strings.TrimSpace(history[i].Content) != "" {
			return history[i].Content
		}
	}
	return ""
}
