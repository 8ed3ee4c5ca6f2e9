package models

import (
	"context"
	"testing"

	genai "github.com/google/generative-ai-go/genai"
)

func TestScriptedReplaysTurnsInOrder(t *testing.T) {
	model := NewScripted(
		AssistantTurn("first"),
		AssistantTurn("", ToolCall{ID: "c1", Name: "echo", Args: map[string]any{}}),
	)

	turn, err := model.Chat(context.Background(), ChatRequest{System: "sys"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if turn.Content != "first" || turn.Role != RoleAssistant {
		t.Fatalf("turn = %+v", turn)
	}

	turn, err = model.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].Name != "echo" {
		t.Fatalf("turn = %+v", turn)
	}

	if _, err := model.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Fatal("expected exhaustion error")
	}

	requests := model.Requests()
	if len(requests) != 3 || requests[0].System != "sys" {
		t.Fatalf("requests = %+v", requests)
	}
}

func TestLastUserText(t *testing.T) {
	history := []Turn{
		UserTurn("first"),
		AssistantTurn("reply"),
		UserTurn("second"),
		ToolTurn("c1", "echo", "result"),
	}
	if got := lastUserText(history); got != "second" {
		t.Fatalf("lastUserText = %q", got)
	}
	if got := lastUserText(nil); got != "" {
		t.Fatalf("lastUserText(nil) = %q", got)
	}
}

func TestParseCallArguments(t *testing.T) {
	args := parseCallArguments(`{"query":"is:unread","max_results":5}`)
	if args["query"] != "is:unread" || args["max_results"] != float64(5) {
		t.Fatalf("args = %v", args)
	}

	if args := parseCallArguments(""); len(args) != 0 {
		t.Fatalf("empty payload args = %v", args)
	}

	// Non-object payloads survive under the "input" key.
	args = parseCallArguments("plain text")
	if args["input"] != "plain text" {
		t.Fatalf("args = %v", args)
	}
	args = parseCallArguments("{broken json")
	if args["input"] != "{broken json" {
		t.Fatalf("args = %v", args)
	}
}

func TestToGeminiSchema(t *testing.T) {
	schema := toGeminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":       map[string]any{"type": "string", "description": "search query"},
			"max_results": map[string]any{"type": "integer"},
		},
		"required": []string{"query"},
	})

	if schema.Type != genai.TypeObject {
		t.Fatalf("type = %v", schema.Type)
	}
	if schema.Properties["query"].Type != genai.TypeString {
		t.Fatalf("query type = %v", schema.Properties["query"].Type)
	}
	if schema.Properties["query"].Description != "search query" {
		t.Fatalf("query description = %q", schema.Properties["query"].Description)
	}
	if schema.Properties["max_results"].Type != genai.TypeInteger {
		t.Fatalf("max_results type = %v", schema.Properties["max_results"].Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Fatalf("required = %v", schema.Required)
	}

	if empty := toGeminiSchema(nil); empty.Type != genai.TypeObject {
		t.Fatalf("empty schema type = %v", empty.Type)
	}
}

func TestGeminiContentsMergesToolRuns(t *testing.T) {
	history := []Turn{
		UserTurn("list my mail"),
		AssistantTurn("",
			ToolCall{ID: "c1", Name: "list_messages", Args: map[string]any{}},
			ToolCall{ID: "c2", Name: "list_labels", Args: map[string]any{}},
		),
		ToolTurn("c1", "list_messages", "Found 1 messages"),
		ToolTurn("c2", "list_labels", "No labels found."),
	}

	contents := geminiContents(history)
	if len(contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(contents))
	}
	if contents[1].Role != "model" || len(contents[1].Parts) != 2 {
		t.Fatalf("assistant content = %+v", contents[1])
	}

	// Both results collapse into one user-role function-response content.
	last := contents[2]
	if last.Role != "user" || len(last.Parts) != 2 {
		t.Fatalf("result content = %+v", last)
	}
	first, ok := last.Parts[0].(genai.FunctionResponse)
	if !ok || first.Name != "list_messages" {
		t.Fatalf("first response = %+v", last.Parts[0])
	}
	if first.Response["content"] != "Found 1 messages" {
		t.Fatalf("response payload = %v", first.Response)
	}
}

func TestOpenAIMessageRoles(t *testing.T) {
	toolMsg := openaiMessage(ToolTurn("c7", "list_tasks", "Found 2 tasks"))
	if toolMsg.Role != "tool" || toolMsg.ToolCallID != "c7" || toolMsg.Name != "list_tasks" {
		t.Fatalf("tool message = %+v", toolMsg)
	}

	assistantMsg := openaiMessage(AssistantTurn("", ToolCall{
		ID:   "c7",
		Name: "list_tasks",
		Args: map[string]any{"list_id": "L1"},
	}))
	if len(assistantMsg.ToolCalls) != 1 {
		t.Fatalf("assistant message = %+v", assistantMsg)
	}
	if assistantMsg.ToolCalls[0].Function.Arguments != `{"list_id":"L1"}` {
		t.Fatalf("arguments = %q", assistantMsg.ToolCalls[0].Function.Arguments)
	}
}
