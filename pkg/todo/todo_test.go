package todo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/mcp"
	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// stubCaller serves canned payloads per tool name and records arguments.
type stubCaller struct {
	responses map[string]string
	terr      *deskmate.ToolError
	calls     []string
	args      []map[string]any
}

func (s *stubCaller) Invoke(_ context.Context, tool string, args map[string]any) (string, *deskmate.ToolError) {
	s.calls = append(s.calls, tool)
	s.args = append(s.args, args)
	if s.terr != nil {
		return "", s.terr
	}
	return s.responses[tool], nil
}

func findTool(t *testing.T, caller *stubCaller, name string) deskmate.Tool {
	t.Helper()
	for _, tool := range toolset(caller) {
		if tool.Spec().Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not in toolset", name)
	return nil
}

func TestToolsetCoversAllOperations(t *testing.T) {
	names := []string{
		"list_task_lists", "create_task_list", "delete_task_list",
		"list_tasks", "create_task", "update_task",
		"complete_task", "uncomplete_task", "delete_task",
	}

	set := toolset(&stubCaller{})
	if len(set) != len(names) {
		t.Fatalf("toolset size = %d, want %d", len(set), len(names))
	}
	for i, tool := range set {
		if tool.Spec().Name != names[i] {
			t.Fatalf("tool %d = %s, want %s", i, tool.Spec().Name, names[i])
		}
	}
}

func TestListTaskListsRendering(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		"list_task_lists": `{"taskLists":[
			{"name":"Groceries","id":"L1","isShared":false},
			{"name":"Team Errands","id":"L2","isShared":true}
		]}`,
	}}
	tool := findTool(t, caller, "list_task_lists")

	got := tool.Invoke(context.Background(), map[string]any{})
	want := "Found 2 task lists:\n1. Groceries (ID: L1)\n2. Team Errands (ID: L2) (Shared)\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestListTasksRendering(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		"list_tasks": `{"tasks":[
			{"id":"T1","title":"Buy milk","status":"notStarted","dueDate":"2026-08-25"},
			{"id":"T2","title":"Call mom","status":"completed","description":"` + strings.Repeat("d", 80) + `"}
		]}`,
	}}
	tool := findTool(t, caller, "list_tasks")

	got := tool.Invoke(context.Background(), map[string]any{"list_id": "L1"})
	if !strings.HasPrefix(got, "Found 2 tasks:\n") {
		t.Fatalf("header wrong:\n%s", got)
	}
	if !strings.Contains(got, "1. ⏳ Buy milk (Due: 2026-08-25) (ID: T1)\n") {
		t.Fatalf("pending task wrong:\n%s", got)
	}
	if !strings.Contains(got, "2. ✅ Call mom - "+strings.Repeat("d", 50)+"... (ID: T2)\n") {
		t.Fatalf("completed task wrong:\n%s", got)
	}
}

func TestListTasksEmpty(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{"list_tasks": `{"tasks":[]}`}}
	tool := findTool(t, caller, "list_tasks")

	got := tool.Invoke(context.Background(), map[string]any{"list_id": "L9"})
	if got != "No tasks found in this list (ID: L9)" {
		t.Fatalf("got %q", got)
	}
}

func TestCreateTaskRendering(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		"create_task": `{"success":true,"task":{"id":"T9","title":"buy milk","dueDate":"2026-08-25"}}`,
	}}
	tool := findTool(t, caller, "create_task")

	got := tool.Invoke(context.Background(), map[string]any{"list_id": "L1", "title": "buy milk"})
	want := "✅ Successfully created task 'buy milk' (Due: 2026-08-25) (ID: T9)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// Optional fields default to empty strings on the wire.
	sent := caller.args[0]
	if sent["description"] != "" || sent["due_date"] != "" {
		t.Fatalf("sent args = %v", sent)
	}
}

func TestUpdateTaskForwardsOnlyProvidedFields(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		"update_task": `{"success":true,"task":{"id":"T1","title":"Buy oat milk"}}`,
	}}
	tool := findTool(t, caller, "update_task")

	got := tool.Invoke(context.Background(), map[string]any{
		"list_id": "L1", "task_id": "T1", "title": "Buy oat milk",
	})
	if got != "✅ Successfully updated task 'Buy oat milk' (ID: T1)" {
		t.Fatalf("got %q", got)
	}

	sent := caller.args[0]
	if _, present := sent["description"]; present {
		t.Fatalf("description should not be forwarded: %v", sent)
	}
	if _, present := sent["status"]; present {
		t.Fatalf("status should not be forwarded: %v", sent)
	}
	if sent["title"] != "Buy oat milk" {
		t.Fatalf("sent args = %v", sent)
	}
}

func TestUpdateTaskEmptyDueDateClears(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		"update_task": `{"success":true,"task":{"id":"T1","title":"Buy milk"}}`,
	}}
	tool := findTool(t, caller, "update_task")

	tool.Invoke(context.Background(), map[string]any{
		"list_id": "L1", "task_id": "T1", "due_date": "",
	})
	if v, present := caller.args[0]["due_date"]; !present || v != "" {
		t.Fatalf("empty due_date must be forwarded to clear the date: %v", caller.args[0])
	}
}

func TestCompleteTaskFailure(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{"complete_task": `{"success":false}`}}
	tool := findTool(t, caller, "complete_task")

	got := tool.Invoke(context.Background(), map[string]any{"list_id": "L1", "task_id": "T1"})
	if got != "Failed to complete task" {
		t.Fatalf("got %q", got)
	}
}

// The agent resolves a list name to its id before acting, without ever
// asking the user for the id.
func TestAgentResolvesListNameThenCreatesTask(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		"list_task_lists": `{"taskLists":[{"name":"Groceries","id":"L1","isShared":false},{"name":"Work","id":"L2","isShared":false}]}`,
		"create_task":     `{"success":true,"task":{"id":"T9","title":"buy milk"}}`,
	}}
	model := models.NewScripted(
		models.AssistantTurn("", models.ToolCall{ID: "c1", Name: "list_task_lists", Args: map[string]any{}}),
		models.AssistantTurn("", models.ToolCall{ID: "c2", Name: "create_task", Args: map[string]any{
			"list_id": "L1", "title": "buy milk",
		}}),
		models.AssistantTurn("Added \"buy milk\" to your Groceries list."),
	)

	agent, err := New(Options{Model: model, Caller: caller})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	answer, err := agent.Chat(context.Background(), "add buy milk to my groceries list")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != `Added "buy milk" to your Groceries list.` {
		t.Fatalf("answer = %q", answer)
	}

	if len(caller.calls) != 2 || caller.calls[0] != "list_task_lists" || caller.calls[1] != "create_task" {
		t.Fatalf("call sequence = %v", caller.calls)
	}
	if caller.args[1]["list_id"] != "L1" {
		t.Fatalf("create_task args = %v", caller.args[1])
	}
	if id, _ := agent.State().Field(deskmate.FieldCurrentListID); id != "L1" {
		t.Fatalf("current list id = %q", id)
	}
}

func TestSystemPromptStampsDate(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	prompt := SystemPrompt(now)
	if !strings.Contains(prompt, "Current date: 2026-08-23") {
		t.Fatalf("prompt missing date:\n%s", prompt)
	}
	if !strings.Contains(prompt, "NEVER asks users for list IDs") {
		t.Fatalf("prompt missing core rule")
	}
}

// stubReader serves one resource snapshot.
type stubReader struct {
	content mcp.ResourceContent
	err     error
	uri     string
}

func (s *stubReader) ReadResource(_ context.Context, uri string) (mcp.ResourceContent, error) {
	s.uri = uri
	return s.content, s.err
}

func TestListsSnapshot(t *testing.T) {
	reader := &stubReader{content: mcp.ResourceContent{URI: "todo://lists", Text: `{"taskLists":[]}`}}

	text, err := ListsSnapshot(context.Background(), reader)
	if err != nil {
		t.Fatalf("ListsSnapshot: %v", err)
	}
	if text != `{"taskLists":[]}` {
		t.Fatalf("text = %q", text)
	}
	if reader.uri != "todo://lists" {
		t.Fatalf("uri = %q", reader.uri)
	}

	reader.err = errors.New("no such resource")
	if _, err := ListsSnapshot(context.Background(), reader); err == nil {
		t.Fatal("expected error")
	}
}
