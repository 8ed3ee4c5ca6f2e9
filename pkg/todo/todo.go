// Package todo builds the Microsoft To-Do specialist agent: nine tool
// adapters over a remote task endpoint and a prompt that makes the agent
// resolve list names itself instead of ever asking the user for an ID.
package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/mcp"
	"github.com/Protocol-Lattice/deskmate/pkg/models"
	"github.com/Protocol-Lattice/deskmate/pkg/tools"
)

const promptTemplate = `You are a Microsoft To-Do assistant that NEVER asks users for list IDs. You always find lists automatically.

CORE PRINCIPLE: Be smart about list discovery - users should never need to provide IDs or see technical details.

SMART LIST HANDLING WORKFLOW:
1. When user mentions a list name, IMMEDIATELY use list_task_lists to get all lists
2. Search for matches (case-insensitive, partial matches OK)
3. Use the found list for operations
4. If multiple matches, pick the best one or show options
5. If no match, suggest what's available

EXAMPLES OF REQUESTS TO HANDLE AUTOMATICALLY:
- "show my work list": find the list with "work" in its name, show its tasks
- "add task to project list": find the "project" list, add the task
- "create task in shopping list": find the "shopping" list, add the task

NEVER DO THIS:
- "I need the list ID to show tasks"
- "Can you provide the ID for your work list?"

ALWAYS DO THIS:
- Automatically search for lists by name
- Handle requests seamlessly without asking for IDs
- Be conversational and helpful

Guidelines:
- Be conversational and natural
- Handle errors gracefully
- Confirm successful operations
- Remember context when possible

Current date: %s`

// SystemPrompt returns the To-Do prompt stamped with the given date. The
// date lets the backend resolve phrases like "tomorrow" into due dates.
func SystemPrompt(now time.Time) string {
	return fmt.Sprintf(promptTemplate, now.Format("2006-01-02"))
}

// Options configure the To-Do agent.
type Options struct {
	Model     models.ChatModel
	Caller    tools.Caller
	MaxRounds int

	// Now overrides the clock used to stamp the system prompt. Nil means
	// time.Now.
	Now func() time.Time

	Closers []func() error
}

// New assembles the To-Do agent.
func New(opts Options) (*deskmate.Agent, error) {
	if opts.Caller == nil {
		return nil, errors.New("todo agent requires a tool caller")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return deskmate.New(deskmate.Options{
		Name:         "todo_agent",
		Description:  "Handles task management: creating, listing, updating, and completing Microsoft To-Do tasks and lists.",
		Model:        opts.Model,
		SystemPrompt: SystemPrompt(now()),
		Tools:        toolset(opts.Caller),
		Observer:     observe,
		MaxRounds:    opts.MaxRounds,
		Closers:      opts.Closers,
	})
}

// observe tracks the list the conversation is working in.
func observe(state *deskmate.ConversationState, call models.ToolCall, _ string) {
	if id, ok := call.Args["list_id"].(string); ok && id != "" {
		state.SetField(deskmate.FieldCurrentListID, id)
	}
}

// ResourceReader is the subset of the Invoker used for resource snapshots.
type ResourceReader interface {
	ReadResource(ctx context.Context, uri string) (mcp.ResourceContent, error)
}

// ListsSnapshot reads the endpoint's read-only snapshot of all task lists.
// Useful for startup diagnostics and for seeding name resolution without a
// tool round-trip.
func ListsSnapshot(ctx context.Context, reader ResourceReader) (string, error) {
	content, err := reader.ReadResource(ctx, "todo://lists")
	if err != nil {
		return "", fmt.Errorf("read task list snapshot: %w", err)
	}
	return content.Text, nil
}
