// Package gmail builds the Gmail specialist agent: ten tool adapters over a
// remote Gmail tool endpoint, a fixed system prompt, and context tracking so
// follow-up turns like "mark that one as read" resolve against the message
// the conversation is focused on.
package gmail

import (
	"errors"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/models"
	"github.com/Protocol-Lattice/deskmate/pkg/tools"
)

// SystemPrompt steers the reasoning backend for email work.
const SystemPrompt = `You are a helpful Gmail automation agent.

Your capabilities include:
- Reading and searching Gmail messages
- Sending emails and replies
- Managing email labels and organization
- Marking messages as read/unread
- Complex email workflows and automation

Key Guidelines:
1. Always be helpful and accurate in email operations
2. Confirm destructive actions before executing them
3. Provide clear summaries of email content and operations
4. Handle errors gracefully and suggest alternatives
5. Respect user privacy and email security
6. When listing messages, show the most relevant information clearly
7. For email searches, use appropriate Gmail search syntax
8. When sending emails, confirm recipients and content

Remember to be conversational and helpful while maintaining email best practices.`

// Options configure the Gmail agent.
type Options struct {
	Model     models.ChatModel
	Caller    tools.Caller
	MaxRounds int

	// Closers run when the agent is closed, typically the Invoker teardown.
	Closers []func() error
}

// New assembles the Gmail agent around the given reasoning backend and tool
// caller.
func New(opts Options) (*deskmate.Agent, error) {
	if opts.Caller == nil {
		return nil, errors.New("gmail agent requires a tool caller")
	}
	return deskmate.New(deskmate.Options{
		Name:         "gmail_agent",
		Description:  "Handles email operations: reading, searching, sending, and organizing Gmail messages.",
		Model:        opts.Model,
		SystemPrompt: SystemPrompt,
		Tools:        toolset(opts.Caller),
		Observer:     observe,
		MaxRounds:    opts.MaxRounds,
		Closers:      opts.Closers,
	})
}

// observe refreshes the advisory context after each executed call: the
// message the conversation is focused on, and the most recent search query.
func observe(state *deskmate.ConversationState, call models.ToolCall, _ string) {
	if id, ok := call.Args["message_id"].(string); ok && id != "" {
		state.SetField(deskmate.FieldCurrentMessageID, id)
	}
	switch call.Name {
	case "list_messages", "search_messages":
		if q, ok := call.Args["query"].(string); ok && q != "" {
			state.SetField(deskmate.FieldSearchContext, q)
		}
	}
}
