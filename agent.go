package deskmate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// defaultMaxRounds bounds the reasoning/tool-execution loop within a single
// user turn. A well-behaved backend converges in a handful of rounds.
const defaultMaxRounds = 25

// ContextObserver is called after each executed tool call so an agent can
// refresh its advisory context fields (last operation, active item, ...).
type ContextObserver func(state *ConversationState, call models.ToolCall, result string)

// Agent is the turn-taking state machine for one logical agent: it submits
// the conversation to a reasoning backend, executes any requested tool calls
// strictly in order, folds the results back into history, and repeats until
// the backend produces an answer with no further tool requests.
type Agent struct {
	name         string
	description  string
	model        models.ChatModel
	systemPrompt string
	catalog      *ToolCatalog
	state        *ConversationState
	observe      ContextObserver
	maxRounds    int
	closers      []func() error
}

// Options configure a new Agent.
type Options struct {
	Name         string
	Description  string
	Model        models.ChatModel
	SystemPrompt string
	Tools        []Tool
	State        *ConversationState
	Observer     ContextObserver
	MaxRounds    int

	// Closers run when the agent is closed, in order. Used to tie the
	// lifetime of tool-endpoint connections to the agent that owns them.
	Closers []func() error
}

// New creates an Agent with the provided options.
func New(opts Options) (*Agent, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, errors.New("agent requires a name")
	}
	if opts.Model == nil {
		return nil, errors.New("agent requires a reasoning backend")
	}

	catalog, err := NewToolCatalog(opts.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", opts.Name, err)
	}

	state := opts.State
	if state == nil {
		state = NewConversationState()
	}

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	return &Agent{
		name:         opts.Name,
		description:  opts.Description,
		model:        opts.Model,
		systemPrompt: opts.SystemPrompt,
		catalog:      catalog,
		state:        state,
		observe:      opts.Observer,
		maxRounds:    maxRounds,
		closers:      opts.Closers,
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's routing description.
func (a *Agent) Description() string { return a.description }

// State exposes the agent's conversation state. The state is owned by this
// agent; callers may read it but must not append turns themselves.
func (a *Agent) State() *ConversationState { return a.state }

// ToolSpecs returns the registered tool specifications in order.
func (a *Agent) ToolSpecs() []models.ToolSpec { return a.catalog.Specs() }

// Chat processes one user message and returns the agent's answer. The
// history is carried forward across calls on the same Agent instance.
//
// Tool-level failures never surface as errors here: they are narrated into
// the history and the backend answers around them. An error return means
// the reasoning backend itself failed or the round cap was hit.
func (a *Agent) Chat(ctx context.Context, userInput string) (string, error) {
	if strings.TrimSpace(userInput) == "" {
		return "", errors.New("user input is empty")
	}

	a.state.Append(models.UserTurn(userInput))

	for round := 0; round < a.maxRounds; round++ {
		turn, err := a.model.Chat(ctx, models.ChatRequest{
			System:  a.systemInstruction(),
			History: a.state.History(),
			Tools:   a.catalog.Specs(),
		})
		if err != nil {
			return "", fmt.Errorf("agent %s: reasoning backend: %w", a.name, err)
		}
		turn.Role = models.RoleAssistant
		a.state.Append(turn)

		if len(turn.ToolCalls) == 0 {
			return turn.Content, nil
		}

		// Execute sequentially, in the order requested. Later calls may
		// depend on earlier results, and each result must stay attributable
		// to its call id. Calls are never deduplicated: a repeated
		// (tool, arguments) pair may have different side effects.
		for _, call := range turn.ToolCalls {
			result := a.executeCall(ctx, call)
			a.state.Append(models.ToolTurn(call.ID, call.Name, result))
			a.state.SetField(FieldLastOperation, call.Name)
			if a.observe != nil {
				a.observe(a.state, call, result)
			}
		}
	}

	return "", fmt.Errorf("agent %s: tool loop exceeded %d rounds", a.name, a.maxRounds)
}

// ChatBatch processes a sequence of user messages over the same
// conversation, returning one answer per message. It stops at the first
// backend failure.
func (a *Agent) ChatBatch(ctx context.Context, inputs []string) ([]string, error) {
	answers := make([]string, 0, len(inputs))
	for _, input := range inputs {
		answer, err := a.Chat(ctx, input)
		if err != nil {
			return answers, err
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// executeCall resolves and runs one requested tool call. It always returns
// text: an unknown tool becomes a narrated error the backend can
// self-correct from on its next reasoning pass.
func (a *Agent) executeCall(ctx context.Context, call models.ToolCall) string {
	tool, _, ok := a.catalog.Lookup(call.Name)
	if !ok {
		terr := NewToolError(ToolErrUnknownTool, call.Name,
			fmt.Sprintf("tool %q is not available to this agent", call.Name))
		return terr.Narrate()
	}
	return tool.Invoke(ctx, call.Args)
}

func (a *Agent) systemInstruction() string {
	fields := a.state.RenderFields()
	if fields == "" {
		return a.systemPrompt
	}
	return a.systemPrompt + "\n\n" + fields
}

// Close runs the agent's registered teardown hooks. It is safe to call on
// every exit path; hooks run once per call in registration order.
func (a *Agent) Close() error {
	var first error
	for _, closer := range a.closers {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
