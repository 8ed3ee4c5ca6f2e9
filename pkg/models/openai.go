package models

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIChat implements ChatModel using the chat completions tool-calling API.
type OpenAIChat struct {
	Client *openai.Client
	Model  string
}

// NewOpenAIChat reads OPENAI_API_KEY (or OPENAI_KEY) from the environment.
func NewOpenAIChat(model string) *OpenAIChat {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY") // fallback
	}
	return &OpenAIChat{Client: openai.NewClient(apiKey), Model: model}
}

func (o *OpenAIChat) Chat(ctx context.Context, req ChatRequest) (Turn, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, turn := range req.History {
		messages = append(messages, openaiMessage(turn))
	}

	var tools []openai.Tool
	for _, spec := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.Model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return Turn{}, err
	}
	if len(resp.Choices) == 0 {
		return Turn{}, errors.New("no response from OpenAI")
	}

	choice := resp.Choices[0].Message
	turn := Turn{Role: RoleAssistant, Content: choice.Content}
	for _, call := range choice.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, ToolCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: parseCallArguments(call.Function.Arguments),
		})
	}
	return turn, nil
}

func openaiMessage(turn Turn) openai.ChatCompletionMessage {
	switch turn.Role {
	case RoleAssistant:
		msg := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: turn.Content,
		}
		for _, call := range turn.ToolCalls {
			args, _ := json.Marshal(call.Args)
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(args),
				},
			})
		}
		return msg
	case RoleTool:
		return openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    turn.Content,
			Name:       turn.ToolName,
			ToolCallID: turn.CallID,
		}
	default:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: turn.Content,
		}
	}
}

// parseCallArguments decodes a backend-supplied argument payload. Backends
// occasionally emit something other than a JSON object; the raw string is
// then forwarded under "input" so the tool can still see it.
func parseCallArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	if strings.HasPrefix(raw, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return payload
		}
	}
	return map[string]any{"input": raw}
}

var _ ChatModel = (*OpenAIChat)(nil)
