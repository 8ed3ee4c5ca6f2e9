package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

// GeminiChat implements ChatModel on top of the Gemini function-calling API.
type GeminiChat struct {
	Client *genai.Client
	Model  string
}

// NewGeminiChat reads GOOGLE_API_KEY (or GEMINI_API_KEY) from the environment.
func NewGeminiChat(ctx context.Context, model string) (*GeminiChat, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiChat{Client: client, Model: model}, nil
}

func (g *GeminiChat) Chat(ctx context.Context, req ChatRequest) (Turn, error) {
	model := g.Client.GenerativeModel(g.Model)

	if strings.TrimSpace(req.System) != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, spec := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  toGeminiSchema(spec.Parameters),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := geminiContents(req.History)
	if len(contents) == 0 {
		return Turn{}, errors.New("gemini: empty history")
	}

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]

	resp, err := chat.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return Turn{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Turn{}, errors.New("gemini: empty response")
	}

	turn := Turn{Role: RoleAssistant}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			// Gemini does not mint call ids; synthesize them so the
			// result-to-call correlation holds like it does elsewhere.
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{
				ID:   "call_" + uuid.NewString(),
				Name: p.Name,
				Args: p.Args,
			})
		}
	}
	turn.Content = text.String()
	return turn, nil
}

// geminiContents converts a turn history into Gemini chat contents. A run of
// consecutive tool turns collapses into one user-role content carrying the
// function responses, which is how the SDK expects results to come back.
func geminiContents(history []Turn) []*genai.Content {
	var contents []*genai.Content
	for _, turn := range history {
		switch turn.Role {
		case RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(turn.Content)},
			})
		case RoleAssistant:
			var parts []genai.Part
			if strings.TrimSpace(turn.Content) != "" {
				parts = append(parts, genai.Text(turn.Content))
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case RoleTool:
			part := genai.FunctionResponse{
				Name:     turn.ToolName,
				Response: map[string]any{"content": turn.Content},
			}
			if n := len(contents); n > 0 && contents[n-1].Role == "user" && isFunctionResponse(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{part}})
		}
	}
	return contents
}

func isFunctionResponse(content *genai.Content) bool {
	if len(content.Parts) == 0 {
		return false
	}
	_, ok := content.Parts[0].(genai.FunctionResponse)
	return ok
}

// toGeminiSchema maps a JSON-schema object into the SDK's typed schema.
// Unknown fields are dropped; Gemini rejects schemas it does not understand.
func toGeminiSchema(schema map[string]any) *genai.Schema {
	if len(schema) == 0 {
		return &genai.Schema{Type: genai.TypeObject}
	}

	out := &genai.Schema{Type: geminiType(schema["type"])}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				out.Properties[name] = toGeminiSchema(sub)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = toGeminiSchema(items)
	}
	if required, ok := schema["required"].([]string); ok {
		out.Required = required
	} else if raw, ok := schema["required"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if raw, ok := schema["enum"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	return out
}

func geminiType(raw any) genai.Type {
	t, _ := raw.(string)
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object", "":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

var _ ChatModel = (*GeminiChat)(nil)
