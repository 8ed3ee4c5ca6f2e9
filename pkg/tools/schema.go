package tools

import "github.com/Protocol-Lattice/deskmate/pkg/models"

// Schema and argument helpers shared by the adapter packages. Reasoning
// backends deliver arguments as decoded JSON, so numbers arrive as float64
// and everything needs a type assertion with a sane fallback.

// Spec assembles a tool descriptor.
func Spec(name, description string, parameters map[string]any) models.ToolSpec {
	return models.ToolSpec{Name: name, Description: description, Parameters: parameters}
}

// ObjectSchema builds a JSON-schema object descriptor for a tool.
func ObjectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringParam describes a string parameter.
func StringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// IntParam describes an integer parameter.
func IntParam(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

// StringArg extracts a string argument, returning "" when absent or of the
// wrong type.
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// IntArg extracts an integer argument, accepting the float64 form JSON
// decoding produces. Returns fallback when absent or non-numeric.
func IntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
