package deskmate

import "fmt"

// ToolErrorKind classifies a tool invocation failure.
type ToolErrorKind int

const (
	// ToolErrTransport covers network and connection failures reaching the
	// tool-serving endpoint.
	ToolErrTransport ToolErrorKind = iota
	// ToolErrEmptyResult means the endpoint replied with no content items.
	ToolErrEmptyResult
	// ToolErrMalformedResult means the reply payload did not parse as a
	// structured object.
	ToolErrMalformedResult
	// ToolErrRemote means the remote operation itself reported a failure.
	ToolErrRemote
	// ToolErrUnknownTool means the reasoning backend requested a tool that
	// is not registered with this agent.
	ToolErrUnknownTool
)

func (k ToolErrorKind) String() string {
	switch k {
	case ToolErrTransport:
		return "transport"
	case ToolErrEmptyResult:
		return "empty result"
	case ToolErrMalformedResult:
		return "malformed result"
	case ToolErrRemote:
		return "remote"
	case ToolErrUnknownTool:
		return "unknown tool"
	default:
		return "unknown"
	}
}

// ToolError is a tool failure carried as a value. It never crashes a turn:
// the agent narrates it back into the conversation so the reasoning backend
// can recover on its next pass.
type ToolError struct {
	Kind    ToolErrorKind
	Op      string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %s", e.Op, e.Kind, e.Message)
}

// Narrate renders the failure as conversation text.
func (e *ToolError) Narrate() string {
	return fmt.Sprintf("Error %s: %s", e.Op, e.Message)
}

// NewToolError builds a ToolError for the named operation.
func NewToolError(kind ToolErrorKind, op, message string) *ToolError {
	return &ToolError{Kind: kind, Op: op, Message: message}
}
