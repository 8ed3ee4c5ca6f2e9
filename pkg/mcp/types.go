// Package mcp implements a lightweight Model Context Protocol client
// covering the surface the assistant needs: the initialise handshake,
// tool listing and invocation, and read-only resource snapshots. Both
// stdio-spawned and HTTP-reachable servers are supported.
package mcp

import (
	"encoding/json"
	"strings"
)

// ClientInfo describes the calling application when establishing an MCP
// session.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Options control how the client initialises the remote server.
type Options struct {
	ClientInfo      ClientInfo
	Capabilities    map[string]any
	ProtocolVersion string
}

// ServerInfo is the metadata returned by the server during the initialise
// handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolDefinition mirrors the subset of the MCP tool schema that the agents
// require.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Resource describes a read-only snapshot addressable by URI.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContent is one content entry of a resources/read reply.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Content represents a single content part returned from a tool invocation.
type Content struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	MimeType string          `json:"mimeType,omitempty"`
}

// CallResult captures the structured output of an MCP tool invocation.
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// FirstText returns the text of the first content item. Tool replies in
// this system carry exactly one JSON-encoded text item; anything else is a
// protocol violation handled by the caller.
func (r CallResult) FirstText() (string, bool) {
	if len(r.Content) == 0 {
		return "", false
	}
	return r.Content[0].Text, true
}

// Text concatenates the text parts within the result, joined by newlines.
func (r CallResult) Text() string {
	var segments []string
	for _, part := range r.Content {
		if part.Type != "text" {
			continue
		}
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return strings.Join(segments, "\n")
}
