// Package config loads the assistant configuration: which reasoning provider
// to use and where each specialist's tool endpoint lives. Values come from an
// optional YAML file with environment variables layered on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Endpoint describes how to reach one specialist's tool server. Exactly one
// of MCPURL or MCPCommand should be set; a URL wins when both are present.
type Endpoint struct {
	// MCPURL is an HTTP endpoint speaking JSON-RPC.
	MCPURL string `yaml:"mcp_url"`
	// MCPCommand spawns a local server subprocess speaking stdio framing.
	MCPCommand []string `yaml:"mcp_command"`
}

// Config is the top-level structure of deskmate.yaml.
type Config struct {
	// Provider selects the reasoning backend: gemini, openai, or anthropic.
	Provider string `yaml:"provider"`
	// Model is the provider-specific model name.
	Model string `yaml:"model"`
	// MaxRounds caps the tool loop per user turn. Zero keeps the default.
	MaxRounds int `yaml:"max_rounds"`

	Gmail Endpoint `yaml:"gmail"`
	Todo  Endpoint `yaml:"todo"`
}

// Default returns the configuration used when no file is present: Gemini
// with local tool servers on their conventional ports.
func Default() Config {
	return Config{
		Provider: "gemini",
		Model:    "gemini-2.0-flash-lite",
		Gmail:    Endpoint{MCPURL: "http://127.0.0.1:5001/mcp"},
		Todo:     Endpoint{MCPURL: "http://127.0.0.1:8080/mcp/"},
	}
}

// Load reads the YAML file at path and overlays environment variables. An
// empty path skips the file and starts from defaults; a named file that does
// not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
		cfg.fillDefaults()
	}

	cfg.applyEnv()
	return cfg, nil
}

// fillDefaults restores defaults for fields the file left empty.
func (c *Config) fillDefaults() {
	base := Default()
	if c.Provider == "" {
		c.Provider = base.Provider
	}
	if c.Model == "" {
		c.Model = base.Model
	}
	if c.Gmail.MCPURL == "" && len(c.Gmail.MCPCommand) == 0 {
		c.Gmail = base.Gmail
	}
	if c.Todo.MCPURL == "" && len(c.Todo.MCPCommand) == 0 {
		c.Todo = base.Todo
	}
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("DESKMATE_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("DESKMATE_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("DESKMATE_MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxRounds = n
		}
	}
	if v := os.Getenv("GMAIL_MCP_URL"); v != "" {
		c.Gmail = Endpoint{MCPURL: v}
	}
	if v := os.Getenv("TODO_MCP_URL"); v != "" {
		c.Todo = Endpoint{MCPURL: v}
	}
}
