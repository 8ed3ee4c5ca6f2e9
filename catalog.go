package deskmate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Protocol-Lattice/deskmate/pkg/models"
)

// ToolCatalog is the per-agent tool registry. Registration order is
// preserved so tool listings shown to the reasoning backend stay stable.
type ToolCatalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]models.ToolSpec
	order []string
}

// NewToolCatalog constructs a catalog seeded with the provided tools.
// Registration errors (duplicate or empty names) are returned immediately:
// collisions are configuration mistakes, not runtime conditions.
func NewToolCatalog(tools ...Tool) (*ToolCatalog, error) {
	catalog := &ToolCatalog{
		tools: make(map[string]Tool),
		specs: make(map[string]models.ToolSpec),
	}
	for _, tool := range tools {
		if err := catalog.Register(tool); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// Register adds a tool. Duplicate names return an error.
func (c *ToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[key]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	c.tools[key] = tool
	c.specs[key] = spec
	c.order = append(c.order, key)
	return nil
}

// Lookup returns the tool and its specification if present. Lookup is
// case-insensitive to tolerate backends that vary tool-name casing.
func (c *ToolCatalog) Lookup(name string) (Tool, models.ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	tool, ok := c.tools[key]
	if !ok {
		return nil, models.ToolSpec{}, false
	}
	return tool, c.specs[key], true
}

// Specs returns a snapshot of the tool specifications in registration order.
func (c *ToolCatalog) Specs() []models.ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]models.ToolSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, c.specs[key])
	}
	return specs
}

// Len reports the number of registered tools.
func (c *ToolCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
