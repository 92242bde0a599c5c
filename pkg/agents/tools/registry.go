package tools

import (
	"slices"
	"strings"
	"sync"
)

// Registry holds the tools offered to agents. Lookups accept the tool name or
// any alias, such as the display title a model may echo back.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Tool
	aliases map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Tool),
		aliases: make(map[string]string),
	}
}

// Register adds or replaces a tool. A title differing from the name becomes
// an alias.
func (r *Registry) Register(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[tool.Name] = tool
	if title := tool.DisplayName(); title != tool.Name {
		r.aliases[title] = tool.Name
	}
}

func (r *Registry) RegisterAlias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = name
}

// Get resolves name, then aliases, then a case-insensitive match on either.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tool, ok := r.byName[name]; ok {
		return tool
	}
	if target, ok := r.aliases[name]; ok {
		return r.byName[target]
	}
	for alias, target := range r.aliases {
		if strings.EqualFold(alias, name) {
			return r.byName[target]
		}
	}
	for toolName, tool := range r.byName {
		if strings.EqualFold(toolName, name) {
			return tool
		}
	}
	return nil
}

// All returns the tools ordered by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.byName))
	for _, tool := range r.byName {
		out = append(out, tool)
	}
	slices.SortFunc(out, func(a, b *Tool) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// InGroup returns the names of tools tagged with group.
func (r *Registry) InGroup(group string) []string {
	var names []string
	for _, tool := range r.All() {
		if tool.Group == group {
			names = append(names, tool.Name)
		}
	}
	return names
}
