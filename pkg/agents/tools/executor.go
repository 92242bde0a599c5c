package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrDuplicateCall = errors.New("duplicate tool call")

// Policy restricts which tools an executor will run. A nil Allowed set
// permits everything not in Denied.
type Policy struct {
	Allowed map[string]bool
	Denied  map[string]bool
}

// AllowOnly permits just the named tools.
func AllowOnly(names ...string) *Policy {
	p := &Policy{Allowed: make(map[string]bool, len(names))}
	for _, name := range names {
		p.Allowed[name] = true
	}
	return p
}

func (p *Policy) permits(name string) bool {
	if p == nil {
		return true
	}
	if p.Denied[name] {
		return false
	}
	return p.Allowed == nil || p.Allowed[name]
}

// Executor runs registry tools under a policy. Call IDs in flight are
// tracked so a model repeating a call ID does not run the tool twice.
type Executor struct {
	registry *Registry
	policy   *Policy

	mu       sync.Mutex
	inflight map[string]string // call ID -> tool name
}

// NewExecutor creates an executor. A nil policy permits every tool.
func NewExecutor(registry *Registry, policy *Policy) *Executor {
	return &Executor{
		registry: registry,
		policy:   policy,
		inflight: make(map[string]string),
	}
}

func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute resolves name, which may be an alias, and runs the tool.
func (e *Executor) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	tool := e.registry.Get(name)
	switch {
	case tool == nil:
		return nil, fmt.Errorf("unknown tool: %s", name)
	case !e.policy.permits(tool.Name):
		return nil, fmt.Errorf("tool %s is not allowed by policy", tool.Name)
	case tool.Execute == nil:
		return nil, fmt.Errorf("tool %s has no local executor", tool.Name)
	}
	return tool.Execute(ctx, input)
}

// ExecuteWithID is Execute for a model-issued call ID.
func (e *Executor) ExecuteWithID(ctx context.Context, callID, name string, input map[string]any) (*Result, error) {
	e.mu.Lock()
	if _, busy := e.inflight[callID]; busy {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCall, callID)
	}
	e.inflight[callID] = name
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inflight, callID)
		e.mu.Unlock()
	}()
	return e.Execute(ctx, name, input)
}

// InFlight returns how many calls are running.
func (e *Executor) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inflight)
}

// AllowedTools lists the registry tools the policy permits.
func (e *Executor) AllowedTools() []*Tool {
	var allowed []*Tool
	for _, tool := range e.registry.All() {
		if e.policy.permits(tool.Name) {
			allowed = append(allowed, tool)
		}
	}
	return allowed
}

func (e *Executor) AllowedToolInfos() []ToolInfo {
	var infos []ToolInfo
	for _, tool := range e.AllowedTools() {
		infos = append(infos, ToolInfo{
			Name:        tool.Name,
			Title:       tool.DisplayName(),
			Description: tool.Description,
			Type:        tool.Type,
			Group:       tool.Group,
		})
	}
	return infos
}
