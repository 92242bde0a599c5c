// Package tools provides the capability tools offered to research agents,
// their registry and a policy-checked executor.
package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool wraps an MCP tool definition with a local implementation.
type Tool struct {
	mcp.Tool
	Type    ToolType
	Group   string
	Execute func(ctx context.Context, input map[string]any) (*Result, error) // nil for tools served elsewhere
}

type ToolType string

const (
	ToolTypeBuiltin ToolType = "builtin"
	ToolTypeMCP     ToolType = "mcp"
)

const GroupSearch = "group:search"

// DisplayName returns the annotated title, falling back to the name.
func (t *Tool) DisplayName() string {
	if t.Annotations != nil && t.Annotations.Title != "" {
		return t.Annotations.Title
	}
	return t.Name
}

type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// Result is what a tool hands back to the calling agent.
type Result struct {
	Status  ResultStatus   `json:"status"`
	Content []ContentBlock `json:"content,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func TextResult(text string) *Result {
	return &Result{Status: ResultSuccess, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ErrorResult reports a failure the agent should read, as opposed to an
// execution error.
func ErrorResult(toolName, message string) *Result {
	return &Result{
		Status:  ResultError,
		Content: []ContentBlock{{Type: "text", Text: message}},
		Details: map[string]any{"tool": toolName},
		Error:   message,
	}
}

func (r *Result) IsError() bool {
	return r.Status == ResultError
}

// Text returns the error for failed results, otherwise the first text block.
func (r *Result) Text() string {
	if r.IsError() && r.Error != "" {
		return r.Error
	}
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

// ToolInfo describes a tool for listings.
type ToolInfo struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        ToolType `json:"type"`
	Group       string   `json:"group,omitempty"`
}
