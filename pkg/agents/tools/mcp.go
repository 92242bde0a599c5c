package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP exposes every tool the executor allows on an MCP server. Tool
// failures come back as IsError results so the client model can read them.
func RegisterMCP(server *mcp.Server, executor *Executor) {
	for _, tool := range executor.AllowedTools() {
		def := tool.Tool
		name := def.Name
		server.AddTool(&def, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := map[string]any{}
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
				}
			}
			result, err := executor.Execute(ctx, name, args)
			if err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
					IsError: true,
				}, nil
			}
			return toMCPResult(result), nil
		})
	}
}

func toMCPResult(result *Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: result.IsError()}
	for _, block := range result.Content {
		if block.Type == "text" {
			out.Content = append(out.Content, &mcp.TextContent{Text: block.Text})
		}
	}
	if len(out.Content) == 0 {
		out.Content = []mcp.Content{&mcp.TextContent{Text: result.Text()}}
	}
	if len(result.Details) > 0 {
		out.StructuredContent = result.Details
	}
	return out
}
