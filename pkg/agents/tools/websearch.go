package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/webresearch/research-bridge/pkg/research"
	"github.com/webresearch/research-bridge/pkg/shared/toolspec"
)

// WebSearchResultCount is the number of search hits the tool processes per call.
const WebSearchResultCount = 5

// Searcher is the aggregation step behind the tool.
type Searcher interface {
	SearchAndExtract(ctx context.Context, query string, numResults int) research.ResultSet
}

// WebSearch searches the web and returns the extracted text of usable sources.
type WebSearch struct {
	searcher Searcher
}

func NewWebSearch(searcher Searcher) *WebSearch {
	return &WebSearch{searcher: searcher}
}

// Run returns one "Source: <url>\n<text>" block per usable source, separated
// by blank lines. No usable sources yields an empty string.
func (w *WebSearch) Run(ctx context.Context, query string) string {
	return research.Render(w.searcher.SearchAndExtract(ctx, query, WebSearchResultCount))
}

// RunAsync runs Run on its own goroutine and delivers the same string on the
// returned channel.
func (w *WebSearch) RunAsync(ctx context.Context, query string) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)
		out <- w.Run(ctx, query)
	}()
	return out
}

// Tool returns the registry entry for the search.
func (w *WebSearch) Tool() *Tool {
	return &Tool{
		Tool: mcp.Tool{
			Name:        toolspec.WebSearchName,
			Description: toolspec.WebSearchDescription,
			Annotations: &mcp.ToolAnnotations{Title: toolspec.WebSearchTitle},
			InputSchema: toolspec.WebSearchSchema(),
		},
		Type:    ToolTypeBuiltin,
		Group:   GroupSearch,
		Execute: w.execute,
	}
}

func (w *WebSearch) execute(ctx context.Context, args map[string]any) (*Result, error) {
	query, _ := args["query"].(string)
	if query = strings.TrimSpace(query); query == "" {
		return ErrorResult(toolspec.WebSearchName, `parameter "query" is required`), nil
	}
	result := TextResult(w.Run(ctx, query))
	result.Details = map[string]any{"query": query}
	return result, nil
}

// NewResearchRegistry returns a registry holding the web search tool,
// reachable by its display name too.
func NewResearchRegistry(searcher Searcher) *Registry {
	reg := NewRegistry()
	reg.Register(NewWebSearch(searcher).Tool())
	reg.RegisterAlias(toolspec.WebSearchTitle, toolspec.WebSearchName)
	return reg
}
