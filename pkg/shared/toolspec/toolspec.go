package toolspec

// Tool schema definitions shared by the agent runtime and the MCP server.

const (
	WebSearchName        = "web_search"
	WebSearchTitle       = "Web Search"
	WebSearchDescription = "Searches the web for relevant information and extracts meaningful content."
)

// WebSearchSchema returns the JSON schema for the web search tool.
func WebSearchSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}
