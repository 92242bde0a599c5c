package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/webresearch/research-bridge/pkg/agents/tools"
)

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the web_search tool over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcp.NewServer(&mcp.Implementation{
				Name:    "research-bridge",
				Title:   "Research Bridge",
				Version: Tag,
			}, nil)
			executor := newExecutor(a.newAggregator())
			tools.RegisterMCP(server, executor)
			var names []string
			for _, info := range executor.AllowedToolInfos() {
				names = append(names, info.Name)
			}
			a.log.Info().Strs("tools", names).Msg("Serving MCP over stdio")
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
