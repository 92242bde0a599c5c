package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webresearch/research-bridge/pkg/research"
)

func (a *app) searchCommand() *cobra.Command {
	var (
		numResults int
		report     bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the web and print the extracted sources",
		Long:  "Runs the search, fetch and extract steps without the LLM. --report prints every candidate with its outcome as JSON.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if numResults <= 0 {
				numResults = a.cfg.Search.MaxResults
			}
			aggregator := a.newAggregator()
			out := cmd.OutOrStdout()
			if report {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(aggregator.Run(cmd.Context(), query, numResults))
			}
			sources := aggregator.SearchAndExtract(cmd.Context(), query, numResults)
			if len(sources) == 0 {
				return fmt.Errorf("no usable sources found for %q", query)
			}
			fmt.Fprintln(out, research.Render(sources))
			return nil
		},
	}
	cmd.Flags().IntVarP(&numResults, "num-results", "n", 0, "search results to process (default search.max_results)")
	cmd.Flags().BoolVar(&report, "report", false, "print the full JSON report")
	return cmd
}
