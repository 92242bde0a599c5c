package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webresearch/research-bridge/pkg/runner"
)

const defaultTopic = "Latest developments in quantum computing and its practical applications"

func (a *app) runCommand() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run [topic]",
		Short: "Research a topic once and save the summary",
		Example: `  research-bridge run
  research-bridge run "solid-state batteries"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := defaultTopic
			if len(args) == 1 {
				topic = args[0]
			}
			stack, err := a.newResearchStack(cmd.Context())
			if err != nil {
				return err
			}
			defer stack.Close()

			out := cmd.OutOrStdout()
			req := runner.Request{Topic: topic, Trigger: "cli"}
			if !quiet {
				req.Observer = func(evt runner.Event) {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", evt.Stage, evt.Message)
				}
			}
			outcome, err := stack.runner.Run(cmd.Context(), req)
			if outcome == nil {
				return err
			}
			if outcome.Status != runner.StatusSuccess {
				return fmt.Errorf("research failed: %s", outcome.Error)
			}
			fmt.Fprintln(out, strings.TrimSpace(outcome.RawOutput))
			fmt.Fprintf(cmd.ErrOrStderr(), "\nResearch summary saved: %s\n", outcome.OutputFile)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	return cmd
}
