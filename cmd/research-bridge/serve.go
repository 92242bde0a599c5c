package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/webresearch/research-bridge/pkg/cron"
	"github.com/webresearch/research-bridge/pkg/runner"
	"github.com/webresearch/research-bridge/pkg/server"
)

const triggerSchedule = "schedule"

func (a *app) serveCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when enabled, the research scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Server.ListenAddr = listen
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address, overrides server.listen_addr")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	stack, err := a.newResearchStack(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	group, ctx := errgroup.WithContext(ctx)
	srv := server.New(&a.cfg.Server, stack.runner, stack.aggregator, stack.store, a.log)
	group.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if a.cfg.Schedule.Enabled {
		scheduler := cron.NewScheduler(&a.cfg.Schedule, scheduledRun(stack.runner), a.log)
		group.Go(func() error {
			return scheduler.Run(ctx)
		})
	}
	return group.Wait()
}

// scheduledRun adapts the runner to the scheduler.
func scheduledRun(r *runner.Runner) cron.RunFunc {
	return func(ctx context.Context, job cron.Job) (cron.RunResult, error) {
		outcome, err := r.Run(ctx, runner.Request{Topic: job.Topic, Trigger: triggerSchedule})
		if outcome == nil {
			return cron.RunResult{}, err
		}
		return cron.RunResult{
			Status:     outcome.Status,
			RunID:      outcome.RunID,
			OutputFile: outcome.OutputFile,
			Error:      outcome.Error,
		}, err
	}
}
