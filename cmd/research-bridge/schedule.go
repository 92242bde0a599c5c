package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/webresearch/research-bridge/pkg/cron"
)

func (a *app) scheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"cron"},
		Short:   "Manage recurring research runs",
	}
	cmd.AddCommand(
		a.scheduleAddCommand(),
		a.scheduleListCommand(),
		a.scheduleRemoveCommand(),
		a.scheduleRunCommand(),
		a.scheduleLogCommand(),
	)
	return cmd
}

// newScheduler returns a scheduler over the configured store. run may be nil
// for commands that only edit the file.
func (a *app) newScheduler(run cron.RunFunc) *cron.Scheduler {
	return cron.NewScheduler(&a.cfg.Schedule, run, a.log)
}

func (a *app) scheduleAddCommand() *cobra.Command {
	var (
		job      cron.Job
		at       string
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   "add <topic>",
		Short: "Add a scheduled research topic",
		Example: `  research-bridge schedule add --cron "0 7 * * 1" --tz Europe/Berlin "fusion energy"
  research-bridge schedule add --every 12h "open source LLMs"
  research-bridge schedule add --at 2026-11-01T09:00:00Z --delete-after-run "EU AI act"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job.Topic = strings.Join(args, " ")
			job.Enabled = !disabled
			if at != "" {
				ts, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at time: %w", err)
				}
				job.Schedule.AtMs = ts.UnixMilli()
			}
			added, err := a.newScheduler(nil).AddJob(job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added job %s (next run %s)\n", added.ID, formatMs(added.State.NextRunAtMs))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&job.Name, "name", "", "display name")
	flags.StringVar(&job.Schedule.Expr, "cron", "", "cron expression, e.g. \"0 7 * * *\" or @daily")
	flags.StringVar(&job.Schedule.TZ, "tz", "", "time zone for --cron")
	flags.StringVar(&job.Schedule.Every, "every", "", "interval such as 6h or 90m")
	flags.StringVar(&at, "at", "", "run once at this RFC 3339 time")
	flags.BoolVar(&job.DeleteAfterRun, "delete-after-run", false, "remove an --at job after it runs")
	flags.BoolVar(&disabled, "disabled", false, "add the job without enabling it")
	cmd.MarkFlagsMutuallyExclusive("cron", "every", "at")
	cmd.MarkFlagsOneRequired("cron", "every", "at")
	return cmd
}

func (a *app) scheduleListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled research topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := a.newScheduler(nil).Jobs()
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scheduled jobs.")
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Topic", "Schedule", "Enabled", "Next run", "Last status"})
			for _, job := range jobs {
				topic := job.Topic
				if job.Name != "" {
					topic = job.Name + ": " + topic
				}
				t.AppendRow(table.Row{
					job.ID,
					topic,
					describeSchedule(job.Schedule),
					job.Enabled,
					formatMs(job.State.NextRunAtMs),
					job.State.LastStatus,
				})
			}
			t.Render()
			return nil
		},
	}
}

func (a *app) scheduleRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a scheduled job",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.newScheduler(nil).RemoveJob(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", args[0])
			return nil
		},
	}
}

func (a *app) scheduleRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Run a scheduled job now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := a.newResearchStack(cmd.Context())
			if err != nil {
				return err
			}
			defer stack.Close()
			result, err := a.newScheduler(scheduledRun(stack.runner)).RunNow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if result.Status != "success" {
				return fmt.Errorf("job %s failed: %s", args[0], result.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Research summary saved: %s\n", result.OutputFile)
			return nil
		},
	}
}

func (a *app) scheduleLogCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "Show recent runs of a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := cron.ReadRunLog(cron.ResolveRunLogPath(a.cfg.Schedule.StorePath, args[0]), limit)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Ran at", "Status", "Duration", "Output / error"})
			for _, entry := range entries {
				detail := entry.OutputFile
				if entry.Error != "" {
					detail = entry.Error
				}
				t.AppendRow(table.Row{
					formatMs(&entry.RunAtMs),
					entry.Status,
					(time.Duration(entry.DurationMs) * time.Millisecond).Round(time.Second),
					detail,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "entries to show")
	return cmd
}

func describeSchedule(s cron.Schedule) string {
	switch s.Kind {
	case "cron":
		if s.TZ != "" {
			return s.Expr + " (" + s.TZ + ")"
		}
		return s.Expr
	case "every":
		if s.Every != "" {
			return "every " + s.Every
		}
		return "every " + (time.Duration(s.EveryMs) * time.Millisecond).String()
	case "at":
		return "at " + formatMs(&s.AtMs)
	default:
		return s.Kind
	}
}

func formatMs(ms *int64) string {
	if ms == nil || *ms <= 0 {
		return "-"
	}
	return time.UnixMilli(*ms).Local().Format(time.DateTime)
}
