package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/webresearch/research-bridge/pkg/config"
	"github.com/webresearch/research-bridge/pkg/logging"
)

// app holds what every subcommand shares: the loaded config and the logger.
type app struct {
	configPath string
	saveConfig bool

	cfg      *config.Config
	log      zerolog.Logger
	closeLog io.Closer
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "research-bridge",
		Short:         "Web research pipeline with a local LLM crew",
		Long:          "Searches the web, extracts text from pages and PDFs, and has a crew of LLM agents turn it into a research summary.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (built-in defaults when empty)")
	root.PersistentFlags().BoolVar(&a.saveConfig, "save-config", false, "write keys missing from the config file back to it")

	root.AddCommand(
		a.serveCommand(),
		a.runCommand(),
		a.searchCommand(),
		a.mcpCommand(),
		a.scheduleCommand(),
		exampleConfigCommand(),
		versionCommand(),
	)
	cobra.OnFinalize(func() {
		a.close()
	})
	return root
}

func (a *app) init() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load(a.configPath, a.saveConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Console output goes to stderr so stdout stays clean for results and MCP.
	log, closer, err := logging.New(&cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	a.cfg, a.log, a.closeLog = cfg, log, closer
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog.Close()
		a.closeLog = nil
	}
}

func exampleConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "example-config",
		Short: "Print the example config with every key and its default",
		// No config is needed to print the example.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), config.ExampleConfig)
			return err
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "research-bridge %s (commit %s, built %s)\n", Tag, Commit, BuildTime)
		},
	}
}
