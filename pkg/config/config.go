// Package config loads the YAML configuration file shared by every command.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.mau.fi/util/configupgrade"
	"gopkg.in/yaml.v3"

	"github.com/webresearch/research-bridge/pkg/crew"
	"github.com/webresearch/research-bridge/pkg/cron"
	"github.com/webresearch/research-bridge/pkg/extract"
	"github.com/webresearch/research-bridge/pkg/fetch"
	"github.com/webresearch/research-bridge/pkg/llm"
	"github.com/webresearch/research-bridge/pkg/logging"
	"github.com/webresearch/research-bridge/pkg/research"
	"github.com/webresearch/research-bridge/pkg/runner"
	"github.com/webresearch/research-bridge/pkg/search"
	"github.com/webresearch/research-bridge/pkg/server"
	"github.com/webresearch/research-bridge/pkg/store"
)

//go:embed example-config.yaml
var ExampleConfig string

type Config struct {
	Server   server.Config   `yaml:"server"`
	Search   search.Config   `yaml:"search"`
	Fetch    fetch.Config    `yaml:"fetch"`
	Extract  extract.Config  `yaml:"extract"`
	Research research.Config `yaml:"research"`
	LLM      llm.Config      `yaml:"llm"`
	Crew     crew.Config     `yaml:"crew"`
	Runner   runner.Config   `yaml:"runner"`
	Store    store.Config    `yaml:"store"`
	Schedule cron.Config     `yaml:"schedule"`
	Logging  logging.Config  `yaml:"logging"`
}

// Load reads the config at path, filling keys missing from the file with the
// example config. With save set, the merged result is written back so new
// keys show up in the user's file. An empty path loads the example config.
// Environment variables are applied last.
func Load(path string, save bool) (*Config, error) {
	data := []byte(ExampleConfig)
	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		merged, _, err := configupgrade.Do(path, save, &configupgrade.StructUpgrader{
			SimpleUpgrader: upgradeConfig,
			Base:           ExampleConfig,
		})
		if err != nil {
			return nil, err
		}
		data = merged
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults and environment variables.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyEnvDefaults(&cfg)
	cfg.WithDefaults()
	return &cfg, cfg.Validate()
}

func (c *Config) WithDefaults() *Config {
	c.Server = *c.Server.WithDefaults()
	c.Search = *c.Search.WithDefaults()
	c.Server.SearchResults = c.Search.MaxResults
	c.Fetch = *c.Fetch.WithDefaults()
	c.Extract = *c.Extract.WithDefaults()
	c.Research = *c.Research.WithDefaults()
	c.LLM = *c.LLM.WithDefaults()
	c.Crew = *c.Crew.WithDefaults()
	c.Runner = *c.Runner.WithDefaults()
	c.Store = *c.Store.WithDefaults()
	c.Schedule = *c.Schedule.WithDefaults()
	c.Logging = *c.Logging.WithDefaults()
	return c
}

// ApplyEnvDefaults overlays environment variables on the loaded file. An
// environment value only replaces a field the file left empty or at its
// default.
func ApplyEnvDefaults(c *Config) *Config {
	c.Server = *server.ApplyEnvDefaults(&c.Server)
	c.Search = *search.ApplyEnvDefaults(&c.Search)
	c.Fetch = *fetch.ApplyEnvDefaults(&c.Fetch)
	c.LLM = *llm.ApplyEnvDefaults(&c.LLM)

	if dir := strings.TrimSpace(os.Getenv("RESEARCH_OUTPUT_DIR")); dir != "" &&
		(c.Runner.OutputDir == "" || c.Runner.OutputDir == runner.DefaultOutputDir) {
		c.Runner.OutputDir = dir
	}
	if raw := strings.TrimSpace(os.Getenv("RESEARCH_CONCURRENCY")); raw != "" &&
		(c.Research.Concurrency <= 0 || c.Research.Concurrency == research.DefaultConcurrency) {
		if n, err := strconv.Atoi(raw); err == nil {
			c.Research.Concurrency = n
		}
	}
	if raw := strings.TrimSpace(os.Getenv("RESEARCH_SCHEDULE_ENABLED")); raw != "" && !c.Schedule.Enabled {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			c.Schedule.Enabled = enabled
		}
	}
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" &&
		(c.Logging.Level == "" || c.Logging.Level == logging.DefaultLevel) {
		c.Logging.Level = level
	}
	return c
}

// Validate catches values that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.ListenAddr != "" && !strings.Contains(c.Server.ListenAddr, ":") {
		errs = append(errs, fmt.Errorf("server.listen_addr %q must include a port", c.Server.ListenAddr))
	}
	switch c.Search.Provider {
	case search.ProviderDuckDuckGo, search.ProviderExa, search.ProviderBrave, search.ProviderTavily, search.ProviderProxy:
	default:
		errs = append(errs, fmt.Errorf("unknown search.provider %q", c.Search.Provider))
	}
	if c.Runner.PreflightResults > search.MaxSearchCount {
		errs = append(errs, fmt.Errorf("runner.preflight_results must be at most %d", search.MaxSearchCount))
	}
	return errors.Join(errs...)
}

func upgradeConfig(helper configupgrade.Helper) {
	helper.Copy(configupgrade.Str, "server", "listen_addr")
	helper.Copy(configupgrade.List, "server", "cors_origins")

	helper.Copy(configupgrade.Str|configupgrade.Null, "search", "provider")
	helper.Copy(configupgrade.List, "search", "fallbacks")
	helper.Copy(configupgrade.Int, "search", "max_results")
	helper.Copy(configupgrade.List, "search", "denylist")
	for _, provider := range []string{"ddg", "exa", "brave", "tavily", "proxy"} {
		helper.Copy(configupgrade.Bool|configupgrade.Null, "search", provider, "enabled")
		helper.Copy(configupgrade.Str, "search", provider, "base_url")
		helper.Copy(configupgrade.Int, "search", provider, "timeout_seconds")
	}
	helper.Copy(configupgrade.Int, "search", "ddg", "min_interval_ms")
	helper.Copy(configupgrade.Int, "search", "ddg", "rate_limit_retries")
	helper.Copy(configupgrade.Int, "search", "ddg", "backoff_ms")
	helper.Copy(configupgrade.Str|configupgrade.Null, "search", "exa", "api_key")
	helper.Copy(configupgrade.Str, "search", "exa", "type")
	helper.Copy(configupgrade.Str, "search", "exa", "category")
	helper.Copy(configupgrade.Str|configupgrade.Null, "search", "brave", "api_key")
	helper.Copy(configupgrade.Str, "search", "brave", "search_lang")
	helper.Copy(configupgrade.Str, "search", "brave", "default_country")
	helper.Copy(configupgrade.Str, "search", "brave", "default_freshness")
	helper.Copy(configupgrade.Str|configupgrade.Null, "search", "tavily", "api_key")
	helper.Copy(configupgrade.Str, "search", "tavily", "depth")
	helper.Copy(configupgrade.Str|configupgrade.Null, "search", "proxy", "api_key")
	helper.Copy(configupgrade.Str, "search", "proxy", "search_path")
	helper.Copy(configupgrade.Map, "search", "proxy", "headers")

	helper.Copy(configupgrade.Str, "fetch", "user_agent")
	helper.Copy(configupgrade.Int, "fetch", "html_timeout_seconds")
	helper.Copy(configupgrade.Int, "fetch", "pdf_timeout_seconds")
	helper.Copy(configupgrade.Int, "fetch", "max_html_bytes")
	helper.Copy(configupgrade.Int, "fetch", "max_pdf_bytes")
	helper.Copy(configupgrade.Int, "fetch", "max_redirects")
	helper.Copy(configupgrade.Str|configupgrade.Null, "fetch", "temp_dir")
	helper.Copy(configupgrade.Bool, "fetch", "allow_private_hosts")

	helper.Copy(configupgrade.Int, "extract", "min_paragraph_chars")
	helper.Copy(configupgrade.Int, "extract", "min_total_chars")
	helper.Copy(configupgrade.Int, "extract", "max_pdf_pages")

	helper.Copy(configupgrade.Int, "research", "concurrency")

	helper.Copy(configupgrade.Str|configupgrade.Null, "llm", "base_url")
	helper.Copy(configupgrade.Str|configupgrade.Null, "llm", "model")
	helper.Copy(configupgrade.Str|configupgrade.Null, "llm", "api_key")
	helper.Copy(configupgrade.Int, "llm", "timeout_seconds")
	helper.Copy(configupgrade.Int, "llm", "max_retries")
	helper.Copy(configupgrade.Float|configupgrade.Int, "llm", "temperature")
	helper.Copy(configupgrade.Int, "llm", "max_tokens")
	helper.Copy(configupgrade.Bool, "llm", "keep_thinking")

	helper.Copy(configupgrade.Int, "crew", "max_tool_turns")
	helper.Copy(configupgrade.Int, "crew", "tool_output_tokens")

	helper.Copy(configupgrade.Str, "runner", "output_dir")
	helper.Copy(configupgrade.Int, "runner", "preflight_results")

	helper.Copy(configupgrade.Str, "store", "path")

	helper.Copy(configupgrade.Bool, "schedule", "enabled")
	helper.Copy(configupgrade.Str, "schedule", "store_path")
	helper.Copy(configupgrade.Int, "schedule", "max_concurrent_runs")
	helper.Copy(configupgrade.Int, "schedule", "poll_seconds")

	helper.Copy(configupgrade.Str, "logging", "level")
	helper.Copy(configupgrade.Str, "logging", "directory")
	helper.Copy(configupgrade.Str, "logging", "file_name")
	helper.Copy(configupgrade.Bool, "logging", "json")
	helper.Copy(configupgrade.Bool, "logging", "disable_file")
	helper.Copy(configupgrade.Int, "logging", "max_size_mb")
	helper.Copy(configupgrade.Int, "logging", "max_backups")
}
