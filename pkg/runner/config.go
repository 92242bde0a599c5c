package runner

import "strings"

const (
	DefaultOutputDir        = "research_outputs"
	DefaultPreflightResults = 3
	summaryTimeLayout       = "20060102_150405"
)

// Config controls where reports go and how the pre-flight search is sized.
type Config struct {
	OutputDir        string `yaml:"output_dir"`
	PreflightResults int    `yaml:"preflight_results"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.PreflightResults <= 0 {
		c.PreflightResults = DefaultPreflightResults
	}
	return c
}
