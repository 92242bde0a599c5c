package llm

import (
	"os"
	"strings"

	"github.com/webresearch/research-bridge/pkg/shared/stringutil"
)

const (
	DefaultBaseURL     = "http://localhost:11434/v1"
	DefaultModel       = "deepseek-r1:1.5b"
	DefaultAPIKey      = "NA"
	DefaultTimeoutSecs = 300
	DefaultMaxRetries  = 1
)

// Config points the client at an OpenAI-compatible endpoint, usually Ollama.
type Config struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	TimeoutSecs int     `yaml:"timeout_seconds"`
	MaxRetries  int     `yaml:"max_retries"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// KeepThinking leaves <think> blocks in returned content.
	KeepThinking bool `yaml:"keep_thinking"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if strings.TrimSpace(c.APIKey) == "" {
		c.APIKey = DefaultAPIKey
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// ApplyEnvDefaults fills empty config fields from environment variables.
// OLLAMA_BASE_URL wins over LLM_BASE_URL.
func ApplyEnvDefaults(cfg *Config) *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = stringutil.FirstNonEmpty(os.Getenv("OLLAMA_BASE_URL"), os.Getenv("LLM_BASE_URL"))
	}
	if cfg.Model == "" {
		cfg.Model = stringutil.EnvOr(cfg.Model, os.Getenv("LLM_MODEL"))
	}
	if cfg.APIKey == "" {
		cfg.APIKey = stringutil.FirstNonEmpty(os.Getenv("LLM_API_KEY"), os.Getenv("OPENAI_API_KEY"))
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return cfg.WithDefaults()
}
