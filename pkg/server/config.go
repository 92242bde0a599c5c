package server

import (
	"os"
	"strings"
)

const (
	DefaultListenAddr    = ":5000"
	DefaultSearchResults = 5
)

type Config struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	// SearchResults is the /search default count, taken from search.max_results.
	SearchResults int `yaml:"-"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.CORSOrigins == nil {
		c.CORSOrigins = []string{"*"}
	}
	if c.SearchResults <= 0 {
		c.SearchResults = DefaultSearchResults
	}
	return c
}

// ApplyEnvDefaults takes RESEARCH_LISTEN_ADDR when the file left the listen
// address empty or at its default.
func ApplyEnvDefaults(cfg *Config) *Config {
	cfg = cfg.WithDefaults()
	if addr := strings.TrimSpace(os.Getenv("RESEARCH_LISTEN_ADDR")); addr != "" && cfg.ListenAddr == DefaultListenAddr {
		cfg.ListenAddr = addr
	}
	return cfg
}
