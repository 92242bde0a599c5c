package search

import (
	"slices"
	"strings"
)

const (
	ProviderProxy       = "proxy"
	ProviderExa         = "exa"
	ProviderBrave       = "brave"
	ProviderTavily      = "tavily"
	ProviderDuckDuckGo  = "ddg"
	DefaultSearchCount  = 10
	DefaultMaxResults   = 5
	MaxSearchCount      = 20
	DefaultTimeoutSecs  = 30
	DefaultExaBaseURL   = "https://api.exa.ai"
	DefaultBraveBaseURL = "https://api.search.brave.com/res/v1/web/search"
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var DefaultFallbackOrder = []string{
	ProviderDuckDuckGo,
}

// DefaultDenylist holds hosts that reject automated fetching.
var DefaultDenylist = []string{
	"researchgate.net",
	"academia.edu",
	"sciencedirect.com",
}

// Config controls search provider selection, credentials and result filtering.
type Config struct {
	Provider   string   `yaml:"provider"`
	Fallbacks  []string `yaml:"fallbacks"`
	MaxResults int      `yaml:"max_results"` // count used when a caller does not ask for one
	Denylist   []string `yaml:"denylist"`

	Proxy  ProxyConfig  `yaml:"proxy"`
	Exa    ExaConfig    `yaml:"exa"`
	Brave  BraveConfig  `yaml:"brave"`
	Tavily TavilyConfig `yaml:"tavily"`
	DDG    DDGConfig    `yaml:"ddg"`
}

type ProxyConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	SearchPath  string `yaml:"search_path"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
	// Headers are sent with every proxy request.
	Headers map[string]string `yaml:"headers"`
}

type ExaConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Type        string `yaml:"type"`
	Category    string `yaml:"category"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

type BraveConfig struct {
	Enabled          *bool  `yaml:"enabled"`
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	TimeoutSecs      int    `yaml:"timeout_seconds"`
	SearchLang       string `yaml:"search_lang"`
	DefaultCountry   string `yaml:"default_country"`
	DefaultFreshness string `yaml:"default_freshness"`
}

type TavilyConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Depth       string `yaml:"depth"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

// DDGConfig configures the keyless DuckDuckGo lite scraper.
type DDGConfig struct {
	Enabled          *bool  `yaml:"enabled"`
	BaseURL          string `yaml:"base_url"`
	UserAgent        string `yaml:"user_agent"`
	TimeoutSecs      int    `yaml:"timeout_seconds"`
	MinIntervalMs    int    `yaml:"min_interval_ms"`
	RateLimitRetries int    `yaml:"rate_limit_retries"`
	BackoffMs        int    `yaml:"backoff_ms"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = ProviderDuckDuckGo
	}
	if len(c.Fallbacks) == 0 {
		c.Fallbacks = slices.Clone(DefaultFallbackOrder)
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	c.MaxResults = min(c.MaxResults, MaxSearchCount)
	if c.Denylist == nil {
		c.Denylist = slices.Clone(DefaultDenylist)
	}
	c.Proxy = c.Proxy.withDefaults()
	c.Exa = c.Exa.withDefaults()
	c.Brave = c.Brave.withDefaults()
	c.Tavily = c.Tavily.withDefaults()
	c.DDG = c.DDG.withDefaults()
	return c
}

func (c ProxyConfig) withDefaults() ProxyConfig {
	if c.SearchPath == "" {
		c.SearchPath = "/search"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	return c
}

func (c ExaConfig) withDefaults() ExaConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultExaBaseURL
	}
	if c.Type == "" {
		c.Type = "auto"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	return c
}

func (c BraveConfig) withDefaults() BraveConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBraveBaseURL
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	return c
}

func (c TavilyConfig) withDefaults() TavilyConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.tavily.com"
	}
	if c.Depth == "" {
		c.Depth = "basic"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	return c
}

func (c DDGConfig) withDefaults() DDGConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://lite.duckduckgo.com/lite/"
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.MinIntervalMs <= 0 {
		c.MinIntervalMs = 1000
	}
	if c.RateLimitRetries <= 0 {
		c.RateLimitRetries = 3
	}
	if c.BackoffMs <= 0 {
		c.BackoffMs = 1000
	}
	return c
}

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
