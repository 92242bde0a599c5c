package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/webresearch/research-bridge/pkg/llm"
	"github.com/webresearch/research-bridge/pkg/search"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SEARCH_PROVIDER", "SEARCH_FALLBACKS", "SEARCH_DENYLIST",
		"OLLAMA_BASE_URL", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "OPENAI_API_KEY",
		"RESEARCH_LISTEN_ADDR", "RESEARCH_OUTPUT_DIR", "RESEARCH_CONCURRENCY",
		"RESEARCH_SCHEDULE_ENABLED", "LOG_LEVEL", "FETCH_USER_AGENT",
		"EXA_BASE_URL", "BRAVE_BASE_URL", "EXA_API_KEY", "BRAVE_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadExampleConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":5000" {
		t.Fatalf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Search.MaxResults != 5 || cfg.Server.SearchResults != cfg.Search.MaxResults {
		t.Fatalf("search results = %d, server default = %d", cfg.Search.MaxResults, cfg.Server.SearchResults)
	}
	if cfg.Search.Provider != search.ProviderDuckDuckGo || len(cfg.Search.Denylist) != 3 {
		t.Fatalf("unexpected search config %+v", cfg.Search)
	}
	if cfg.LLM.BaseURL != llm.DefaultBaseURL || cfg.LLM.Model != llm.DefaultModel || cfg.LLM.APIKey != llm.DefaultAPIKey {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Research.Concurrency != 1 || cfg.Runner.OutputDir != "research_outputs" || cfg.Crew.MaxToolTurns != 4 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Logging.FileName != "research_summary.log" || cfg.Schedule.Enabled {
		t.Fatalf("unexpected logging/schedule %+v %+v", cfg.Logging, cfg.Schedule)
	}
}

func TestLoadFileMergesWithExample(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	const userYAML = `
search:
    denylist: []
research:
    concurrency: 64
llm:
    model: llama3
`
	if err := os.WriteFile(path, []byte(userYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Search.Denylist) != 0 {
		t.Fatalf("expected denylist cleared, got %v", cfg.Search.Denylist)
	}
	if cfg.Research.Concurrency != 16 {
		t.Fatalf("concurrency not clamped: %d", cfg.Research.Concurrency)
	}
	if cfg.LLM.Model != "llama3" || cfg.LLM.BaseURL != llm.DefaultBaseURL {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(saved), "preflight_results") || !strings.Contains(string(saved), "llama3") {
		t.Fatalf("saved config missing merged keys:\n%s", saved)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434/v1")
	t.Setenv("RESEARCH_LISTEN_ADDR", ":8080")
	t.Setenv("RESEARCH_OUTPUT_DIR", "/tmp/reports")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Parse([]byte(ExampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LLM.BaseURL != "http://ollama:11434/v1" || cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("env not applied: %+v %+v", cfg.LLM, cfg.Server)
	}
	if cfg.Runner.OutputDir != "/tmp/reports" || cfg.Logging.Level != "debug" {
		t.Fatalf("env not applied: %+v %+v", cfg.Runner, cfg.Logging)
	}
}

func TestSearchEnvOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEARCH_DENYLIST", "example.org, pinterest.com")
	t.Setenv("SEARCH_FALLBACKS", "exa,ddg")
	t.Setenv("EXA_BASE_URL", "http://exa.internal")
	t.Setenv("BRAVE_BASE_URL", "http://brave.internal")
	t.Setenv("FETCH_USER_AGENT", "research-bot/2")
	cfg, err := Parse([]byte(ExampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Join(cfg.Search.Denylist, ",") != "example.org,pinterest.com" {
		t.Fatalf("denylist = %v", cfg.Search.Denylist)
	}
	if strings.Join(cfg.Search.Fallbacks, ",") != "exa,ddg" {
		t.Fatalf("fallbacks = %v", cfg.Search.Fallbacks)
	}
	if cfg.Search.Exa.BaseURL != "http://exa.internal" || cfg.Search.Brave.BaseURL != "http://brave.internal" {
		t.Fatalf("base urls = %q %q", cfg.Search.Exa.BaseURL, cfg.Search.Brave.BaseURL)
	}
	if cfg.Fetch.UserAgent != "research-bot/2" {
		t.Fatalf("user agent = %q", cfg.Fetch.UserAgent)
	}
}

func TestFileValuesWinOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESEARCH_LISTEN_ADDR", ":8080")
	t.Setenv("SEARCH_DENYLIST", "example.org")
	t.Setenv("EXA_BASE_URL", "http://exa.internal")
	t.Setenv("LOG_LEVEL", "debug")
	const fileYAML = `
server:
    listen_addr: ":9000"
search:
    denylist: [paywall.example]
    exa:
        base_url: http://exa.mirror
logging:
    level: warn
`
	cfg, err := Parse([]byte(fileYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.ListenAddr != ":9000" || cfg.Logging.Level != "warn" {
		t.Fatalf("env replaced file values: %+v %+v", cfg.Server, cfg.Logging)
	}
	if len(cfg.Search.Denylist) != 1 || cfg.Search.Denylist[0] != "paywall.example" || cfg.Search.Exa.BaseURL != "http://exa.mirror" {
		t.Fatalf("env replaced search values: %+v", cfg.Search)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("search:\n    provider: bing\nserver:\n    listen_addr: localhost\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "bing") || !strings.Contains(err.Error(), "port") {
		t.Fatalf("unexpected error %v", err)
	}
}
