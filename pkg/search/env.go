package search

import (
	"os"
	"slices"
	"strings"

	"github.com/webresearch/research-bridge/pkg/shared/stringutil"
)

// ApplyEnvDefaults fills config fields the file left empty, or at their
// default, from environment variables.
func ApplyEnvDefaults(cfg *Config) *Config {
	providerSet := cfg != nil && strings.TrimSpace(cfg.Provider) != ""
	current := cfg.WithDefaults()

	if provider := strings.TrimSpace(os.Getenv("SEARCH_PROVIDER")); provider != "" && !providerSet {
		current.Provider = provider
	}
	if fallbacks := stringutil.SplitCSV(os.Getenv("SEARCH_FALLBACKS")); len(fallbacks) > 0 &&
		slices.Equal(current.Fallbacks, DefaultFallbackOrder) {
		current.Fallbacks = fallbacks
	}
	if denylist := stringutil.SplitCSV(os.Getenv("SEARCH_DENYLIST")); len(denylist) > 0 &&
		(len(current.Denylist) == 0 || slices.Equal(current.Denylist, DefaultDenylist)) {
		current.Denylist = denylist
	}

	current.Exa.APIKey = envOverDefault(current.Exa.APIKey, "", "EXA_API_KEY")
	current.Exa.BaseURL = envOverDefault(current.Exa.BaseURL, DefaultExaBaseURL, "EXA_BASE_URL")
	current.Brave.APIKey = envOverDefault(current.Brave.APIKey, "", "BRAVE_API_KEY")
	current.Brave.BaseURL = envOverDefault(current.Brave.BaseURL, DefaultBraveBaseURL, "BRAVE_BASE_URL")
	current.Tavily.APIKey = envOverDefault(current.Tavily.APIKey, "", "TAVILY_API_KEY")
	current.Proxy.BaseURL = envOverDefault(current.Proxy.BaseURL, "", "SEARCH_PROXY_BASE_URL")
	current.Proxy.APIKey = envOverDefault(current.Proxy.APIKey, "", "SEARCH_PROXY_API_KEY")
	return current
}

// envOverDefault returns the environment value for key when value is empty
// or still fallback.
func envOverDefault(value, fallback, key string) string {
	if env := strings.TrimSpace(os.Getenv(key)); env != "" && (value == "" || value == fallback) {
		return env
	}
	return value
}
