package fetch

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnvDefaults fills config fields the file left empty, or at their
// default, from environment variables.
func ApplyEnvDefaults(cfg *Config) *Config {
	current := cfg.WithDefaults()
	if ua := strings.TrimSpace(os.Getenv("FETCH_USER_AGENT")); ua != "" && current.UserAgent == DefaultUserAgent {
		current.UserAgent = ua
	}
	if dir := strings.TrimSpace(os.Getenv("FETCH_TEMP_DIR")); dir != "" && current.TempDir == "" {
		current.TempDir = dir
	}
	if raw := strings.TrimSpace(os.Getenv("FETCH_ALLOW_PRIVATE_HOSTS")); raw != "" && !current.AllowPrivateHosts {
		if allow, err := strconv.ParseBool(raw); err == nil {
			current.AllowPrivateHosts = allow
		}
	}
	return current
}
