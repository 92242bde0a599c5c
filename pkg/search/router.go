package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNoProviders is returned when the config enables no usable provider.
var ErrNoProviders = errors.New("no search providers available")

// SearchWithRegistry walks the provider chain from cfg and returns the first
// response. A failing provider hands over to the next one. A nil registry is
// built from cfg.
func SearchWithRegistry(ctx context.Context, req Request, cfg *Config, registry *Registry) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("missing query")
	}
	cfg = cfg.WithDefaults()
	req = normalizeRequest(req)
	if registry == nil {
		registry = NewRegistryFromConfig(cfg)
	}

	var lastErr error
	for _, name := range buildOrder(cfg) {
		provider := registry.Get(name)
		if provider == nil {
			continue
		}
		resp, err := provider.Search(ctx, req)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("provider", name).Msg("Search provider failed, trying next")
			lastErr = fmt.Errorf("%s: %w", name, err)
			continue
		}
		if resp == nil {
			lastErr = fmt.Errorf("provider %s returned empty response", name)
			continue
		}
		if resp.Provider == "" {
			resp.Provider = name
		}
		if resp.Query == "" {
			resp.Query = req.Query
		}
		if len(resp.Results) > req.Count {
			resp.Results = resp.Results[:req.Count]
		}
		resp.Count = len(resp.Results)
		resp.NoResults = resp.Count == 0
		return resp, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoProviders
}

func normalizeRequest(req Request) Request {
	req.Query = strings.TrimSpace(req.Query)
	if req.Count <= 0 {
		req.Count = DefaultSearchCount
	}
	if req.Count > MaxSearchCount {
		req.Count = MaxSearchCount
	}
	return req
}

func buildOrder(cfg *Config) []string {
	order := make([]string, 0, len(cfg.Fallbacks)+1)
	provider := strings.TrimSpace(cfg.Provider)
	if provider != "" && provider != "auto" {
		order = append(order, provider)
	}
	order = append(order, cfg.Fallbacks...)
	return dedupeOrder(order)
}

func dedupeOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	if len(result) == 0 {
		return slices.Clone(DefaultFallbackOrder)
	}
	return result
}
