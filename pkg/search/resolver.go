package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrProviderUnavailable wraps every failure of the provider chain, so
	// callers can tell "provider down" apart from "no results".
	ErrProviderUnavailable = errors.New("search provider unavailable")
	ErrEmptyQuery          = errors.New("empty search query")
)

// Resolver turns a query into an ordered list of fetchable candidates.
type Resolver struct {
	cfg      *Config
	registry *Registry
	denylist Denylist
	log      zerolog.Logger
}

// NewResolver builds a resolver with providers taken from cfg.
func NewResolver(cfg *Config, log zerolog.Logger) *Resolver {
	cfg = cfg.WithDefaults()
	return NewResolverWithRegistry(cfg, NewRegistryFromConfig(cfg), log)
}

// NewResolverWithRegistry builds a resolver over an explicit provider registry.
func NewResolverWithRegistry(cfg *Config, registry *Registry, log zerolog.Logger) *Resolver {
	cfg = cfg.WithDefaults()
	return &Resolver{
		cfg:      cfg,
		registry: registry,
		denylist: Denylist(cfg.Denylist),
		log:      log.With().Str("component", "search").Logger(),
	}
}

// Resolve issues one search for query and returns at most maxResults
// candidates in provider order, minus denylisted URLs. On provider failure it
// returns an empty slice together with an error wrapping
// ErrProviderUnavailable.
func (r *Resolver) Resolve(ctx context.Context, query string, maxResults int) ([]CandidateURL, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []CandidateURL{}, ErrEmptyQuery
	}
	if maxResults <= 0 {
		return []CandidateURL{}, nil
	}

	resp, err := SearchWithRegistry(r.log.WithContext(ctx), Request{Query: query, Count: maxResults}, r.cfg, r.registry)
	if err != nil {
		r.log.Warn().Err(err).Str("query", query).Msg("Search provider failed")
		return []CandidateURL{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	results := resp.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	candidates := make([]CandidateURL, 0, len(results))
	for i, result := range results {
		candidate, ok := NewCandidate(result, i)
		if !ok {
			r.log.Debug().Str("url", result.URL).Msg("Skipping search result without absolute URL")
			continue
		}
		if entry, blocked := r.denylist.Match(candidate.URL); blocked {
			r.log.Debug().Str("url", candidate.URL).Str("entry", entry).Msg("Skipping denylisted URL")
			continue
		}
		candidates = append(candidates, candidate)
	}
	r.log.Debug().
		Str("query", query).
		Str("provider", resp.Provider).
		Int("returned", len(resp.Results)).
		Int("kept", len(candidates)).
		Msg("Resolved search candidates")
	return candidates, nil
}
