package search

import (
	"context"
	"slices"
)

// Provider performs web searches for a given backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) (*Response, error)
}

// providerFactory builds a provider from config, or returns nil when the
// provider is disabled or missing credentials.
type providerFactory func(cfg *Config) Provider

var providerFactories = []providerFactory{
	newDDGProvider,
	newBraveProvider,
	newExaProvider,
	newTavilyProvider,
	newProxyProvider,
}

// Registry stores named providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// NewRegistryFromConfig registers every provider the config enables.
func NewRegistryFromConfig(cfg *Config) *Registry {
	registry := NewRegistry()
	for _, factory := range providerFactories {
		registry.Register(factory(cfg))
	}
	return registry
}

// Register adds or replaces a provider by name. Nil providers are ignored.
func (r *Registry) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[provider.Name()] = provider
}

// Get returns a provider by name.
func (r *Registry) Get(name string) Provider {
	if r == nil {
		return nil
	}
	return r.providers[name]
}

// Names returns registered provider names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
