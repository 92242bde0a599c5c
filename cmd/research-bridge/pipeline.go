package main

import (
	"context"
	"fmt"

	"github.com/webresearch/research-bridge/pkg/agents/tools"
	"github.com/webresearch/research-bridge/pkg/crew"
	"github.com/webresearch/research-bridge/pkg/extract"
	"github.com/webresearch/research-bridge/pkg/fetch"
	"github.com/webresearch/research-bridge/pkg/llm"
	"github.com/webresearch/research-bridge/pkg/research"
	"github.com/webresearch/research-bridge/pkg/runner"
	"github.com/webresearch/research-bridge/pkg/search"
	"github.com/webresearch/research-bridge/pkg/store"
)

// newAggregator wires search, fetch and extract into the aggregation step.
func (a *app) newAggregator() *research.Aggregator {
	resolver := search.NewResolver(&a.cfg.Search, a.log)
	fetcher := fetch.New(&a.cfg.Fetch, a.log)
	extractor := extract.New(&a.cfg.Extract, a.log)
	return research.New(resolver, fetcher, extractor, &a.cfg.Research, a.log)
}

// newExecutor exposes the web search tool over the aggregator.
func newExecutor(aggregator *research.Aggregator) *tools.Executor {
	return tools.NewExecutor(tools.NewResearchRegistry(aggregator), nil)
}

// researchStack bundles a runner with the pieces it was built from. Close releases
// the run store.
type researchStack struct {
	aggregator *research.Aggregator
	runner     *runner.Runner
	store      *store.Store
}

func (a *app) newResearchStack(ctx context.Context) (*researchStack, error) {
	runs, err := store.Open(ctx, &a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	aggregator := a.newAggregator()
	model := llm.New(&a.cfg.LLM, a.log)
	team := crew.NewDefault(model, newExecutor(aggregator), &a.cfg.Crew, a.log)
	a.log.Info().
		Str("model", model.Model()).
		Str("base_url", a.cfg.LLM.BaseURL).
		Str("search_provider", a.cfg.Search.Provider).
		Msg("Research pipeline ready")
	return &researchStack{
		aggregator: aggregator,
		runner:     runner.New(aggregator, team, runs, &a.cfg.Runner, a.log),
		store:      runs,
	}, nil
}

func (s *researchStack) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}
