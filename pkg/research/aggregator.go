package research

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/webresearch/research-bridge/pkg/extract"
	"github.com/webresearch/research-bridge/pkg/fetch"
	"github.com/webresearch/research-bridge/pkg/search"
)

// Resolver finds candidate URLs for a query.
type Resolver interface {
	Resolve(ctx context.Context, query string, maxResults int) ([]search.CandidateURL, error)
}

// Fetcher downloads one URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Extractor pulls text out of a download.
type Extractor interface {
	Extract(result *fetch.Result) extract.Extraction
}

// Aggregator runs search, fetch and extraction for a query.
type Aggregator struct {
	resolver  Resolver
	fetcher   Fetcher
	extractor Extractor
	cfg       *Config
	log       zerolog.Logger
}

func New(resolver Resolver, fetcher Fetcher, extractor Extractor, cfg *Config, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		resolver:  resolver,
		fetcher:   fetcher,
		extractor: extractor,
		cfg:       cfg.WithDefaults(),
		log:       log.With().Str("component", "research").Logger(),
	}
}

// SearchAndExtract returns the usable sources for query. An empty set is a
// normal outcome; it never fails.
func (a *Aggregator) SearchAndExtract(ctx context.Context, query string, numResults int) ResultSet {
	return a.Run(ctx, query, numResults).Kept()
}

// Run is SearchAndExtract keeping every record and the provider error.
func (a *Aggregator) Run(ctx context.Context, query string, numResults int) *Report {
	start := time.Now()
	report := &Report{Query: query, Requested: numResults}

	candidates, err := a.resolver.Resolve(ctx, query, numResults)
	if err != nil {
		report.ProviderError = err.Error()
	}
	report.Candidates = len(candidates)
	report.Records = a.process(ctx, candidates)
	report.TookMs = time.Since(start).Milliseconds()

	a.log.Info().
		Str("query", query).
		Int("candidates", report.Candidates).
		Int("kept", len(report.Kept())).
		Int64("took_ms", report.TookMs).
		Msg("Search and extract finished")
	return report
}

// process fetches and extracts every candidate with at most cfg.Concurrency
// in flight. Records land at their candidate index, so completion order never
// affects output order.
func (a *Aggregator) process(ctx context.Context, candidates []search.CandidateURL) []Record {
	records := make([]Record, len(candidates))
	var group errgroup.Group
	group.SetLimit(a.cfg.Concurrency)
	for i, candidate := range candidates {
		group.Go(func() error {
			records[i] = a.processOne(ctx, i, candidate)
			return nil
		})
	}
	_ = group.Wait()
	return records
}

func (a *Aggregator) processOne(ctx context.Context, index int, candidate search.CandidateURL) (record Record) {
	start := time.Now()
	record = Record{
		Index: index,
		URL:   candidate.URL,
		Title: candidate.Title,
		Kind:  fetch.KindForURL(candidate.URL),
	}
	defer func() {
		record.TookMs = time.Since(start).Milliseconds()
	}()

	if err := ctx.Err(); err != nil {
		record.Outcome = extract.OutcomeFailed
		record.Reason = fmt.Sprintf("skipped: %v", err)
		return record
	}

	result, err := a.fetcher.Fetch(ctx, candidate.URL)
	if err != nil {
		a.log.Warn().Err(err).Str("url", candidate.URL).Msg("Failed to fetch source")
		record.Outcome = extract.OutcomeFailed
		record.Reason = err.Error()
		return record
	}
	defer func() {
		if err := result.Close(); err != nil {
			a.log.Warn().Err(err).Str("url", candidate.URL).Msg("Failed to remove staged document")
		}
	}()

	extraction := a.extractor.Extract(result)
	record.Outcome = extraction.Outcome
	record.Reason = extraction.Reason
	if extraction.OK() {
		record.Text = extraction.Text
		if extraction.Title != "" {
			record.Title = extraction.Title
		}
	}
	return record
}
