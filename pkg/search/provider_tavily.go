package search

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/webresearch/research-bridge/pkg/shared/httputil"
)

// tavilyProvider calls the Tavily search API.
type tavilyProvider struct {
	cfg TavilyConfig
}

func newTavilyProvider(cfg *Config) Provider {
	if cfg == nil {
		return nil
	}
	if !isEnabled(cfg.Tavily.Enabled, true) {
		return nil
	}
	if strings.TrimSpace(cfg.Tavily.APIKey) == "" {
		return nil
	}
	return &tavilyProvider{cfg: cfg.Tavily}
}

func (p *tavilyProvider) Name() string {
	return ProviderTavily
}

func (p *tavilyProvider) Search(ctx context.Context, req Request) (*Response, error) {
	payload := map[string]any{
		"query":        req.Query,
		"search_depth": p.cfg.Depth,
		"max_results":  req.Count,
	}

	start := time.Now()
	data, _, err := httputil.PostJSON(ctx, resolveEndpoint(p.cfg.BaseURL, "/search"), map[string]string{
		"Authorization": "Bearer " + p.cfg.APIKey,
	}, payload, p.cfg.TimeoutSecs)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			Content       string `json:"content"`
			PublishedDate string `json:"published_date"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Results))
	for _, entry := range resp.Results {
		results = append(results, Result{
			Title:       strings.TrimSpace(entry.Title),
			URL:         entry.URL,
			Description: truncate(entry.Content, 240),
			Published:   entry.PublishedDate,
			SiteName:    resolveSiteName(entry.URL),
		})
	}

	return &Response{
		Query:     req.Query,
		Provider:  ProviderTavily,
		Count:     len(results),
		TookMs:    time.Since(start).Milliseconds(),
		Results:   results,
		NoResults: len(results) == 0,
	}, nil
}
