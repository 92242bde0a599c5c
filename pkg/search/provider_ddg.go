package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxDDGBackoff = 30 * time.Second

// ddgGate spaces out DuckDuckGo queries across all provider instances;
// the lite endpoint starts returning challenge pages when hit in bursts.
var ddgGate struct {
	mu   sync.Mutex
	last time.Time
}

type ddgProvider struct {
	cfg    DDGConfig
	client *http.Client
}

func newDDGProvider(cfg *Config) Provider {
	if cfg == nil {
		return nil
	}
	if !isEnabled(cfg.DDG.Enabled, true) {
		return nil
	}
	return &ddgProvider{
		cfg:    cfg.DDG,
		client: &http.Client{Timeout: time.Duration(cfg.DDG.TimeoutSecs) * time.Second},
	}
}

func (p *ddgProvider) Name() string {
	return ProviderDuckDuckGo
}

func (p *ddgProvider) Search(ctx context.Context, req Request) (*Response, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", req.Query)
	if req.Country != "" {
		form.Set("kl", req.Country)
	}

	start := time.Now()
	resp, err := p.post(ctx, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	results := parseDDGResults(doc, req.Count)

	return &Response{
		Query:     req.Query,
		Provider:  ProviderDuckDuckGo,
		Count:     len(results),
		TookMs:    time.Since(start).Milliseconds(),
		Results:   results,
		NoResults: len(results) == 0,
	}, nil
}

// post sends the query form, backing off on 429 up to RateLimitRetries times
// with a doubling delay capped at maxDDGBackoff.
func (p *ddgProvider) post(ctx context.Context, form url.Values) (*http.Response, error) {
	delay := time.Duration(p.cfg.BackoffMs) * time.Millisecond
	for attempt := 0; ; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("User-Agent", p.cfg.UserAgent)
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= p.cfg.RateLimitRetries {
			return resp, nil
		}
		resp.Body.Close()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, maxDDGBackoff)
	}
}

func (p *ddgProvider) wait(ctx context.Context) error {
	interval := time.Duration(p.cfg.MinIntervalMs) * time.Millisecond
	ddgGate.mu.Lock()
	defer ddgGate.mu.Unlock()
	if wait := time.Until(ddgGate.last.Add(interval)); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	ddgGate.last = time.Now()
	return nil
}

// parseDDGResults reads result links from both the lite and the html
// DuckDuckGo layouts.
func parseDDGResults(doc *goquery.Document, limit int) []Result {
	var snippets []string
	doc.Find("td.result-snippet, .result__snippet").Each(func(_ int, s *goquery.Selection) {
		snippets = append(snippets, strings.Join(strings.Fields(s.Text()), " "))
	})

	var results []Result
	doc.Find("a.result-link, a.result__a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		target := resolveDDGHref(href)
		title := strings.Join(strings.Fields(s.Text()), " ")
		if target == "" || title == "" {
			return true
		}
		result := Result{
			Title:    title,
			URL:      target,
			SiteName: resolveSiteName(target),
		}
		if i < len(snippets) {
			result.Description = snippets[i]
		}
		results = append(results, result)
		return limit <= 0 || len(results) < limit
	})
	return results
}

// resolveDDGHref unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=...)
// and drops ads and internal links.
func resolveDDGHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(parsed.Hostname(), "duckduckgo.com") {
		target := parsed.Query().Get("uddg")
		if target == "" {
			return ""
		}
		return resolveDDGHref(target)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}
