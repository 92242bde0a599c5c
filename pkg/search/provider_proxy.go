package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/webresearch/research-bridge/pkg/shared/httputil"
)

// proxyProvider forwards searches to a service speaking the Response JSON shape.
type proxyProvider struct {
	cfg ProxyConfig
}

func newProxyProvider(cfg *Config) Provider {
	if cfg == nil {
		return nil
	}
	if !isEnabled(cfg.Proxy.Enabled, true) {
		return nil
	}
	if strings.TrimSpace(cfg.Proxy.BaseURL) == "" {
		return nil
	}
	return &proxyProvider{cfg: cfg.Proxy}
}

func (p *proxyProvider) Name() string {
	return ProviderProxy
}

func (p *proxyProvider) Search(ctx context.Context, req Request) (*Response, error) {
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + p.cfg.SearchPath
	payload := map[string]any{
		"query":       req.Query,
		"count":       req.Count,
		"country":     req.Country,
		"search_lang": req.SearchLang,
		"freshness":   req.Freshness,
	}
	headers := p.cfg.Headers
	if p.cfg.APIKey != "" {
		headers = httputil.MergeHeaders(headers, map[string]string{"Authorization": "Bearer " + p.cfg.APIKey})
	}

	start := time.Now()
	data, _, err := httputil.PostJSON(ctx, endpoint, headers, payload, p.cfg.TimeoutSecs)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("proxy response parse error: %w", err)
	}
	if resp.Provider == "" {
		resp.Provider = ProviderProxy
	}
	if resp.Query == "" {
		resp.Query = req.Query
	}
	resp.TookMs = time.Since(start).Milliseconds()
	return &resp, nil
}
