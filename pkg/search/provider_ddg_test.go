package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const ddgLitePage = `<html><body><table>
<tr><td>1.&nbsp;</td><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fquantum&amp;rut=abc" class='result-link'>Quantum  computing
 explained</a></td></tr>
<tr><td></td><td class='result-snippet'>An introduction to   qubits.</td></tr>
<tr><td>2.&nbsp;</td><td><a rel="nofollow" href="https://duckduckgo.com/y.js?ad_provider=x" class='result-link'>Sponsored</a></td></tr>
<tr><td></td><td class='result-snippet'>Ad copy.</td></tr>
<tr><td>3.&nbsp;</td><td><a rel="nofollow" href="https://arxiv.org/pdf/1234.pdf" class='result-link'>A paper</a></td></tr>
<tr><td></td><td class='result-snippet'>Paper abstract.</td></tr>
</table></body></html>`

func TestDDGProviderParsesLiteResults(t *testing.T) {
	var gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotQuery = r.PostForm.Get("q")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(ddgLitePage))
	}))
	defer server.Close()

	cfg := (&Config{DDG: DDGConfig{BaseURL: server.URL, MinIntervalMs: 1}}).WithDefaults()
	provider := newDDGProvider(cfg)
	resp, err := provider.Search(context.Background(), Request{Query: "quantum computing", Count: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "quantum computing" {
		t.Fatalf("expected form query, got %q", gotQuery)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", gotUA)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(resp.Results), resp.Results)
	}
	first := resp.Results[0]
	if first.URL != "https://example.com/quantum" {
		t.Fatalf("expected unwrapped redirect, got %q", first.URL)
	}
	if first.Title != "Quantum computing explained" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.Description != "An introduction to qubits." {
		t.Fatalf("unexpected snippet %q", first.Description)
	}
	if resp.Results[1].Description != "Paper abstract." {
		t.Fatalf("snippets misaligned: %+v", resp.Results[1])
	}
}

func TestDDGProviderReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := (&Config{DDG: DDGConfig{BaseURL: server.URL, MinIntervalMs: 1, BackoffMs: 1}}).WithDefaults()
	_, err := newDDGProvider(cfg).Search(context.Background(), Request{Query: "x", Count: 3})
	if err == nil || err.Error() != "status 429" {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestDDGProviderBacksOffOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(ddgLitePage))
	}))
	defer server.Close()

	cfg := (&Config{DDG: DDGConfig{BaseURL: server.URL, MinIntervalMs: 1, BackoffMs: 1, RateLimitRetries: 2}}).WithDefaults()
	resp, err := newDDGProvider(cfg).Search(context.Background(), Request{Query: "x", Count: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 || len(resp.Results) != 2 {
		t.Fatalf("calls=%d results=%d", calls.Load(), len(resp.Results))
	}
}

func TestDDGProviderGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := (&Config{DDG: DDGConfig{BaseURL: server.URL, MinIntervalMs: 1, BackoffMs: 1, RateLimitRetries: 1}}).WithDefaults()
	if _, err := newDDGProvider(cfg).Search(context.Background(), Request{Query: "x", Count: 3}); err == nil {
		t.Fatalf("expected error after retries")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}

func TestResolveDDGHref(t *testing.T) {
	cases := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example%2Fx": "https://a.example/x",
		"https://duckduckgo.com/about":                          "",
		"https://b.example/y":                                   "https://b.example/y",
		"javascript:void(0)":                                    "",
		"":                                                      "",
	}
	for in, want := range cases {
		if got := resolveDDGHref(in); got != want {
			t.Fatalf("resolveDDGHref(%q) = %q, want %q", in, got, want)
		}
	}
}
