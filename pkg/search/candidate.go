package search

import (
	"net/url"
	"path"
	"strings"
)

// CandidateURL is a search hit eligible for fetching.
type CandidateURL struct {
	URL     string `json:"url"`
	Host    string `json:"host"`
	Suffix  string `json:"suffix,omitempty"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	// Rank is the position in the provider response before filtering.
	Rank int `json:"rank"`
}

// NewCandidate builds a candidate from a normalized search result. It returns
// false for results without a usable absolute URL.
func NewCandidate(result Result, rank int) (CandidateURL, bool) {
	raw := strings.TrimSpace(result.URL)
	if raw == "" {
		return CandidateURL{}, false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return CandidateURL{}, false
	}
	return CandidateURL{
		URL:     raw,
		Host:    parsed.Hostname(),
		Suffix:  path.Ext(parsed.Path),
		Title:   result.Title,
		Snippet: result.Description,
		Rank:    rank,
	}, true
}

func resolveSiteName(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
