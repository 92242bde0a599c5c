package search

// Request represents a normalized web search request.
type Request struct {
	Query      string
	Count      int
	Country    string
	SearchLang string
	Freshness  string
}

// Result is a normalized search result.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Published   string `json:"published,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
}

// Response is a normalized search response.
type Response struct {
	Query     string   `json:"query"`
	Provider  string   `json:"provider"`
	Count     int      `json:"count"`
	TookMs    int64    `json:"took_ms"`
	Results   []Result `json:"results"`
	NoResults bool     `json:"no_results,omitempty"`
}
