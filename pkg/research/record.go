package research

import (
	"strings"

	"github.com/webresearch/research-bridge/pkg/extract"
	"github.com/webresearch/research-bridge/pkg/fetch"
)

// Record is the processing result for one candidate URL.
type Record struct {
	Index   int             `json:"index"`
	URL     string          `json:"url"`
	Title   string          `json:"title,omitempty"`
	Kind    fetch.Kind      `json:"kind"`
	Text    string          `json:"text,omitempty"`
	Outcome extract.Outcome `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
	TookMs  int64           `json:"took_ms"`
}

// ResultSet holds usable records in candidate order.
type ResultSet []Record

// URLs lists the sources in order.
func (rs ResultSet) URLs() []string {
	out := make([]string, len(rs))
	for i, record := range rs {
		out[i] = record.URL
	}
	return out
}

// Report is the diagnostic view of one run: every record, kept or dropped,
// and the search failure if there was one.
type Report struct {
	Query         string   `json:"query"`
	Requested     int      `json:"requested"`
	Candidates    int      `json:"candidates"`
	Records       []Record `json:"records"`
	ProviderError string   `json:"provider_error,omitempty"`
	TookMs        int64    `json:"took_ms"`
}

// Kept returns the records with an ok outcome, preserving order.
func (r *Report) Kept() ResultSet {
	if r == nil {
		return ResultSet{}
	}
	out := make(ResultSet, 0, len(r.Records))
	for _, record := range r.Records {
		if record.Outcome == extract.OutcomeOK {
			out = append(out, record)
		}
	}
	return out
}

// Render formats records as "Source: <url>\n<text>" blocks separated by a
// blank line.
func Render(rs ResultSet) string {
	blocks := make([]string, len(rs))
	for i, record := range rs {
		blocks[i] = "Source: " + record.URL + "\n" + record.Text
	}
	return strings.Join(blocks, "\n\n")
}
