package fetch

import (
	"net/url"
	"strings"
)

// Kind selects the download and extraction strategy for a URL.
type Kind string

const (
	KindHTML Kind = "html"
	KindPDF  Kind = "pdf"
)

// KindForURL returns KindPDF when the URL path ends with ".pdf". The match is
// case-sensitive, so "report.PDF" is treated as a web page.
func KindForURL(rawURL string) Kind {
	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		path = parsed.Path
	}
	if strings.HasSuffix(path, ".pdf") {
		return KindPDF
	}
	return KindHTML
}
