package search

import "strings"

// Denylist is an ordered set of substrings. A URL containing any entry is
// never fetched. Matching is case-sensitive against the full URL string.
type Denylist []string

// Match reports the first entry contained in rawURL.
func (d Denylist) Match(rawURL string) (string, bool) {
	for _, entry := range d {
		if entry == "" {
			continue
		}
		if strings.Contains(rawURL, entry) {
			return entry, true
		}
	}
	return "", false
}
