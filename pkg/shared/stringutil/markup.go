package stringutil

import (
	"regexp"
	"strings"
)

var (
	mdEmphasisPrefixRE = regexp.MustCompile("^[*`~_]+")
	mdEmphasisSuffixRE = regexp.MustCompile("[*`~_]+$")
)

// TrimLeadingEmphasis drops markdown emphasis runs that models leave at the
// start of a section, e.g. the closing "**" of "**Final Answer:**".
func TrimLeadingEmphasis(text string) string {
	return strings.TrimSpace(mdEmphasisPrefixRE.ReplaceAllString(strings.TrimSpace(text), ""))
}

// TrimTrailingEmphasis is the suffix counterpart of TrimLeadingEmphasis.
func TrimTrailingEmphasis(text string) string {
	return strings.TrimSpace(mdEmphasisSuffixRE.ReplaceAllString(strings.TrimSpace(text), ""))
}
