package llm

import (
	"regexp"
	"strings"
)

var thinkTagPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>\s*`)

// StripThinking removes <think>...</think> blocks emitted by reasoning models
// and returns the remaining content together with the collected reasoning.
// An unterminated <think> swallows the rest of the text.
func StripThinking(text string) (content, reasoning string) {
	var traces []string
	for _, m := range thinkTagPattern.FindAllStringSubmatch(text, -1) {
		if trace := strings.TrimSpace(m[1]); trace != "" {
			traces = append(traces, trace)
		}
	}
	content = thinkTagPattern.ReplaceAllString(text, "")
	if idx := strings.Index(content, "<think>"); idx >= 0 {
		if trace := strings.TrimSpace(content[idx+len("<think>"):]); trace != "" {
			traces = append(traces, trace)
		}
		content = content[:idx]
	}
	return strings.TrimSpace(content), strings.Join(traces, "\n")
}
