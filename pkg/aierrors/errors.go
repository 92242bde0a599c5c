// Package aierrors classifies failures returned by OpenAI-compatible model
// endpoints and turns them into short messages for API callers.
package aierrors

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
)

// Code identifies a class of model endpoint failure.
type Code string

const (
	LLMRateLimited    Code = "llm-rate-limited"
	LLMAuthFailed     Code = "llm-auth-failed"
	LLMContextTooLong Code = "llm-context-too-long"
	LLMModelNotFound  Code = "llm-model-not-found"
	LLMUnreachable    Code = "llm-unreachable"
	LLMOverloaded     Code = "llm-overloaded"
	LLMTimeout        Code = "llm-timeout"
	LLMServerError    Code = "llm-server-error"
)

// HumanErrors provides human-readable messages for each code.
var HumanErrors = map[Code]string{
	LLMRateLimited:    "The language model is rate limiting requests. Wait a moment, then try again.",
	LLMAuthFailed:     "The language model rejected the API key.",
	LLMContextTooLong: "The research material is too long for this model.",
	LLMModelNotFound:  "The configured model isn't available on the model server.",
	LLMUnreachable:    "The model server can't be reached. Check OLLAMA_BASE_URL.",
	LLMOverloaded:     "The model server is busy right now. Try again in a moment.",
	LLMTimeout:        "The model request timed out. Try again.",
	LLMServerError:    "The model server returned an error. Try again later.",
}

var (
	maxContextPattern     = regexp.MustCompile(`maximum context length is (\d+) tokens`)
	resultedTokensPattern = regexp.MustCompile(`resulted in (\d+) tokens`)
	promptTooLongPattern  = regexp.MustCompile(`prompt is too long:\s*(\d+)\s*tokens\s*>\s*(\d+)\s*maximum`)
)

// Classify maps an error to a code. It returns "" for errors that are not
// recognizable model endpoint failures.
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	switch {
	case ParseContextLengthError(err) != nil:
		return LLMContextTooLong
	case IsRateLimitError(err):
		return LLMRateLimited
	case IsAuthError(err):
		return LLMAuthFailed
	case IsModelNotFound(err):
		return LLMModelNotFound
	case IsTimeoutError(err):
		return LLMTimeout
	case IsConnectionError(err):
		return LLMUnreachable
	case IsOverloadedError(err):
		return LLMOverloaded
	case IsServerError(err):
		return LLMServerError
	}
	return ""
}

// ContextLengthError contains parsed details from context_length_exceeded errors
type ContextLengthError struct {
	ModelMaxTokens  int
	RequestedTokens int
	OriginalError   error
}

func (e *ContextLengthError) Error() string {
	return e.OriginalError.Error()
}

func (e *ContextLengthError) Unwrap() error {
	return e.OriginalError
}

func hasContextLengthSignal(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "context length") ||
		strings.Contains(lower, "context_length") ||
		strings.Contains(lower, "prompt is too long") ||
		strings.Contains(lower, "exceeds model context window")
}

// ParseContextLengthError checks if err is a context length exceeded error
// and extracts the token counts from the error message
func ParseContextLengthError(err error) *ContextLengthError {
	if err == nil {
		return nil
	}
	var cle *ContextLengthError
	if errors.As(err, &cle) {
		return cle
	}

	sources := []string{err.Error()}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			sources = append(sources, apiErr.Message)
		}
		if raw := apiErr.RawJSON(); raw != "" {
			sources = append(sources, raw)
		}
	}

	matched := false
	result := &ContextLengthError{OriginalError: err}
	for _, source := range sources {
		if !hasContextLengthSignal(source) {
			continue
		}
		matched = true
		lower := strings.ToLower(source)
		if m := maxContextPattern.FindStringSubmatch(lower); len(m) > 1 {
			result.ModelMaxTokens, _ = strconv.Atoi(m[1])
		}
		if m := resultedTokensPattern.FindStringSubmatch(lower); len(m) > 1 {
			result.RequestedTokens, _ = strconv.Atoi(m[1])
		}
		if m := promptTooLongPattern.FindStringSubmatch(lower); len(m) > 2 {
			result.RequestedTokens, _ = strconv.Atoi(m[1])
			result.ModelMaxTokens, _ = strconv.Atoi(m[2])
		}
	}
	if !matched {
		return nil
	}
	if apiErr != nil && apiErr.StatusCode != 0 && apiErr.StatusCode != 400 && apiErr.StatusCode != 413 {
		return nil
	}
	return result
}

// IsRateLimitError checks if the error is a rate limit (429) error
func IsRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if strings.EqualFold(apiErr.Code, "rate_limit_exceeded") || apiErr.StatusCode == 429 {
			return true
		}
	}
	return ContainsAnyPattern(err, []string{
		"rate limit",
		"quota exceeded",
		"too many requests",
	})
}

// IsServerError checks if the error is a server-side (5xx) error
func IsServerError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if strings.EqualFold(apiErr.Code, "server_error") {
			return true
		}
		return apiErr.StatusCode >= 500
	}
	return false
}

// IsAuthError checks openai.Error status codes first, then falls back to
// string pattern matching.
func IsAuthError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return true
		}
	}
	return ContainsAnyPattern(err, []string{
		"invalid api key",
		"invalid_api_key",
		"incorrect api key",
		"unauthorized",
	})
}

// IsModelNotFound checks if the error is a model not found (404) error.
// Ollama reports a missing model as `model "x" not found`.
func IsModelNotFound(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
		return true
	}
	return ContainsAnyPattern(err, []string{"model_not_found"}) ||
		(ContainsAnyPattern(err, []string{"model"}) && ContainsAnyPattern(err, []string{"not found"}))
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"408",
		"504",
	})
}

// IsConnectionError reports failures to reach the endpoint at all.
func IsConnectionError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"connection refused",
		"no such host",
		"connection reset",
		"network is unreachable",
	})
}

// IsOverloadedError checks if the error indicates the service is overloaded
func IsOverloadedError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"overloaded",
		"service unavailable",
		"503",
	})
}

// ContainsAnyPattern checks if the lowercased error message contains any of the given patterns.
func ContainsAnyPattern(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// FormatUserFacingError turns an error into a message suitable for API
// responses. Unclassified errors keep their own text, trimmed.
func FormatUserFacingError(err error) string {
	if err == nil {
		return "Something went wrong."
	}
	if code := Classify(err); code != "" {
		if code == LLMContextTooLong {
			if cle := ParseContextLengthError(err); cle != nil && cle.ModelMaxTokens > 0 {
				return HumanErrors[code] + " The model accepts " + strconv.Itoa(cle.ModelMaxTokens) + " tokens."
			}
		}
		return HumanErrors[code]
	}

	msg := strings.TrimSpace(err.Error())
	if strings.HasPrefix(msg, "{") {
		if parsed := parseJSONErrorMessage(msg); parsed != "" {
			msg = parsed
		}
	}
	if len(msg) > 600 {
		msg = msg[:600] + "..."
	}
	return msg
}

// parseJSONErrorMessage attempts to extract a human-readable message from a JSON error payload.
func parseJSONErrorMessage(raw string) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &flat); err == nil {
		if flat.Message != "" {
			return flat.Message
		}
		return flat.Error
	}
	return ""
}
