package aitokens

import (
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"
)

const testModel = "deepseek-r1:1.5b"

func requireTokenizer(t *testing.T) {
	t.Helper()
	if _, err := GetTokenizer(testModel); err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
}

func TestTruncateToTokensWithinBudget(t *testing.T) {
	text, cut, err := TruncateToTokens("short text", testModel, 0)
	if err != nil || cut || text != "short text" {
		t.Fatalf("unexpected result %q %v %v", text, cut, err)
	}

	requireTokenizer(t)
	text, cut, err = TruncateToTokens("short text", testModel, 100)
	if err != nil || cut || text != "short text" {
		t.Fatalf("unexpected result %q %v %v", text, cut, err)
	}
}

func TestTruncateToTokensCuts(t *testing.T) {
	requireTokenizer(t)
	long := strings.Repeat("solar panels convert sunlight into electricity. ", 200)
	text, cut, err := TruncateToTokens(long, testModel, 50)
	if err != nil {
		t.Fatalf("TruncateToTokens: %v", err)
	}
	if !cut || !strings.HasSuffix(text, TruncationMarker) {
		t.Fatalf("expected truncated text, got %q", text)
	}
	if !strings.HasPrefix(long, strings.TrimSuffix(text, TruncationMarker)) {
		t.Fatal("expected truncated text to be a prefix")
	}
	count, err := CountTokens(text, testModel)
	if err != nil {
		t.Fatalf("CountTokens: %v", err)
	}
	if count > 50 {
		t.Fatalf("expected at most 50 tokens, got %d", count)
	}
}

func TestEstimateTokens(t *testing.T) {
	requireTokenizer(t)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a researcher."),
		openai.UserMessage("Research solar energy."),
	}
	count, err := EstimateTokens(messages, testModel)
	if err != nil {
		t.Fatalf("EstimateTokens: %v", err)
	}
	if count <= 6+3 {
		t.Fatalf("expected content tokens beyond overhead, got %d", count)
	}
	content, role := MessageContent(messages[1])
	if content != "Research solar energy." || role != "user" {
		t.Fatalf("unexpected message content %q/%q", content, role)
	}
}
