package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/aierrors"
)

func completionJSON(content string, toolCalls string) string {
	message := `{"role":"assistant","content":` + mustJSON(content)
	finish := "stop"
	if toolCalls != "" {
		message += `,"tool_calls":` + toolCalls
		finish = "tool_calls"
	}
	message += "}"
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"deepseek-r1:1.5b",` +
		`"choices":[{"index":0,"finish_reason":"` + finish + `","message":` + message + `}],` +
		`"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`
}

func mustJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func TestCompleteStripsThinking(t *testing.T) {
	var got map[string]any
	var auth, requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("x-request-id")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON("<think>\nLet me reason.\n</think>\n\nSolar is growing.", ""))
	}))
	defer server.Close()

	client := New(&Config{BaseURL: server.URL + "/v1"}, zerolog.Nop())
	out, err := client.Complete(context.Background(), Request{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hello")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Content != "Solar is growing." {
		t.Fatalf("unexpected content %q", out.Content)
	}
	if out.Reasoning != "Let me reason." {
		t.Fatalf("unexpected reasoning %q", out.Reasoning)
	}
	if out.Usage.TotalTokens != 16 {
		t.Fatalf("unexpected usage %+v", out.Usage)
	}
	if got["model"] != DefaultModel {
		t.Fatalf("expected default model, got %v", got["model"])
	}
	if auth != "Bearer NA" {
		t.Fatalf("expected placeholder api key, got %q", auth)
	}
	if !strings.HasPrefix(requestID, "rb_") {
		t.Fatalf("expected trace request id, got %q", requestID)
	}
}

func TestCompleteToolCalls(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON("", `[{"id":"call_1","type":"function","function":{"name":"web_search","arguments":"{\"query\":\"solar\"}"}}]`))
	}))
	defer server.Close()

	client := New(&Config{BaseURL: server.URL}, zerolog.Nop())
	out, err := client.Complete(context.Background(), Request{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("research")},
		Tools: []ToolDefinition{{
			Name:        "web_search",
			Description: "Searches the web.",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "web_search" || out.ToolCalls[0].ID != "call_1" {
		t.Fatalf("unexpected tool calls %+v", out.ToolCalls)
	}
	if out.ToolCalls[0].Arguments != `{"query":"solar"}` {
		t.Fatalf("unexpected arguments %q", out.ToolCalls[0].Arguments)
	}
	if out.AssistantMessage().OfAssistant == nil {
		t.Fatal("expected assistant history entry")
	}
	tools, ok := got["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("expected one tool in request, got %v", got["tools"])
	}
	function := tools[0].(map[string]any)["function"].(map[string]any)
	if function["name"] != "web_search" {
		t.Fatalf("unexpected tool payload %v", function)
	}
}

func TestCompleteClassifiesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"model \"deepseek-r1:1.5b\" not found, try pulling it first","type":"api_error"}}`)
	}))
	defer server.Close()

	client := New(&Config{BaseURL: server.URL}, zerolog.Nop())
	_, err := client.Complete(context.Background(), Request{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := aierrors.Classify(err); code != aierrors.LLMModelNotFound {
		t.Fatalf("expected model-not-found, got %q (%v)", code, err)
	}
}

func TestCompleteRequiresMessages(t *testing.T) {
	client := New(nil, zerolog.Nop())
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty request")
	}
}

func TestStripThinking(t *testing.T) {
	cases := []struct {
		in, content, reasoning string
	}{
		{"plain answer", "plain answer", ""},
		{"<think>a</think>b", "b", "a"},
		{"<think>one</think>x <think>two</think>y", "x y", "one\ntwo"},
		{"answer <think>cut off", "answer", "cut off"},
		{"<think></think>\n\nfinal", "final", ""},
	}
	for _, tc := range cases {
		content, reasoning := StripThinking(tc.in)
		if content != tc.content || reasoning != tc.reasoning {
			t.Fatalf("StripThinking(%q) = %q, %q", tc.in, content, reasoning)
		}
	}
}

func TestApplyEnvDefaults(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434/v1")
	t.Setenv("LLM_MODEL", "llama3")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg := ApplyEnvDefaults(&Config{})
	if cfg.BaseURL != "http://ollama:11434/v1" || cfg.Model != "llama3" || cfg.APIKey != DefaultAPIKey {
		t.Fatalf("unexpected config %+v", cfg)
	}
	cfg = ApplyEnvDefaults(&Config{Model: "custom"})
	if cfg.Model != "custom" {
		t.Fatalf("explicit model overridden: %+v", cfg)
	}
}
