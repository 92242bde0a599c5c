package crew

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/agents/tools"
	"github.com/webresearch/research-bridge/pkg/aitokens"
	"github.com/webresearch/research-bridge/pkg/llm"
	"github.com/webresearch/research-bridge/pkg/research"
)

type scriptedModel struct {
	mu       sync.Mutex
	requests []llm.Request
	respond  func(call int, req llm.Request) (*llm.Completion, error)
}

func (m *scriptedModel) Complete(_ context.Context, req llm.Request) (*llm.Completion, error) {
	m.mu.Lock()
	call := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.respond(call, req)
}

func (m *scriptedModel) Model() string { return "deepseek-r1:1.5b" }

type fixedSearcher struct {
	queries []string
	set     research.ResultSet
}

func (s *fixedSearcher) SearchAndExtract(_ context.Context, query string, _ int) research.ResultSet {
	s.queries = append(s.queries, query)
	return s.set
}

func lastMessage(req llm.Request) (content, role string) {
	return aitokens.MessageContent(req.Messages[len(req.Messages)-1])
}

func newSearchExecutor(searcher *fixedSearcher) *tools.Executor {
	return tools.NewExecutor(tools.NewResearchRegistry(searcher), nil)
}

func TestKickoffRunsTasksInOrder(t *testing.T) {
	model := &scriptedModel{respond: func(call int, _ llm.Request) (*llm.Completion, error) {
		answers := []string{
			"I searched.\nFinal Answer: findings about solar",
			"Final Answer: analysis of findings",
			"Thought: done\nFinal Answer: # Summary\nSolar is growing.",
		}
		return &llm.Completion{Content: answers[call]}, nil
	}}
	var events []Event
	crew := NewDefault(model, nil, nil, zerolog.Nop())
	out, err := crew.Kickoff(context.Background(), map[string]string{"topic": "solar energy"}, func(e Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if out.Raw != "# Summary\nSolar is growing." {
		t.Fatalf("unexpected final output %q", out.Raw)
	}
	if len(out.Tasks) != 3 || out.Tasks[0].Raw != "findings about solar" || out.Tasks[1].Agent != "Insights Analyst" {
		t.Fatalf("unexpected task outputs %+v", out.Tasks)
	}
	if len(model.requests) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(model.requests))
	}

	system, role := aitokens.MessageContent(model.requests[0].Messages[0])
	if role != "system" || !strings.Contains(system, "up-to-date information on solar energy.") {
		t.Fatalf("expected interpolated goal, got %q", system)
	}
	prompt, _ := lastMessage(model.requests[0])
	if !strings.Contains(prompt, "1. Conduct thorough web searches on solar energy.") {
		t.Fatalf("expected interpolated task, got %q", prompt)
	}
	if strings.Contains(prompt, "context you're working with") {
		t.Fatal("first task should have no context")
	}
	third, _ := lastMessage(model.requests[2])
	if !strings.Contains(third, "findings about solar") || !strings.Contains(third, "analysis of findings") {
		t.Fatalf("expected previous outputs as context, got %q", third)
	}
	if len(events) != 6 || events[0].Stage != StageTaskStarted || events[5].Stage != StageTaskFinished {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestKickoffExecutesToolCalls(t *testing.T) {
	searcher := &fixedSearcher{set: research.ResultSet{{URL: "https://a.example/solar", Text: "alpha text"}}}
	model := &scriptedModel{respond: func(call int, req llm.Request) (*llm.Completion, error) {
		if call == 0 {
			if len(req.Tools) != 1 || req.Tools[0].Name != "web_search" {
				t.Errorf("expected web_search tool, got %+v", req.Tools)
			}
			return &llm.Completion{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "web_search", Arguments: `{"query":"solar"}`}}}, nil
		}
		return &llm.Completion{Content: "Final Answer: done"}, nil
	}}
	researcher, _, _ := DefaultAgents()
	crew := New(model, newSearchExecutor(searcher), []*Agent{researcher},
		[]*Task{{Description: "Research {topic}", ExpectedOutput: "notes", Agent: researcher}}, nil, zerolog.Nop())

	var toolEvents int
	out, err := crew.Kickoff(context.Background(), map[string]string{"topic": "solar"}, func(e Event) {
		if e.Stage == StageToolCall {
			toolEvents++
		}
	})
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if out.Raw != "done" || out.Tasks[0].ToolCalls != 1 || toolEvents != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "solar" {
		t.Fatalf("unexpected searches %v", searcher.queries)
	}
	content, role := lastMessage(model.requests[1])
	if role != "tool" || content != "Source: https://a.example/solar\nalpha text" {
		t.Fatalf("unexpected tool message %s %q", role, content)
	}
}

func TestKickoffStopsOfferingToolsAfterMaxTurns(t *testing.T) {
	searcher := &fixedSearcher{}
	model := &scriptedModel{respond: func(call int, req llm.Request) (*llm.Completion, error) {
		if len(req.Tools) > 0 {
			return &llm.Completion{ToolCalls: []llm.ToolCall{{Name: "web_search", Arguments: `{"query":"again"}`}}}, nil
		}
		return &llm.Completion{Content: "forced answer"}, nil
	}}
	researcher, _, _ := DefaultAgents()
	crew := New(model, newSearchExecutor(searcher), []*Agent{researcher},
		[]*Task{{Description: "loop", Agent: researcher}}, &Config{MaxToolTurns: 2}, zerolog.Nop())

	out, err := crew.Kickoff(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if out.Raw != "forced answer" || len(model.requests) != 3 {
		t.Fatalf("expected 3 calls ending in answer, got %d: %+v", len(model.requests), out)
	}
	content, _ := lastMessage(model.requests[2])
	if content != "No usable sources were found." {
		t.Fatalf("unexpected empty tool output %q", content)
	}
}

func TestKickoffInlinesToolsWhenUnsupported(t *testing.T) {
	searcher := &fixedSearcher{set: research.ResultSet{{URL: "https://b.example", Text: "beta"}}}
	model := &scriptedModel{respond: func(call int, req llm.Request) (*llm.Completion, error) {
		if len(req.Tools) > 0 {
			return nil, errors.New(`registry.ollama.ai/library/deepseek-r1:1.5b does not support tools`)
		}
		return &llm.Completion{Content: "Final Answer: inline"}, nil
	}}
	researcher, _, _ := DefaultAgents()
	crew := New(model, newSearchExecutor(searcher), []*Agent{researcher},
		[]*Task{{Description: "Research {topic}", Agent: researcher}}, nil, zerolog.Nop())

	out, err := crew.Kickoff(context.Background(), map[string]string{"topic": "wind power"}, nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if out.Raw != "inline" || out.Tasks[0].ToolCalls != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "wind power" {
		t.Fatalf("expected topic search, got %v", searcher.queries)
	}
	content, role := lastMessage(model.requests[1])
	if role != "user" || !strings.Contains(content, "Source: https://b.example\nbeta") {
		t.Fatalf("expected inlined sources, got %s %q", role, content)
	}
}

func TestKickoffReportsToolErrors(t *testing.T) {
	model := &scriptedModel{respond: func(call int, req llm.Request) (*llm.Completion, error) {
		if call == 0 {
			return &llm.Completion{ToolCalls: []llm.ToolCall{
				{ID: "a", Name: "web_search", Arguments: `{not json`},
				{ID: "b", Name: "web_search", Arguments: `{}`},
				{ID: "c", Name: "calculator", Arguments: `{}`},
			}}, nil
		}
		return &llm.Completion{Content: "ok"}, nil
	}}
	researcher, _, _ := DefaultAgents()
	crew := New(model, newSearchExecutor(&fixedSearcher{}), []*Agent{researcher},
		[]*Task{{Description: "x", Agent: researcher}}, nil, zerolog.Nop())
	if _, err := crew.Kickoff(context.Background(), nil, nil); err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	msgs := model.requests[1].Messages
	want := []string{
		"Error: invalid tool arguments",
		`Error: parameter "query" is required`,
		"Error: unknown tool: calculator",
	}
	for i, prefix := range want {
		content, _ := aitokens.MessageContent(msgs[len(msgs)-3+i])
		if !strings.HasPrefix(content, prefix) {
			t.Fatalf("tool message %d = %q, want prefix %q", i, content, prefix)
		}
	}
}

func TestKickoffPropagatesModelErrors(t *testing.T) {
	failure := errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")
	model := &scriptedModel{respond: func(int, llm.Request) (*llm.Completion, error) {
		return nil, failure
	}}
	crew := NewDefault(model, nil, nil, zerolog.Nop())
	_, err := crew.Kickoff(context.Background(), map[string]string{"topic": "x"}, nil)
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
	if len(model.requests) != 1 {
		t.Fatalf("expected crew to stop after first failure, got %d calls", len(model.requests))
	}
}

func TestKickoffWithoutTasks(t *testing.T) {
	crew := New(&scriptedModel{}, nil, nil, nil, nil, zerolog.Nop())
	if _, err := crew.Kickoff(context.Background(), nil, nil); !errors.Is(err, ErrNoTasks) {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
}

func TestFinalAnswer(t *testing.T) {
	cases := map[string]string{
		"plain":                               "plain",
		"Thought: x\nFinal Answer: the answer": "the answer",
		"Final Answer: a\nFinal Answer: b":     "b",
		"  body text\nFinal Answer:  ":         "body text",
		"**Final Answer:** bold marker":        "bold marker",
		"report body **Final Answer:**":        "report body",
	}
	for in, want := range cases {
		if got := FinalAnswer(in); got != want {
			t.Fatalf("FinalAnswer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInterpolate(t *testing.T) {
	got := Interpolate("Research {topic} for {audience}; keep {unknown}.", map[string]string{
		"topic":    "fusion",
		"audience": "students",
	})
	if got != "Research fusion for students; keep {unknown}." {
		t.Fatalf("unexpected interpolation %q", got)
	}
	if Interpolate("{topic}", nil) != "{topic}" {
		t.Fatal("expected untouched text without inputs")
	}
}
