// Package crew runs a fixed sequence of role-playing agents against the model,
// each task building on the output of the ones before it.
package crew

import (
	"strings"

	"github.com/webresearch/research-bridge/pkg/shared/stringutil"
)

// Agent is a persona the model is asked to play.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
	// Tools lists registry tool names the agent may call.
	Tools []string
}

// Task is one step of the crew.
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
}

// TaskOutput is what one task produced.
type TaskOutput struct {
	Task      string `json:"task"`
	Agent     string `json:"agent"`
	Raw       string `json:"raw"`
	Reasoning string `json:"reasoning,omitempty"`
	ToolCalls int    `json:"tool_calls"`
}

// Output is the result of a kickoff. Raw is the final task's answer.
type Output struct {
	Raw         string       `json:"raw"`
	Tasks       []TaskOutput `json:"tasks"`
	TotalTokens int          `json:"total_tokens"`
}

// Stage names a point in a task's progress.
type Stage string

const (
	StageTaskStarted  Stage = "task_started"
	StageToolCall     Stage = "tool_call"
	StageTaskFinished Stage = "task_finished"
)

// Event reports progress to an observer.
type Event struct {
	Stage  Stage
	Task   string
	Agent  string
	Detail string
}

const finalAnswerMarker = "Final Answer:"

// FinalAnswer returns the text after the last "Final Answer:" marker, or the
// whole text when the model did not use one.
func FinalAnswer(text string) string {
	idx := strings.LastIndex(text, finalAnswerMarker)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	answer := stringutil.TrimLeadingEmphasis(text[idx+len(finalAnswerMarker):])
	if answer == "" {
		return stringutil.TrimTrailingEmphasis(text[:idx])
	}
	return answer
}

// Interpolate replaces {key} placeholders with values from inputs. Unknown
// placeholders are left untouched.
func Interpolate(text string, inputs map[string]string) string {
	if len(inputs) == 0 || !strings.Contains(text, "{") {
		return text
	}
	pairs := make([]string, 0, len(inputs)*2)
	for key, value := range inputs {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (a *Agent) interpolate(inputs map[string]string) *Agent {
	return &Agent{
		Role:      Interpolate(a.Role, inputs),
		Goal:      Interpolate(a.Goal, inputs),
		Backstory: Interpolate(a.Backstory, inputs),
		Tools:     a.Tools,
	}
}
