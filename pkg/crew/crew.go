package crew

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/agents/tools"
	"github.com/webresearch/research-bridge/pkg/aierrors"
	"github.com/webresearch/research-bridge/pkg/aitokens"
	"github.com/webresearch/research-bridge/pkg/llm"
)

// ErrNoTasks is returned when a crew has nothing to run.
var ErrNoTasks = errors.New("crew has no tasks")

// Model is the chat completion backend.
type Model interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Completion, error)
	Model() string
}

// Crew runs its tasks in order.
type Crew struct {
	Agents []*Agent
	Tasks  []*Task

	model    Model
	executor *tools.Executor
	cfg      *Config
	log      zerolog.Logger
}

// New builds a crew. executor may be nil when no agent uses tools.
func New(model Model, executor *tools.Executor, agents []*Agent, tasks []*Task, cfg *Config, log zerolog.Logger) *Crew {
	return &Crew{
		Agents:   agents,
		Tasks:    tasks,
		model:    model,
		executor: executor,
		cfg:      cfg.WithDefaults(),
		log:      log.With().Str("component", "crew").Logger(),
	}
}

// Kickoff runs every task sequentially with {key} placeholders filled from
// inputs. Each task sees the outputs of the tasks before it. observer may be nil.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string, observer func(Event)) (*Output, error) {
	if len(c.Tasks) == 0 {
		return nil, ErrNoTasks
	}
	if observer == nil {
		observer = func(Event) {}
	}

	// Tool call IDs are only unique within one conversation.
	scope := xid.New().String()
	out := &Output{Tasks: make([]TaskOutput, 0, len(c.Tasks))}
	for i, task := range c.Tasks {
		if task.Agent == nil {
			return nil, fmt.Errorf("task %d has no agent", i+1)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		agent := task.Agent.interpolate(inputs)
		name := taskName(task, i)
		observer(Event{Stage: StageTaskStarted, Task: name, Agent: agent.Role})
		c.log.Info().Str("task", name).Str("agent", agent.Role).Msg("Starting task")

		result, tokens, err := c.runTask(ctx, scope, name, agent, task, inputs, out.Tasks, observer)
		out.TotalTokens += tokens
		if err != nil {
			c.log.Error().Err(err).Str("task", name).Str("error_code", string(aierrors.Classify(err))).Msg("Task failed")
			return nil, fmt.Errorf("task %s: %w", name, err)
		}
		out.Tasks = append(out.Tasks, *result)
		observer(Event{Stage: StageTaskFinished, Task: name, Agent: agent.Role})
		c.log.Info().Str("task", name).Int("tool_calls", result.ToolCalls).Int("chars", len(result.Raw)).Msg("Task finished")
	}
	out.Raw = out.Tasks[len(out.Tasks)-1].Raw
	return out, nil
}

func (c *Crew) runTask(
	ctx context.Context,
	scope string,
	name string,
	agent *Agent,
	task *Task,
	inputs map[string]string,
	previous []TaskOutput,
	observer func(Event),
) (*TaskOutput, int, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(agent)),
		openai.UserMessage(taskPrompt(task, inputs, previous)),
	}
	defs := c.toolDefinitions(agent)
	result := &TaskOutput{Task: name, Agent: agent.Role}
	tokens := 0

	for turn := 0; ; turn++ {
		req := llm.Request{Messages: messages}
		if turn < c.cfg.MaxToolTurns {
			req.Tools = defs
		}
		completion, err := c.model.Complete(ctx, req)
		if err != nil && len(req.Tools) > 0 && toolsUnsupported(err) {
			c.log.Warn().Err(err).Str("task", name).Msg("Model rejected tools, inlining tool output instead")
			messages = c.inlineTools(ctx, scope, agent, inputs, messages, result, name, observer)
			defs = nil
			continue
		}
		if err != nil {
			return nil, tokens, err
		}
		tokens += completion.Usage.TotalTokens
		if completion.Reasoning != "" {
			result.Reasoning = completion.Reasoning
		}
		if len(completion.ToolCalls) == 0 || len(req.Tools) == 0 {
			result.Raw = FinalAnswer(completion.Content)
			return result, tokens, nil
		}

		messages = append(messages, completion.AssistantMessage())
		for _, call := range completion.ToolCalls {
			result.ToolCalls++
			observer(Event{Stage: StageToolCall, Task: name, Agent: agent.Role, Detail: call.Name})
			messages = append(messages, openai.ToolMessage(c.callTool(ctx, scope, call), call.ID))
		}
	}
}

func (c *Crew) callTool(ctx context.Context, scope string, call llm.ToolCall) string {
	log := c.log.With().Str("tool", call.Name).Str("call_id", call.ID).Logger()
	if c.executor == nil {
		return "Error: no tools available"
	}
	var args map[string]any
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			log.Warn().Err(err).Msg("Invalid tool arguments")
			return "Error: invalid tool arguments: " + err.Error()
		}
	}
	callID := call.ID
	if callID == "" {
		callID = xid.New().String()
	}
	res, err := c.executor.ExecuteWithID(ctx, scope+":"+callID, call.Name, args)
	if err != nil {
		log.Warn().Err(err).Msg("Tool call failed")
		return "Error: " + err.Error()
	}
	if res.IsError() {
		return "Error: " + res.Text()
	}
	return c.budget(res.Text())
}

// inlineTools runs each of the agent's tools once with the topic as query and
// appends the output to the conversation, for models without function calling.
func (c *Crew) inlineTools(
	ctx context.Context,
	scope string,
	agent *Agent,
	inputs map[string]string,
	messages []openai.ChatCompletionMessageParamUnion,
	result *TaskOutput,
	name string,
	observer func(Event),
) []openai.ChatCompletionMessageParamUnion {
	query := strings.TrimSpace(inputs["topic"])
	if c.executor == nil || query == "" {
		return messages
	}
	var sb strings.Builder
	for _, toolName := range agent.Tools {
		result.ToolCalls++
		observer(Event{Stage: StageToolCall, Task: name, Agent: agent.Role, Detail: toolName})
		text := c.callTool(ctx, scope, llm.ToolCall{Name: toolName, Arguments: mustArgs(query)})
		fmt.Fprintf(&sb, "Output of %s for %q:\n%s\n\n", toolName, query, text)
	}
	if sb.Len() == 0 {
		return messages
	}
	return append(messages, openai.UserMessage(strings.TrimSpace(sb.String())))
}

func (c *Crew) budget(text string) string {
	if text == "" {
		return "No usable sources were found."
	}
	cut, truncated, err := aitokens.TruncateToTokens(text, c.model.Model(), c.cfg.ToolOutputTokens)
	if err != nil {
		c.log.Debug().Err(err).Msg("Tokenizer unavailable, truncating by characters")
		limit := c.cfg.ToolOutputTokens * 4
		if len(text) > limit {
			return strings.ToValidUTF8(text[:limit], "") + aitokens.TruncationMarker
		}
		return text
	}
	if truncated {
		c.log.Debug().Int("max_tokens", c.cfg.ToolOutputTokens).Msg("Truncated tool output")
	}
	return cut
}

func (c *Crew) toolDefinitions(agent *Agent) []llm.ToolDefinition {
	if c.executor == nil || len(agent.Tools) == 0 {
		return nil
	}
	var defs []llm.ToolDefinition
	for _, name := range agent.Tools {
		tool := c.executor.Registry().Get(name)
		if tool == nil {
			c.log.Warn().Str("tool", name).Msg("Agent references unknown tool")
			continue
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schemaMap(tool.InputSchema),
		})
	}
	return defs
}

func schemaMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func toolsUnsupported(err error) bool {
	return aierrors.ContainsAnyPattern(err, []string{"does not support tools", "tools are not supported"})
}

func mustArgs(query string) string {
	data, _ := json.Marshal(map[string]string{"query": query})
	return string(data)
}

func taskName(task *Task, index int) string {
	if task.Name != "" {
		return task.Name
	}
	return fmt.Sprintf("task-%d", index+1)
}
