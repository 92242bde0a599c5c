// Package llm wraps an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
	"github.com/rs/zerolog"
	"go.mau.fi/util/random"
)

// ToolDefinition describes a function the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request is one chat completion call.
type Request struct {
	Messages []openai.ChatCompletionMessageParamUnion
	Tools    []ToolDefinition
}

// Completion is the first choice of a chat completion.
type Completion struct {
	// Content has <think> blocks removed unless the client keeps them.
	Content      string
	Reasoning    string
	FinishReason string
	ToolCalls    []ToolCall
	Usage        Usage

	message openai.ChatCompletionMessage
}

// AssistantMessage converts the completion back into a history entry, tool
// calls included.
func (c *Completion) AssistantMessage() openai.ChatCompletionMessageParamUnion {
	if c == nil {
		return openai.AssistantMessage("")
	}
	if len(c.ToolCalls) == 0 {
		return openai.AssistantMessage(c.Content)
	}
	param := c.message.ToAssistantMessageParam()
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &param}
}

// Client talks to the configured model.
type Client struct {
	api openai.Client
	cfg *Config
	log zerolog.Logger
}

// New creates a client for cfg.
func New(cfg *Config, log zerolog.Logger) *Client {
	cfg = cfg.WithDefaults()
	log = log.With().Str("component", "llm").Str("model", cfg.Model).Logger()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(time.Duration(cfg.TimeoutSecs) * time.Second),
		option.WithMiddleware(makeRequestTraceMiddleware(log)),
	}
	return &Client{
		api: openai.NewClient(opts...),
		cfg: cfg,
		log: log,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("no chat messages for completion")
	}
	params := openai.ChatCompletionNewParams{
		Model:    c.cfg.Model,
		Messages: req.Messages,
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(c.cfg.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = toChatTools(req.Tools)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	out := &Completion{
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		message: choice.Message,
	}
	if c.cfg.KeepThinking {
		out.Content = strings.TrimSpace(choice.Message.Content)
	} else {
		out.Content, out.Reasoning = StripThinking(choice.Message.Content)
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      strings.TrimSpace(call.Function.Name),
			Arguments: call.Function.Arguments,
		})
	}
	c.log.Debug().
		Str("finish_reason", out.FinishReason).
		Int("tool_calls", len(out.ToolCalls)).
		Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).
		Msg("Chat completion finished")
	return out, nil
}

func toChatTools(tools []ToolDefinition) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		function := openai.FunctionDefinitionParam{
			Name:       tool.Name,
			Parameters: tool.Parameters,
		}
		if tool.Description != "" {
			function.Description = openai.String(tool.Description)
		}
		result = append(result, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: function,
				Type:     constant.ValueOf[constant.Function](),
			},
		})
	}
	return result
}

func newOutboundRequestID() string {
	return "rb_" + random.String(12)
}

func makeRequestTraceMiddleware(log zerolog.Logger) option.Middleware {
	traceLog := log.With().Str("component", "llm_http").Logger()
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		requestID := strings.TrimSpace(req.Header.Get("x-request-id"))
		if requestID == "" {
			requestID = newOutboundRequestID()
			req.Header.Set("x-request-id", requestID)
		}

		reqHost := ""
		reqPath := ""
		if req.URL != nil {
			reqHost = req.URL.Host
			reqPath = req.URL.Path
		}

		traceLog.Debug().
			Str("request_id", requestID).
			Str("request_method", req.Method).
			Str("request_host", reqHost).
			Str("request_path", reqPath).
			Msg("Dispatching model HTTP request")

		resp, err := next(req)
		elapsedMs := time.Since(start).Milliseconds()
		if err != nil {
			traceLog.Error().
				Err(err).
				Str("request_id", requestID).
				Str("request_host", reqHost).
				Str("request_path", reqPath).
				Int64("duration_ms", elapsedMs).
				Msg("Model HTTP request failed")
			return nil, err
		}

		traceLog.Debug().
			Str("request_id", requestID).
			Str("request_path", reqPath).
			Int("status", resp.StatusCode).
			Int64("duration_ms", elapsedMs).
			Msg("Model HTTP request completed")
		return resp, nil
	}
}
