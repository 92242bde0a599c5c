// Package aitokens counts and budgets tokens for prompts sent to the model.
package aitokens

import (
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"
)

// TruncationMarker is appended to text cut by TruncateToTokens.
const TruncationMarker = "\n[truncated]"

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

// GetTokenizer returns a cached tiktoken encoder for the given model
func GetTokenizer(model string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.RLock()
	if tkm, ok := tokenizerCache[model]; ok {
		tokenizerCacheMu.RUnlock()
		return tkm, nil
	}
	tokenizerCacheMu.RUnlock()

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()

	if tkm, ok := tokenizerCache[model]; ok {
		return tkm, nil
	}

	// Local models (deepseek-r1, llama, ...) are unknown to tiktoken; cl100k_base
	// is close enough for budgeting.
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}

	tokenizerCache[model] = tkm
	return tkm, nil
}

// CountTokens counts tokens in a single string.
func CountTokens(text string, model string) (int, error) {
	tkm, err := GetTokenizer(model)
	if err != nil {
		return 0, err
	}
	return len(tkm.Encode(text, nil, nil)), nil
}

// EstimateTokens counts tokens for a list of chat messages
// Based on OpenAI's cookbook: https://github.com/openai/openai-cookbook
func EstimateTokens(messages []openai.ChatCompletionMessageParamUnion, model string) (int, error) {
	tkm, err := GetTokenizer(model)
	if err != nil {
		return 0, err
	}

	const tokensPerMessage = 3

	numTokens := 0
	for _, msg := range messages {
		numTokens += tokensPerMessage
		content, role := MessageContent(msg)
		numTokens += len(tkm.Encode(content, nil, nil))
		numTokens += len(tkm.Encode(role, nil, nil))
	}

	numTokens += 3 // Every reply is primed with <|start|>assistant<|message|>

	return numTokens, nil
}

// TruncateToTokens cuts text so that it encodes to at most maxTokens tokens,
// marker included. Text already within budget is returned unchanged, as is
// any text when maxTokens <= 0.
func TruncateToTokens(text string, model string, maxTokens int) (string, bool, error) {
	// Every token covers at least one byte.
	if maxTokens <= 0 || len(text) <= maxTokens {
		return text, false, nil
	}
	tkm, err := GetTokenizer(model)
	if err != nil {
		return text, false, err
	}
	tokens := tkm.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false, nil
	}
	keep := maxTokens - len(tkm.Encode(TruncationMarker, nil, nil))
	if keep <= 0 {
		return TruncationMarker[1:], true, nil
	}
	cut := strings.ToValidUTF8(tkm.Decode(tokens[:keep]), "")
	return cut + TruncationMarker, true, nil
}

// MessageContent extracts the text content and role from a message
func MessageContent(msg openai.ChatCompletionMessageParamUnion) (content, role string) {
	switch {
	case msg.OfSystem != nil:
		role = "system"
		if msg.OfSystem.Content.OfString.Value != "" {
			return msg.OfSystem.Content.OfString.Value, role
		}
		var sb strings.Builder
		for _, part := range msg.OfSystem.Content.OfArrayOfContentParts {
			sb.WriteString(part.Text)
		}
		return sb.String(), role
	case msg.OfUser != nil:
		role = "user"
		if msg.OfUser.Content.OfString.Value != "" {
			return msg.OfUser.Content.OfString.Value, role
		}
		var sb strings.Builder
		for _, part := range msg.OfUser.Content.OfArrayOfContentParts {
			if part.OfText != nil {
				sb.WriteString(part.OfText.Text)
			}
		}
		return sb.String(), role
	case msg.OfAssistant != nil:
		role = "assistant"
		if msg.OfAssistant.Content.OfString.Value != "" {
			return msg.OfAssistant.Content.OfString.Value, role
		}
		var sb strings.Builder
		for _, part := range msg.OfAssistant.Content.OfArrayOfContentParts {
			if part.OfText != nil {
				sb.WriteString(part.OfText.Text)
			}
		}
		return sb.String(), role
	case msg.OfTool != nil:
		role = "tool"
		if msg.OfTool.Content.OfString.Value != "" {
			return msg.OfTool.Content.OfString.Value, role
		}
		var sb strings.Builder
		for _, part := range msg.OfTool.Content.OfArrayOfContentParts {
			sb.WriteString(part.Text)
		}
		return sb.String(), role
	}
	return "", ""
}
