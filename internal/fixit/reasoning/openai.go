// SPDX-License-Identifier: Apache-2.0

package reasoning

import (
	"context"
	"fmt"

	"github.com/kusari-oss/fixit/internal/core/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIModel talks to any OpenAI-compatible Chat Completions endpoint,
// including a local Ollama server's /v1 API
type OpenAIModel struct {
	client openai.Client
	model  string
}

// NewOpenAIModel creates a chat backend from the LLM configuration
func NewOpenAIModel(cfg config.LLMConfig) (*OpenAIModel, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required for the openai backend")
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &OpenAIModel{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Name returns the configured model name
func (m *OpenAIModel) Name() string {
	return m.model
}

// Converse sends the conversation and answers tool calls until the model
// produces a plain reply
func (m *OpenAIModel) Converse(ctx context.Context, conv Conversation) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if conv.System != "" {
		messages = append(messages, openai.SystemMessage(conv.System))
	}
	messages = append(messages, openai.UserMessage(conv.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(m.model),
		Temperature: openai.Float(conv.Temperature),
	}
	if conv.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(conv.MaxTokens))
	}
	if len(conv.Tools) > 0 {
		params.Tools = openAITools(conv.Tools)
	}

	for round := 0; ; round++ {
		params.Messages = messages
		completion, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", ErrEmptyResponse
		}

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		if round >= conv.MaxToolRounds {
			return "", fmt.Errorf("%w after %d rounds", ErrToolRounds, round)
		}

		messages = append(messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			out, _ := callTool(ctx, conv.Tools, call.Function.Name, []byte(call.Function.Arguments))
			messages = append(messages, openai.ToolMessage(out, call.ID))
		}
	}
}

func openAITools(tools []Tool) []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		params = append(params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  openai.FunctionParameters(t.Parameters()),
			},
		})
	}
	return params
}
