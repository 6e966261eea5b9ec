// SPDX-License-Identifier: Apache-2.0

package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/kusari-oss/fixit/internal/core/config"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicModel talks to the Anthropic Messages API
type AnthropicModel struct {
	client anthropic.Client
	model  string
}

// NewAnthropicModel creates a chat backend from the LLM configuration
func NewAnthropicModel(cfg config.LLMConfig) (*AnthropicModel, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required for the anthropic backend")
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &AnthropicModel{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Name returns the configured model name
func (m *AnthropicModel) Name() string {
	return m.model
}

// Converse sends the conversation and answers tool_use blocks until the
// model stops asking for tools
func (m *AnthropicModel) Converse(ctx context.Context, conv Conversation) (string, error) {
	maxTokens := int64(conv.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(conv.Temperature),
	}
	if conv.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: conv.System}}
	}
	if len(conv.Tools) > 0 {
		params.Tools = anthropicTools(conv.Tools)
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(conv.Prompt)),
	}

	for round := 0; ; round++ {
		params.Messages = messages
		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("message request failed: %w", err)
		}

		var text strings.Builder
		var calls []anthropic.ToolUseBlock
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.AsText().Text)
			case "tool_use":
				calls = append(calls, block.AsToolUse())
			}
		}

		if len(calls) == 0 {
			if text.Len() == 0 {
				return "", ErrEmptyResponse
			}
			return text.String(), nil
		}
		if round >= conv.MaxToolRounds {
			return "", fmt.Errorf("%w after %d rounds", ErrToolRounds, round)
		}

		results := make([]anthropic.ContentBlockParamUnion, 0, len(calls))
		for _, call := range calls {
			out, isError := callTool(ctx, conv.Tools, call.Name, call.Input)
			results = append(results, anthropic.NewToolResultBlock(call.ID, out, isError))
		}
		messages = append(messages, resp.ToParam(), anthropic.NewUserMessage(results...))
	}
}

func anthropicTools(tools []Tool) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		properties, required := toolSchema(t)
		tool := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: properties,
			Required:   required,
		}, t.Name())
		tool.OfTool.Description = anthropic.String(t.Description())
		params = append(params, tool)
	}
	return params
}
