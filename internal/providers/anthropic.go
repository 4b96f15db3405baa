// Package providers implements the three concrete LLM-vendor bindings
// behind the agent.Provider capability: Anthropic, OpenAI, and Bedrock.
// Spec.md treats these as external collaborators; SPEC_FULL still builds
// them as the contract's concrete fulfillment, grounded in the teacher's
// internal/agent/providers package.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/pkg/core"
)

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int64
}

// AnthropicProvider implements agent.Provider against the Anthropic Messages
// API, grounded in the teacher's AnthropicProvider.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider builds an AnthropicProvider. It requires an API key.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("providers: anthropic API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     cfg.DefaultModel,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete implements agent.Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (core.Message, error) {
	params, err := p.buildParams(messages, tools, systemPrompt)
	if err != nil {
		return core.Message{}, fmt.Errorf("providers: anthropic: %w", err)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return core.Message{}, fmt.Errorf("providers: anthropic completion: %w", err)
	}
	return anthropicToCore(msg), nil
}

// Stream implements agent.Provider.
func (p *AnthropicProvider) Stream(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (agent.StreamIterator, error) {
	params, err := p.buildParams(messages, tools, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("providers: anthropic: %w", err)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	return &anthropicStreamIterator{stream: stream, acc: anthropic.Message{}}, nil
}

func (p *AnthropicProvider) buildParams(messages []core.Message, tools []core.WireTool, systemPrompt string) (anthropic.MessageNewParams, error) {
	msgParams, err := anthropicMessages(messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  msgParams,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = anthropicTools(tools)
	}
	return params, nil
}

func anthropicTools(tools []core.WireTool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := t.Schema["properties"]; ok {
			schema.Properties = props
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

func anthropicMessages(messages []core.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			for _, b := range m.Blocks {
				if b.IsToolCall() {
					blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolCallID, b.Args, b.ToolName))
				} else {
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				}
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case core.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError),
			))
		}
	}
	return out, nil
}

func anthropicToCore(msg *anthropic.Message) core.Message {
	var blocks []core.ContentBlock
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, core.TextBlock(variant.Text))
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(variant.Input, &args)
			blocks = append(blocks, core.ToolCallBlock(variant.ID, variant.Name, args))
		}
	}
	return core.NewAssistantMessage(blocks)
}

// anthropicStreamIterator adapts Anthropic's SSE stream to agent.StreamIterator,
// accumulating content blocks and emitting text_delta/done events.
type anthropicStreamIterator struct {
	stream *anthropic.MessageStream
	acc    anthropic.Message

	currentToolID   string
	currentToolName string
	toolInputJSON   string
	pending         []core.ContentBlock
}

func (it *anthropicStreamIterator) Next() (agent.StreamEvent, bool) {
	for it.stream.Next() {
		event := it.stream.Current()
		if err := it.acc.Accumulate(event); err != nil {
			return agent.StreamEvent{Kind: agent.StreamEventError, Err: err}, true
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if tu, ok := variant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				it.currentToolID = tu.ID
				it.currentToolName = tu.Name
				it.toolInputJSON = ""
			}
		case anthropic.ContentBlockDeltaEvent:
			switch delta := variant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text != "" {
					return agent.StreamEvent{Kind: agent.StreamEventTextDelta, Text: delta.Text}, true
				}
			case anthropic.InputJSONDelta:
				it.toolInputJSON += delta.PartialJSON
			}
		case anthropic.ContentBlockStopEvent:
			if it.currentToolID != "" {
				var args map[string]any
				_ = json.Unmarshal([]byte(it.toolInputJSON), &args)
				it.pending = append(it.pending, core.ToolCallBlock(it.currentToolID, it.currentToolName, args))
				it.currentToolID = ""
			}
		case anthropic.MessageStopEvent:
			return agent.StreamEvent{Kind: agent.StreamEventDone, Message: anthropicToCore(&it.acc)}, true
		}
	}
	if err := it.stream.Err(); err != nil {
		return agent.StreamEvent{Kind: agent.StreamEventError, Err: err}, true
	}
	return agent.StreamEvent{}, false
}

func (it *anthropicStreamIterator) Close() error {
	return it.stream.Close()
}
