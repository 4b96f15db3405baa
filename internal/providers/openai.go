package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/pkg/core"
)

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// OpenAIProvider implements agent.Provider against OpenAI's chat completions
// API, grounded in the teacher's OpenAIProvider.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider builds an OpenAIProvider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("providers: openai API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = openai.GPT4o
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.DefaultModel,
	}, nil
}

// Complete implements agent.Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (core.Message, error) {
	req := p.buildRequest(messages, tools, systemPrompt)

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return core.Message{}, fmt.Errorf("providers: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.Message{}, errors.New("providers: openai returned no choices")
	}
	return openaiToCore(resp.Choices[0].Message), nil
}

// Stream implements agent.Provider.
func (p *OpenAIProvider) Stream(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (agent.StreamIterator, error) {
	req := p.buildRequest(messages, tools, systemPrompt)
	req.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("providers: openai stream: %w", err)
	}
	return &openaiStreamIterator{stream: stream, toolCalls: map[int]*openai.ToolCall{}}, nil
}

func (p *OpenAIProvider) buildRequest(messages []core.Message, tools []core.WireTool, systemPrompt string) openai.ChatCompletionRequest {
	var chatMsgs []openai.ChatCompletionMessage
	if systemPrompt != "" {
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	chatMsgs = append(chatMsgs, openaiMessages(messages)...)

	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: chatMsgs,
	}
	if len(tools) > 0 {
		req.Tools = openaiTools(tools)
	}
	return req
}

func openaiTools(tools []core.WireTool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema,
			},
		})
	}
	return out
}

func openaiMessages(messages []core.Message) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	for _, m := range messages {
		switch m.Role {
		case core.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})
		case core.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
			for _, b := range m.Blocks {
				if b.IsToolCall() {
					argsJSON, _ := json.Marshal(b.Args)
					msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
						ID:   b.ToolCallID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      b.ToolName,
							Arguments: string(argsJSON),
						},
					})
				} else {
					msg.Content += b.Text
				}
			}
			out = append(out, msg)
		case core.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return out
}

func openaiToCore(msg openai.ChatCompletionMessage) core.Message {
	var blocks []core.ContentBlock
	if msg.Content != "" {
		blocks = append(blocks, core.TextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		blocks = append(blocks, core.ToolCallBlock(tc.ID, tc.Function.Name, args))
	}
	return core.NewAssistantMessage(blocks)
}

// openaiStreamIterator adapts go-openai's chat completion stream to
// agent.StreamIterator, accumulating tool-call argument fragments by index
// the way the teacher's processStream does.
type openaiStreamIterator struct {
	stream    *openai.ChatCompletionStream
	toolCalls map[int]*openai.ToolCall
	textBuf   string
}

func (it *openaiStreamIterator) Next() (agent.StreamEvent, bool) {
	for {
		resp, err := it.stream.Recv()
		if err == io.EOF {
			return agent.StreamEvent{Kind: agent.StreamEventDone, Message: it.finalMessage()}, true
		}
		if err != nil {
			return agent.StreamEvent{Kind: agent.StreamEventError, Err: err}, true
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.Content != "" {
			it.textBuf += delta.Content
			return agent.StreamEvent{Kind: agent.StreamEventTextDelta, Text: delta.Content}, true
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			cur, ok := it.toolCalls[idx]
			if !ok {
				cur = &openai.ToolCall{ID: tc.ID, Type: openai.ToolTypeFunction}
				it.toolCalls[idx] = cur
			}
			if tc.ID != "" {
				cur.ID = tc.ID
			}
			if tc.Function.Name != "" {
				cur.Function.Name = tc.Function.Name
			}
			cur.Function.Arguments += tc.Function.Arguments
		}

		if resp.Choices[0].FinishReason != "" {
			continue
		}
	}
}

func (it *openaiStreamIterator) finalMessage() core.Message {
	var blocks []core.ContentBlock
	if it.textBuf != "" {
		blocks = append(blocks, core.TextBlock(it.textBuf))
	}
	for i := 0; i < len(it.toolCalls); i++ {
		tc, ok := it.toolCalls[i]
		if !ok {
			continue
		}
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		blocks = append(blocks, core.ToolCallBlock(tc.ID, tc.Function.Name, args))
	}
	return core.NewAssistantMessage(blocks)
}

func (it *openaiStreamIterator) Close() error {
	it.stream.Close()
	return nil
}
