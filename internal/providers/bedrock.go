package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/document"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/pkg/core"
)

// BedrockConfig configures a BedrockProvider.
type BedrockConfig struct {
	Region       string
	DefaultModel string
	MaxTokens    int32
}

// BedrockProvider implements agent.Provider against Bedrock's Converse API,
// grounded in the teacher's BedrockProvider.
type BedrockProvider struct {
	client    *bedrockruntime.Client
	model     string
	maxTokens int32
}

// NewBedrockProvider builds a BedrockProvider from the default AWS SDK
// credential chain (env vars, shared config, container/instance role).
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		return nil, errors.New("providers: bedrock region is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("providers: load aws config: %w", err)
	}

	return &BedrockProvider{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		model:     cfg.DefaultModel,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete implements agent.Provider.
func (p *BedrockProvider) Complete(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (core.Message, error) {
	input, err := p.buildInput(messages, tools, systemPrompt)
	if err != nil {
		return core.Message{}, fmt.Errorf("providers: bedrock: %w", err)
	}

	resp, err := p.client.Converse(ctx, input)
	if err != nil {
		return core.Message{}, fmt.Errorf("providers: bedrock converse: %w", err)
	}
	output, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return core.Message{}, errors.New("providers: bedrock returned no message output")
	}
	return bedrockToCore(output.Value), nil
}

// Stream implements agent.Provider.
func (p *BedrockProvider) Stream(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (agent.StreamIterator, error) {
	input, err := p.buildInput(messages, tools, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("providers: bedrock: %w", err)
	}

	streamInput := &bedrockruntime.ConverseStreamInput{
		ModelId:         input.ModelId,
		Messages:        input.Messages,
		System:          input.System,
		InferenceConfig: input.InferenceConfig,
		ToolConfig:      input.ToolConfig,
	}
	out, err := p.client.ConverseStream(ctx, streamInput)
	if err != nil {
		return nil, fmt.Errorf("providers: bedrock converse stream: %w", err)
	}
	return &bedrockStreamIterator{stream: out.GetStream()}, nil
}

func (p *BedrockProvider) buildInput(messages []core.Message, tools []core.WireTool, systemPrompt string) (*bedrockruntime.ConverseInput, error) {
	msgs, err := bedrockMessages(messages)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.model),
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(p.maxTokens),
		},
	}
	if systemPrompt != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: systemPrompt}}
	}
	if len(tools) > 0 {
		input.ToolConfig = &types.ToolConfiguration{Tools: bedrockTools(tools)}
	}
	return input, nil
}

func bedrockTools(tools []core.WireTool) []types.Tool {
	out := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(t.Schema),
				},
			},
		})
	}
	return out
}

func bedrockMessages(messages []core.Message) ([]types.Message, error) {
	out := make([]types.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleUser:
			out = append(out, types.Message{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Text}},
			})
		case core.RoleAssistant:
			var content []types.ContentBlock
			for _, b := range m.Blocks {
				if b.IsToolCall() {
					content = append(content, &types.ContentBlockMemberToolUse{
						Value: types.ToolUseBlock{
							ToolUseId: aws.String(b.ToolCallID),
							Name:      aws.String(b.ToolName),
							Input:     document.NewLazyDocument(b.Args),
						},
					})
				} else {
					content = append(content, &types.ContentBlockMemberText{Value: b.Text})
				}
			}
			out = append(out, types.Message{Role: types.ConversationRoleAssistant, Content: content})
		case core.RoleTool:
			status := types.ToolResultStatusSuccess
			if m.IsError {
				status = types.ToolResultStatusError
			}
			out = append(out, types.Message{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberToolResult{
					Value: types.ToolResultBlock{
						ToolUseId: aws.String(m.ToolCallID),
						Status:    status,
						Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: m.Content}},
					},
				}},
			})
		}
	}
	return out, nil
}

func bedrockToCore(msg types.Message) core.Message {
	var blocks []core.ContentBlock
	for _, block := range msg.Content {
		switch variant := block.(type) {
		case *types.ContentBlockMemberText:
			blocks = append(blocks, core.TextBlock(variant.Value))
		case *types.ContentBlockMemberToolUse:
			var args map[string]any
			if raw, err := variant.Value.Input.MarshalSmithyDocument(); err == nil {
				_ = json.Unmarshal(raw, &args)
			}
			blocks = append(blocks, core.ToolCallBlock(aws.ToString(variant.Value.ToolUseId), aws.ToString(variant.Value.Name), args))
		}
	}
	return core.NewAssistantMessage(blocks)
}

// bedrockStreamIterator adapts Bedrock's ConverseStream event channel to
// agent.StreamIterator.
type bedrockStreamIterator struct {
	stream *bedrockruntime.ConverseStreamEventStream

	textBuf         string
	blocks          []core.ContentBlock
	currentToolID   string
	currentToolName string
	toolInputJSON   string
}

func (it *bedrockStreamIterator) Next() (agent.StreamEvent, bool) {
	for event := range it.stream.Events() {
		switch variant := event.(type) {
		case *types.ConverseStreamOutputMemberContentBlockStart:
			if tu, ok := variant.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
				it.currentToolID = aws.ToString(tu.Value.ToolUseId)
				it.currentToolName = aws.ToString(tu.Value.Name)
				it.toolInputJSON = ""
			}
		case *types.ConverseStreamOutputMemberContentBlockDelta:
			switch delta := variant.Value.Delta.(type) {
			case *types.ContentBlockDeltaMemberText:
				if delta.Value != "" {
					it.textBuf += delta.Value
					return agent.StreamEvent{Kind: agent.StreamEventTextDelta, Text: delta.Value}, true
				}
			case *types.ContentBlockDeltaMemberToolUse:
				it.toolInputJSON += aws.ToString(delta.Value.Input)
			}
		case *types.ConverseStreamOutputMemberContentBlockStop:
			if it.currentToolID != "" {
				var args map[string]any
				_ = json.Unmarshal([]byte(it.toolInputJSON), &args)
				it.blocks = append(it.blocks, core.ToolCallBlock(it.currentToolID, it.currentToolName, args))
				it.currentToolID = ""
			}
		case *types.ConverseStreamOutputMemberMessageStop:
			blocks := it.blocks
			if it.textBuf != "" {
				blocks = append([]core.ContentBlock{core.TextBlock(it.textBuf)}, blocks...)
			}
			return agent.StreamEvent{Kind: agent.StreamEventDone, Message: core.NewAssistantMessage(blocks)}, true
		}
	}
	if err := it.stream.Err(); err != nil {
		return agent.StreamEvent{Kind: agent.StreamEventError, Err: err}, true
	}
	return agent.StreamEvent{}, false
}

func (it *bedrockStreamIterator) Close() error {
	return it.stream.Close()
}
