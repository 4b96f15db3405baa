package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/pkg/core"
)

// Run is the generic tool-calling driver: it repeatedly asks the provider
// for a turn, executes any tool calls it requests, and feeds the results
// back until the provider returns a turn with no tool calls.
//
// messages is mutated in place and is the durable conversation state;
// callers that need isolation must clone before calling. hookSet may be nil.
func Run(
	ctx context.Context,
	messages *[]core.Message,
	tools []core.Tool,
	provider Provider,
	toolCtx *core.ToolContext,
	systemPrompt string,
	hookSet *hooks.Composed,
) (core.Message, error) {
	if provider == nil {
		return core.Message{}, ErrNoProvider
	}

	byName := make(map[string]core.Tool, len(tools))
	wire := make([]core.WireTool, 0, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
		wire = append(wire, t.ToWire())
	}

	hookSet.FireLoopStart()

	turns := 0
	final, err := runTurns(ctx, messages, byName, wire, provider, toolCtx, systemPrompt, hookSet, &turns)
	if err != nil {
		hookSet.FireError(err)
		return core.Message{}, err
	}
	hookSet.FireLoopEnd(turns)
	return final, nil
}

func runTurns(
	ctx context.Context,
	messages *[]core.Message,
	byName map[string]core.Tool,
	wire []core.WireTool,
	provider Provider,
	toolCtx *core.ToolContext,
	systemPrompt string,
	hookSet *hooks.Composed,
	turns *int,
) (core.Message, error) {
	for {
		*turns++
		hookSet.FireLlmStart(*messages)

		assistantMsg, durationMs, err := callProvider(ctx, *messages, wire, provider, systemPrompt, hookSet)
		if err != nil {
			return core.Message{}, err
		}
		hookSet.FireLlmEnd(assistantMsg, durationMs)
		*messages = append(*messages, assistantMsg)

		calls := assistantMsg.ToolCalls()
		if len(calls) == 0 {
			return assistantMsg, nil
		}

		for _, call := range calls {
			if err := executeOne(ctx, call, byName, toolCtx, messages, hookSet); err != nil {
				return core.Message{}, err
			}
		}

		hookSet.FireTurnEnd(messages)
	}
}

func callProvider(
	ctx context.Context,
	messages []core.Message,
	wire []core.WireTool,
	provider Provider,
	systemPrompt string,
	hookSet *hooks.Composed,
) (core.Message, int64, error) {
	start := time.Now()
	if hookSet.HasTextDeltaHandler() {
		iter, err := provider.Stream(ctx, messages, wire, systemPrompt)
		if err != nil {
			return core.Message{}, 0, err
		}
		defer iter.Close()

		for {
			event, ok := iter.Next()
			if !ok {
				return core.Message{}, 0, ErrStreamEndedWithoutDone
			}
			switch event.Kind {
			case StreamEventTextDelta:
				hookSet.FireTextDelta(event.Text)
			case StreamEventDone:
				return event.Message, time.Since(start).Milliseconds(), nil
			case StreamEventError:
				if event.Err != nil {
					return core.Message{}, 0, event.Err
				}
				return core.Message{}, 0, ErrStreamEndedWithoutDone
			default:
				// tool_start, tool_delta: tolerated and ignored.
			}
		}
	}

	msg, err := provider.Complete(ctx, messages, wire, systemPrompt)
	if err != nil {
		return core.Message{}, 0, err
	}
	return msg, time.Since(start).Milliseconds(), nil
}

func executeOne(
	ctx context.Context,
	call core.ContentBlock,
	byName map[string]core.Tool,
	toolCtx *core.ToolContext,
	messages *[]core.Message,
	hookSet *hooks.Composed,
) error {
	hookCall := hooks.ToolCall{ID: call.ToolCallID, Name: call.ToolName, Args: call.Args}
	hookSet.FireToolStart(hookCall)

	start := time.Now()
	result := dispatch(call, byName, toolCtx)
	durationMs := time.Since(start).Milliseconds()

	result.Content = core.TruncateToolResult(result.Content)
	result, err := hookSet.FireToolEnd(hookCall, result, durationMs)
	if err != nil {
		return err
	}

	*messages = append(*messages, core.NewToolResultMessage(call.ToolCallID, result.Content, result.IsError))
	return nil
}

// dispatch resolves a tool by name and runs it, converting every failure
// mode into an error-flagged result rather than a loop-fatal error. Tool
// errors are never fatal: they are category-1 failures per the error
// taxonomy and always become data fed back to the model.
func dispatch(call core.ContentBlock, byName map[string]core.Tool, toolCtx *core.ToolContext) core.ToolResult {
	tool, ok := byName[call.ToolName]
	if !ok {
		return core.ToolResult{Content: "Tool not found", IsError: true}
	}

	args := call.Args
	if tool.Schema != nil {
		coerced, err := tool.Schema.ValidateAndCoerce(args)
		if err != nil {
			return core.ToolResult{Content: fmt.Sprintf("Invalid arguments: %s", err.Error()), IsError: true}
		}
		args = coerced
	}

	result, err := runTool(tool, toolCtx, args)
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error: %s", err.Error()), IsError: true}
	}
	return result
}

// runTool executes the tool itself; a nil Execute is treated as the tool
// not existing.
func runTool(tool core.Tool, toolCtx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
	if tool.Execute == nil {
		return core.ToolResult{Content: "Tool not found", IsError: true}, nil
	}
	return tool.Execute(toolCtx, args)
}

// NewToolCallID generates a tool-call identifier in the teacher's
// uuid.NewString() style, for callers (e.g. providers, tests) that need to
// mint one outside a real provider response.
func NewToolCallID() string {
	return uuid.NewString()
}
