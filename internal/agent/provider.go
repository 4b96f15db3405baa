package agent

import (
	"context"

	"github.com/conductor-ai/conductor/pkg/core"
)

// Provider is the external LLM-vendor capability the loop depends on.
// Concrete implementations live in internal/providers.
type Provider interface {
	// Complete runs one blocking turn and returns the assistant message.
	Complete(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (core.Message, error)

	// Stream runs one turn, delivering StreamEvents as they arrive.
	Stream(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (StreamIterator, error)
}

// StreamEventKind tags the variant carried by a StreamEvent.
type StreamEventKind string

const (
	StreamEventTextDelta StreamEventKind = "text_delta"
	StreamEventToolStart StreamEventKind = "tool_start"
	StreamEventToolDelta StreamEventKind = "tool_delta"
	StreamEventDone      StreamEventKind = "done"
	StreamEventError     StreamEventKind = "error"
)

// StreamToolStart is the tool-call header carried by a tool_start event.
type StreamToolStart struct {
	ID   string
	Name string
}

// StreamEvent is one event from a provider's streaming call. The loop
// consumes TextDelta and Done, ends the call with Err on an Error event, and
// ignores the tool_start/tool_delta kinds.
type StreamEvent struct {
	Kind StreamEventKind

	Text      string          // text_delta
	ToolStart StreamToolStart // tool_start
	Message   core.Message    // done
	Err       error           // error
}

// StreamIterator yields StreamEvents until the underlying stream closes.
// Next returns ok=false once the stream has ended (with or without a done
// event having been seen).
type StreamIterator interface {
	Next() (event StreamEvent, ok bool)
	Close() error
}
