// Package adapters implements the three hook adapters that plug into the
// agent loop: tracing, context compaction, and worker control.
package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/pkg/core"
)

// TraceEventKind enumerates the span kinds a Tracer emits.
type TraceEventKind string

const (
	TraceAgentStart TraceEventKind = "agent_start"
	TraceAgentEnd   TraceEventKind = "agent_end"
	TraceLlmStart   TraceEventKind = "llm_start"
	TraceLlmEnd     TraceEventKind = "llm_end"
	TraceToolStart  TraceEventKind = "tool_start"
	TraceToolEnd    TraceEventKind = "tool_end"
	TraceError      TraceEventKind = "error"
)

// TraceEvent is one JSONL line written by the Tracer.
type TraceEvent struct {
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	ParentSpan string         `json:"parent_span,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Kind       TraceEventKind `json:"kind"`
	Data       map[string]any `json:"data,omitempty"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
}

// Tracer writes a JSONL span tree for one agent loop invocation to
// <traceDir>/<traceID>.jsonl, creating the file lazily on first emit.
// Write failures are swallowed per-event: tracing must not crash the loop.
type Tracer struct {
	mu sync.Mutex

	traceDir string
	traceID  string
	model    string

	file *os.File

	agentSpanID string
	llmSpanID   string
	toolSpans   map[string]string // tool-call id -> tool-span id
}

// NewTracer constructs a Tracer for one loop invocation. model is recorded on
// the agent_start event.
func NewTracer(traceDir, model string) *Tracer {
	return &Tracer{
		traceDir:  traceDir,
		traceID:   uuid.NewString(),
		model:     model,
		toolSpans: make(map[string]string),
	}
}

// TraceID reports the identifier used for this tracer's file name and every
// event it emits.
func (t *Tracer) TraceID() string {
	return t.traceID
}

// HookSet returns the hook-set this tracer installs into a composed loop.
func (t *Tracer) HookSet() hooks.HookSet {
	return hooks.HookSet{
		OnLoopStart: func() {
			t.agentSpanID = uuid.NewString()
			t.emit(TraceEvent{
				SpanID: t.agentSpanID,
				Kind:   TraceAgentStart,
				Data:   map[string]any{"model": t.model},
			})
		},
		OnLoopEnd: func(turns int) {
			t.emit(TraceEvent{
				SpanID: t.agentSpanID,
				Kind:   TraceAgentEnd,
				Data:   map[string]any{"total_turns": turns},
			})
		},
		OnLlmStart: func(messages []core.Message) {
			t.llmSpanID = uuid.NewString()
			t.emit(TraceEvent{
				SpanID:     t.llmSpanID,
				ParentSpan: t.agentSpanID,
				Kind:       TraceLlmStart,
				Data:       map[string]any{"message_count": len(messages)},
			})
		},
		OnLlmEnd: func(msg core.Message, durationMs int64) {
			t.emit(TraceEvent{
				SpanID:     t.llmSpanID,
				ParentSpan: t.agentSpanID,
				Kind:       TraceLlmEnd,
				DurationMs: &durationMs,
			})
		},
		OnToolStart: func(call hooks.ToolCall) {
			spanID := uuid.NewString()
			t.mu.Lock()
			t.toolSpans[call.ID] = spanID
			t.mu.Unlock()
			t.emit(TraceEvent{
				SpanID:     spanID,
				ParentSpan: t.llmSpanID,
				Kind:       TraceToolStart,
				Data:       map[string]any{"tool": call.Name, "arguments": call.Args},
			})
		},
		OnToolEnd: func(call hooks.ToolCall, result core.ToolResult, durationMs int64) (core.ToolResult, bool, error) {
			t.mu.Lock()
			spanID := t.toolSpans[call.ID]
			delete(t.toolSpans, call.ID)
			t.mu.Unlock()
			t.emit(TraceEvent{
				SpanID:     spanID,
				ParentSpan: t.llmSpanID,
				Kind:       TraceToolEnd,
				DurationMs: &durationMs,
				Data: map[string]any{
					"tool":         call.Name,
					"result_len":   len(result.Content),
					"is_error":     result.IsError,
				},
			})
			return result, false, nil
		},
		OnError: func(err error) {
			t.emit(TraceEvent{
				SpanID: t.agentSpanID,
				Kind:   TraceError,
				Data:   map[string]any{"message": err.Error()},
			})
		},
	}
}

func (t *Tracer) emit(evt TraceEvent) {
	evt.TraceID = t.traceID
	evt.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		if err := os.MkdirAll(t.traceDir, 0o755); err != nil {
			return
		}
		f, err := os.OpenFile(filepath.Join(t.traceDir, t.traceID+".jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		t.file = f
	}

	data = append(data, '\n')
	_, _ = t.file.Write(data)
}

// Close releases the underlying trace file, if one was opened.
func (t *Tracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}
