package adapters

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/pkg/core"
)

func readTraceEvents(t *testing.T, dir, traceID string) []TraceEvent {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, traceID+".jsonl"))
	if err != nil {
		t.Fatalf("open trace file: %v", err)
	}
	defer f.Close()

	var events []TraceEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var evt TraceEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			t.Fatalf("unmarshal trace event: %v", err)
		}
		events = append(events, evt)
	}
	return events
}

func TestTracer_EmitsSpanTreeForOneLoopPass(t *testing.T) {
	dir := t.TempDir()
	tracer := NewTracer(dir, "claude-x")
	set := tracer.HookSet()
	hookSet := hooks.Combine(set)

	hookSet.FireLoopStart()
	hookSet.FireLlmStart([]core.Message{core.NewUserMessage("hi")})
	hookSet.FireLlmEnd(core.Message{}, 42)
	call := hooks.ToolCall{ID: "call-1", Name: "echo", Args: map[string]any{"text": "ping"}}
	hookSet.FireToolStart(call)
	if _, err := hookSet.FireToolEnd(call, core.ToolResult{Content: "echo: ping"}, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hookSet.FireLoopEnd(1)
	if err := tracer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := readTraceEvents(t, dir, tracer.TraceID())
	if len(events) != 6 {
		t.Fatalf("expected 6 trace events, got %d", len(events))
	}

	kinds := make([]TraceEventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
		if e.TraceID != tracer.TraceID() {
			t.Errorf("event %d: expected trace id %q, got %q", i, tracer.TraceID(), e.TraceID)
		}
	}
	want := []TraceEventKind{TraceAgentStart, TraceLlmStart, TraceLlmEnd, TraceToolStart, TraceToolEnd, TraceAgentEnd}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("event %d: expected kind %s, got %s", i, k, kinds[i])
		}
	}

	// the tool_end span id should match the tool_start span id (same tool call)
	if events[3].SpanID != events[4].SpanID {
		t.Errorf("expected tool_start/tool_end to share a span id, got %q vs %q", events[3].SpanID, events[4].SpanID)
	}
	// every event's parent chain should resolve to the agent span
	if events[1].ParentSpan != events[0].SpanID {
		t.Errorf("expected llm_start's parent to be the agent span")
	}
}

func TestTracer_OnErrorEmitsErrorEvent(t *testing.T) {
	dir := t.TempDir()
	tracer := NewTracer(dir, "claude-x")
	hookSet := hooks.Combine(tracer.HookSet())

	hookSet.FireLoopStart()
	hookSet.FireError(errTest("boom"))
	_ = tracer.Close()

	events := readTraceEvents(t, dir, tracer.TraceID())
	var sawError bool
	for _, e := range events {
		if e.Kind == TraceError {
			sawError = true
			if e.Data["message"] != "boom" {
				t.Errorf("expected error message %q, got %v", "boom", e.Data["message"])
			}
		}
	}
	if !sawError {
		t.Error("expected an error trace event")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestTracer_LazyFileCreation(t *testing.T) {
	dir := t.TempDir()
	tracer := NewTracer(dir, "")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatal("expected no trace file before the first emit")
	}

	hooks.Combine(tracer.HookSet()).FireLoopStart()
	_ = tracer.Close()

	entries, err = os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one trace file after the first emit, got %d", len(entries))
	}
}
