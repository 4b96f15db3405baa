package adapters

import (
	"errors"
	"testing"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/pkg/core"
)

func TestControlHandle_AbortIsObservedAcrossGoroutines(t *testing.T) {
	h := NewControlHandle()
	if h.IsAborted() {
		t.Fatal("expected a fresh handle to be non-aborted")
	}
	done := make(chan struct{})
	go func() {
		h.Abort()
		close(done)
	}()
	<-done
	if !h.IsAborted() {
		t.Error("expected IsAborted to observe the abort set from another goroutine")
	}
}

func TestControlHandle_DrainSteers_FIFOAndClears(t *testing.T) {
	h := NewControlHandle()
	h.Steer("first")
	h.Steer("second")

	drained := h.drainSteers()
	if len(drained) != 2 || drained[0] != "first" || drained[1] != "second" {
		t.Errorf("expected [first second], got %v", drained)
	}
	if more := h.drainSteers(); more != nil {
		t.Errorf("expected drain to clear the queue, got %v", more)
	}
}

func TestWorkerControl_OnToolEnd_AbortedProducesAbortedError(t *testing.T) {
	handle := NewControlHandle()
	handle.Abort()
	wc := NewWorkerControl("t_001", handle)
	hookSet := hooks.Combine(wc.HookSet())

	_, err := hookSet.FireToolEnd(hooks.ToolCall{Name: "echo"}, core.ToolResult{Content: "ok"}, 0)

	var aborted *agent.AbortedError
	if !errors.As(err, &aborted) || aborted.TaskID != "t_001" {
		t.Fatalf("expected AbortedError for t_001, got %v", err)
	}
}

func TestWorkerControl_OnToolEnd_NotAborted_PassesResultThrough(t *testing.T) {
	handle := NewControlHandle()
	wc := NewWorkerControl("t_001", handle)
	hookSet := hooks.Combine(wc.HookSet())

	result, err := hookSet.FireToolEnd(hooks.ToolCall{Name: "echo"}, core.ToolResult{Content: "ok"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "ok" {
		t.Errorf("expected result passed through unchanged, got %q", result.Content)
	}
}

func TestWorkerControl_OnTurnEnd_InjectsSteerMessages(t *testing.T) {
	handle := NewControlHandle()
	handle.Steer("change approach")
	wc := NewWorkerControl("t_001", handle)
	hookSet := hooks.Combine(wc.HookSet())

	messages := []core.Message{core.NewUserMessage("original task")}
	hookSet.FireTurnEnd(&messages)

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages after turn end, got %d", len(messages))
	}
	if messages[1].Text != "[Steer] change approach" {
		t.Errorf("expected steer message injected, got %q", messages[1].Text)
	}
}
