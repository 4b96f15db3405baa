package hooks

import (
	"errors"
	"testing"

	"github.com/conductor-ai/conductor/pkg/core"
)

func TestComposed_NilSafe(t *testing.T) {
	var c *Composed
	c.FireLoopStart()
	c.FireLoopEnd(1)
	c.FireLlmStart(nil)
	c.FireLlmEnd(core.Message{}, 0)
	c.FireToolStart(ToolCall{})
	if _, err := c.FireToolEnd(ToolCall{}, core.ToolResult{}, 0); err != nil {
		t.Errorf("expected nil error from nil composed, got %v", err)
	}
	messages := []core.Message{}
	c.FireTurnEnd(&messages)
	c.FireTextDelta("x")
	c.FireError(errors.New("boom"))
	if c.HasTextDeltaHandler() {
		t.Error("nil composed should report no text delta handler")
	}
}

func TestCombine_FiresInInstallationOrder(t *testing.T) {
	var order []string
	a := HookSet{OnLoopStart: func() { order = append(order, "a") }}
	b := HookSet{OnLoopStart: func() { order = append(order, "b") }}
	c := Combine(a, b)

	c.FireLoopStart()

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("expected [a b], got %v", order)
	}
}

func TestComposed_HasTextDeltaHandler(t *testing.T) {
	c := Combine(HookSet{}, HookSet{OnTextDelta: func(string) {}})
	if !c.HasTextDeltaHandler() {
		t.Error("expected a text delta handler to be detected")
	}

	none := Combine(HookSet{}, HookSet{})
	if none.HasTextDeltaHandler() {
		t.Error("expected no text delta handler")
	}
}

func TestComposed_FireToolEnd_ThreadsReplacement(t *testing.T) {
	first := HookSet{
		OnToolEnd: func(call ToolCall, result core.ToolResult, durationMs int64) (core.ToolResult, bool, error) {
			return core.ToolResult{Content: result.Content + "-first"}, true, nil
		},
	}
	second := HookSet{
		OnToolEnd: func(call ToolCall, result core.ToolResult, durationMs int64) (core.ToolResult, bool, error) {
			return core.ToolResult{Content: result.Content + "-second"}, true, nil
		},
	}
	c := Combine(first, second)

	result, err := c.FireToolEnd(ToolCall{Name: "read_file"}, core.ToolResult{Content: "base"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "base-first-second" {
		t.Errorf("expected chained replacement, got %q", result.Content)
	}
}

func TestComposed_FireToolEnd_StopsOnError(t *testing.T) {
	abortErr := errors.New("aborted")
	var secondCalled bool
	first := HookSet{
		OnToolEnd: func(call ToolCall, result core.ToolResult, durationMs int64) (core.ToolResult, bool, error) {
			return core.ToolResult{}, false, abortErr
		},
	}
	second := HookSet{
		OnToolEnd: func(call ToolCall, result core.ToolResult, durationMs int64) (core.ToolResult, bool, error) {
			secondCalled = true
			return result, false, nil
		},
	}
	c := Combine(first, second)

	_, err := c.FireToolEnd(ToolCall{}, core.ToolResult{Content: "base"}, 0)
	if !errors.Is(err, abortErr) {
		t.Fatalf("expected abortErr, got %v", err)
	}
	if secondCalled {
		t.Error("expected iteration to stop after the first handler's error")
	}
}

func TestComposed_FireTurnEnd_MutatesSharedSlice(t *testing.T) {
	appendMsg := HookSet{
		OnTurnEnd: func(messages *[]core.Message) {
			*messages = append(*messages, core.NewUserMessage("[Steer] hi"))
		},
	}
	c := Combine(appendMsg)

	messages := []core.Message{core.NewUserMessage("original")}
	c.FireTurnEnd(&messages)

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages after turn end, got %d", len(messages))
	}
	if messages[1].Text != "[Steer] hi" {
		t.Errorf("expected steer message appended, got %q", messages[1].Text)
	}
}
