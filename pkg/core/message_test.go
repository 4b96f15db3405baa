package core

import "testing"

func TestNewUserMessage(t *testing.T) {
	m := NewUserMessage("hello")
	if m.Role != RoleUser {
		t.Errorf("expected role %s, got %s", RoleUser, m.Role)
	}
	if m.Text != "hello" {
		t.Errorf("expected text %q, got %q", "hello", m.Text)
	}
}

func TestNewToolResultMessage(t *testing.T) {
	m := NewToolResultMessage("call-1", "result text", true)
	if m.Role != RoleTool {
		t.Errorf("expected role %s, got %s", RoleTool, m.Role)
	}
	if m.ToolCallID != "call-1" {
		t.Errorf("expected tool call id %q, got %q", "call-1", m.ToolCallID)
	}
	if m.Content != "result text" {
		t.Errorf("expected content %q, got %q", "result text", m.Content)
	}
	if !m.IsError {
		t.Error("expected IsError true")
	}
}

func TestContentBlock_IsToolCall(t *testing.T) {
	text := TextBlock("hi")
	if text.IsToolCall() {
		t.Error("text block should not be a tool call")
	}
	call := ToolCallBlock("id-1", "read_file", map[string]any{"path": "a.txt"})
	if !call.IsToolCall() {
		t.Error("tool call block should report IsToolCall")
	}
}

func TestMessage_ToolCalls(t *testing.T) {
	msg := NewAssistantMessage([]ContentBlock{
		TextBlock("thinking..."),
		ToolCallBlock("id-1", "read_file", map[string]any{"path": "a.txt"}),
		ToolCallBlock("id-2", "write_file", map[string]any{"path": "b.txt"}),
	})
	calls := msg.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(calls))
	}
	if calls[0].ToolCallID != "id-1" || calls[1].ToolCallID != "id-2" {
		t.Errorf("tool calls out of order: %+v", calls)
	}
}

func TestMessage_ToolCalls_NonAssistant(t *testing.T) {
	msg := NewUserMessage("hi")
	if calls := msg.ToolCalls(); calls != nil {
		t.Errorf("expected nil tool calls for user message, got %v", calls)
	}
}

func TestMessage_TextContent(t *testing.T) {
	msg := NewAssistantMessage([]ContentBlock{
		TextBlock("Hello, "),
		ToolCallBlock("id-1", "read_file", nil),
		TextBlock("world."),
	})
	if got := msg.TextContent(); got != "Hello, world." {
		t.Errorf("expected %q, got %q", "Hello, world.", got)
	}
}
