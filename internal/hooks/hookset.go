// Package hooks defines the agent loop's lifecycle hook-set and the composer
// that folds several hook-sets into one.
package hooks

import "github.com/conductor-ai/conductor/pkg/core"

// ToolCall is the information available to onToolStart/onToolEnd about the
// call being dispatched.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// HookSet is a collection of optional lifecycle callbacks. Every field is
// nilable; a zero-value HookSet observes nothing.
type HookSet struct {
	OnLoopStart func()
	OnLoopEnd   func(turns int)
	OnLlmStart  func(messages []core.Message)
	OnLlmEnd    func(msg core.Message, durationMs int64)
	OnToolStart func(call ToolCall)

	// OnToolEnd may return a replacement result (ok reports whether it did)
	// or an error, which aborts the loop (e.g. the worker-control adapter's
	// Aborted exception). A non-nil error takes precedence over ok/replacement.
	OnToolEnd func(call ToolCall, result core.ToolResult, durationMs int64) (replacement core.ToolResult, ok bool, err error)

	// OnTurnEnd observes (and may append to) the full, mutable message list.
	OnTurnEnd func(messages *[]core.Message)

	OnTextDelta func(fragment string)
	OnError     func(err error)
}

// HasTextDeltaHandler reports whether this hook-set (before composition)
// installs an onTextDelta callback.
func (h HookSet) HasTextDeltaHandler() bool {
	return h.OnTextDelta != nil
}
