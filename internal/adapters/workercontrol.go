package adapters

import (
	"sync"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/pkg/core"
)

// ControlHandle is the pair (abort flag, steer queue) associated with one
// live worker. It is read by the worker-control hook on the worker's
// execution unit and written by the steer/abort tools on the main agent's
// execution unit, so every access goes through the mutex.
type ControlHandle struct {
	mu      sync.Mutex
	aborted bool
	steers  []string
}

// NewControlHandle returns a fresh, non-aborted control handle.
func NewControlHandle() *ControlHandle {
	return &ControlHandle{}
}

// Abort sets the abort flag. The worker sees it at its next onToolEnd.
func (h *ControlHandle) Abort() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.aborted = true
}

// Steer enqueues a steer message for delivery at the next turn boundary.
func (h *ControlHandle) Steer(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steers = append(h.steers, msg)
}

// IsAborted reports the current abort flag.
func (h *ControlHandle) IsAborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborted
}

// drainSteers removes and returns all queued steer messages, in FIFO order.
func (h *ControlHandle) drainSteers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.steers) == 0 {
		return nil
	}
	drained := h.steers
	h.steers = nil
	return drained
}

// WorkerControl is the worker-control hook adapter: it checks the abort flag
// between tool executions and drains the steer queue between turns.
type WorkerControl struct {
	TaskID string
	Handle *ControlHandle
}

// NewWorkerControl builds a worker-control adapter bound to one task's
// control handle.
func NewWorkerControl(taskID string, handle *ControlHandle) *WorkerControl {
	return &WorkerControl{TaskID: taskID, Handle: handle}
}

// HookSet returns the hook-set this adapter installs into a worker's loop.
func (w *WorkerControl) HookSet() hooks.HookSet {
	return hooks.HookSet{
		OnToolEnd: func(call hooks.ToolCall, result core.ToolResult, durationMs int64) (core.ToolResult, bool, error) {
			if w.Handle.IsAborted() {
				return core.ToolResult{}, false, &agent.AbortedError{TaskID: w.TaskID}
			}
			return result, false, nil
		},
		OnTurnEnd: func(messages *[]core.Message) {
			for _, s := range w.Handle.drainSteers() {
				*messages = append(*messages, core.NewUserMessage("[Steer] "+s))
			}
		},
	}
}
