package agent

import "errors"

// Sentinel errors surfaced by the agent loop. Per the error taxonomy, only
// provider errors, stream-without-done, and aborts are fatal to a loop
// invocation; everything else is absorbed into tool-result content.
var (
	// ErrStreamEndedWithoutDone indicates a streaming provider call closed
	// its event iterator without ever emitting a done event.
	ErrStreamEndedWithoutDone = errors.New("agent: stream ended without done event")

	// ErrNoProvider indicates the loop was invoked without a provider.
	ErrNoProvider = errors.New("agent: no provider configured")
)

// AbortedError is raised by the worker-control hook adapter when a worker's
// control handle has its abort flag set. It propagates out of the loop via
// onError and out of the worker driver, which records it as a failure.
type AbortedError struct {
	TaskID string
}

func (e *AbortedError) Error() string {
	return "agent: task " + e.TaskID + " was aborted"
}
