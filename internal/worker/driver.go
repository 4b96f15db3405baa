// Package worker implements the worker driver: it reads a task directory,
// runs the agent loop scoped to that task, and records the terminal result.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/internal/tasks"
	"github.com/conductor-ai/conductor/pkg/core"
)

// Status is the terminal status a Run reports to its caller. It mirrors
// tasks.Status but is restricted to the two outcomes the driver itself
// decides between; the on-disk aborted status is a distinct concern (see
// Run's doc comment).
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result is the worker driver's return value.
type Result struct {
	TaskID string
	Status Status
	Output string // set on completed
	Err    error  // set on failed
}

// SystemPromptBuilder composes the worker system prompt from the host
// behavior guide, skill summaries, protocol instructions, a working
// directory reminder, and the task's own heading/instructions. The
// composition itself is external to the core; implementations typically
// close over a skills.Discovery.
type SystemPromptBuilder func(taskDir, instructions string) string

// Run reads <taskDir>/task.md, runs the agent loop scoped to that task
// directory, writes result.md, and transitions task status
// pending -> running -> {completed, failed}. It does not write progress.md.
//
// A worker-control Aborted error is caught like any other failure, but per
// the principled reading in the design notes, the driver adopts the
// "aborted" status on disk rather than "failed" when isAborted (typically
// the task's control handle) reports the abort flag is set — the abort
// tool's recorded intent wins the last-writer-wins race instead of being
// silently overwritten by this driver's own terminal transition.
func Run(
	ctx context.Context,
	store *tasks.Store,
	taskDir string,
	tools []core.Tool,
	provider agent.Provider,
	baseContext core.ToolContext,
	promptBuilder SystemPromptBuilder,
	hookSet *hooks.Composed,
	isAborted func() bool,
	logger *slog.Logger,
) Result {
	if logger == nil {
		logger = slog.Default()
	}
	taskID := tasks.IDFromDir(taskDir)

	rec, err := store.Read(taskDir)
	if err != nil {
		logger.Error("worker: failed to read task", "task_id", taskID, "error", err)
		return Result{TaskID: taskID, Status: StatusFailed, Err: err}
	}

	rec.TransitionRunning()
	if err := store.Write(rec); err != nil {
		logger.Error("worker: failed to persist running status", "task_id", taskID, "error", err)
	}

	workerCtx := baseContext
	workerCtx.Cwd = taskDir
	workerCtx.WriteRoot = taskDir

	systemPrompt := rec.Instructions
	if promptBuilder != nil {
		systemPrompt = promptBuilder(taskDir, rec.Instructions)
	}

	messages := []core.Message{core.NewUserMessage(rec.Instructions)}

	finalMsg, runErr := agent.Run(ctx, &messages, tools, provider, &workerCtx, systemPrompt, hookSet)
	if runErr != nil {
		return finishFailed(store, rec, taskID, runErr, isAborted, logger)
	}

	output := finalMsg.TextContent()
	if err := store.WriteResult(taskDir, output); err != nil {
		logger.Warn("worker: failed to write result.md", "task_id", taskID, "error", err)
	}
	if err := rec.TransitionTerminal(tasks.StatusCompleted); err != nil {
		logger.Warn("worker: bad terminal transition", "task_id", taskID, "error", err)
	}
	if err := store.Write(rec); err != nil {
		logger.Warn("worker: failed to persist completed status", "task_id", taskID, "error", err)
	}

	return Result{TaskID: taskID, Status: StatusCompleted, Output: output}
}

func finishFailed(store *tasks.Store, rec *tasks.Record, taskID string, runErr error, isAborted func() bool, logger *slog.Logger) Result {
	msg := fmt.Sprintf("Error: %s", runErr.Error())
	wasAborted := false
	if aborted, ok := runErr.(*agent.AbortedError); ok {
		msg = fmt.Sprintf("Error: Task %s was aborted", aborted.TaskID)
		wasAborted = isAborted != nil && isAborted()
	}

	if err := store.WriteResult(rec.Dir, msg); err != nil {
		logger.Warn("worker: failed to write result.md", "task_id", taskID, "error", err)
	}

	diskStatus := tasks.StatusFailed
	if wasAborted {
		diskStatus = tasks.StatusAborted
	}
	if err := rec.TransitionTerminal(diskStatus); err != nil {
		logger.Warn("worker: bad terminal transition", "task_id", taskID, "error", err)
	}
	if err := store.Write(rec); err != nil {
		logger.Warn("worker: failed to persist terminal status", "task_id", taskID, "status", diskStatus, "error", err)
	}

	return Result{TaskID: taskID, Status: StatusFailed, Err: runErr}
}
