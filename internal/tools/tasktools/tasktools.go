// Package tasktools implements the three main-agent tools that hand
// task-lifecycle events back to the runtime through the tool-execution
// context's callbacks (§3, §4.6): create_task, steer, and abort.
package tasktools

import (
	"fmt"
	"strings"

	"github.com/conductor-ai/conductor/internal/tasks"
	"github.com/conductor-ai/conductor/pkg/core"
)

var createTaskSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":         map[string]any{"type": "string", "description": "Short human-readable task name."},
		"description":  map[string]any{"type": "string", "description": "One-line description of what the worker should accomplish."},
		"instructions": map[string]any{"type": "string", "description": "Full instructions for the worker."},
		"model":        map[string]any{"type": "string", "description": "Optional model override for the worker."},
		"tags":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []any{"name", "description", "instructions"},
})

// CreateTaskTool returns the create_task tool: it allocates a new task
// directory via store, then invokes ctx.OnTaskCreated so the runtime spawns
// a worker for it.
func CreateTaskTool(store *tasks.Store) core.Tool {
	return core.Tool{
		Name:        "create_task",
		Description: "Create a background task and spawn a worker agent to carry it out.",
		Schema:      createTaskSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			name, _ := args["name"].(string)
			description, _ := args["description"].(string)
			instructions, _ := args["instructions"].(string)
			model, _ := args["model"].(string)

			var tags []string
			if raw, ok := args["tags"].([]any); ok {
				for _, t := range raw {
					if s, ok := t.(string); ok {
						tags = append(tags, s)
					}
				}
			}

			dir, err := store.Create(name, description, model, tags, instructions)
			if err != nil {
				return core.ToolResult{Content: fmt.Sprintf("create task: %v", err), IsError: true}, nil
			}

			if ctx.OnTaskCreated != nil {
				ctx.OnTaskCreated(dir)
			}

			id := tasks.IDFromDir(dir)
			return core.ToolResult{Content: fmt.Sprintf("Created task %s: %s", id, name)}, nil
		},
	}
}

var steerSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"taskId":  map[string]any{"type": "string", "description": "Id of the running task, e.g. t_001."},
		"message": map[string]any{"type": "string", "description": "Steering instructions to deliver at the worker's next turn boundary."},
	},
	"required": []any{"taskId", "message"},
})

// SteerTool returns the steer tool: it forwards a message to a running
// worker via ctx.OnSteer.
func SteerTool() core.Tool {
	return core.Tool{
		Name:        "steer",
		Description: "Send a steering instruction to a running background task.",
		Schema:      steerSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			taskID, _ := args["taskId"].(string)
			message, _ := args["message"].(string)
			taskID = strings.TrimSpace(taskID)
			if taskID == "" || message == "" {
				return core.ToolResult{Content: "taskId and message are required", IsError: true}, nil
			}
			if ctx.OnSteer != nil {
				ctx.OnSteer(taskID, message)
			}
			return core.ToolResult{Content: fmt.Sprintf("Steered task %s", taskID)}, nil
		},
	}
}

var abortSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"taskId": map[string]any{"type": "string", "description": "Id of the running task, e.g. t_001."},
	},
	"required": []any{"taskId"},
})

// AbortTool returns the abort tool. Per §9's design note, it both records
// the aborted status on disk directly and flips the in-memory control
// handle via ctx.OnAbort; the worker driver's own "failed" transition is
// then superseded when it observes the handle's abort flag (see
// worker.Run's status-reconciliation).
func AbortTool(store *tasks.Store) core.Tool {
	return core.Tool{
		Name:        "abort",
		Description: "Abort a running background task.",
		Schema:      abortSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			taskID, _ := args["taskId"].(string)
			taskID = strings.TrimSpace(taskID)
			if taskID == "" {
				return core.ToolResult{Content: "taskId is required", IsError: true}, nil
			}

			dir := taskDirFor(store, taskID)
			if rec, err := store.Read(dir); err == nil {
				if err := rec.TransitionTerminal(tasks.StatusAborted); err == nil {
					_ = store.Write(rec)
				}
			}

			if ctx.OnAbort != nil {
				ctx.OnAbort(taskID)
			}
			return core.ToolResult{Content: fmt.Sprintf("Aborted task %s", taskID)}, nil
		},
	}
}

func taskDirFor(store *tasks.Store, taskID string) string {
	return store.Root() + "/" + taskID
}
