// Package exec implements the shell tool: synchronous command execution
// scoped to a working directory, with its own per-call deadline.
package exec

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/conductor-ai/conductor/pkg/core"
)

// DefaultTimeout bounds how long a single shell invocation may run. Tool
// deadlines are this tool's own concern, not the agent loop's.
const DefaultTimeout = 2 * time.Minute

var shellSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"command": map[string]any{"type": "string", "description": "Shell command to run."},
	},
	"required": []any{"command"},
})

// ShellTool returns the shell tool. It always runs via "sh -c" in the
// execution context's working directory; by default it is not constrained
// to writeRoot even when one is set, per the open question in the design
// notes — callers wanting a sandboxed shell must wrap this tool themselves.
func ShellTool() core.Tool {
	return core.Tool{
		Name:        "shell",
		Description: "Run a shell command and return its combined output.",
		Schema:      shellSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			command, _ := args["command"].(string)
			if command == "" {
				return core.ToolResult{Content: "command is required", IsError: true}, nil
			}

			runCtx, cancel := contextWithTimeout(ctx, DefaultTimeout)
			defer cancel()

			cmd := exec.CommandContext(runCtx, "sh", "-c", command)
			if ctx.Cwd != "" {
				cmd.Dir = ctx.Cwd
			}

			output, err := cmd.CombinedOutput()
			if err != nil {
				return core.ToolResult{
					Content: fmt.Sprintf("exit error: %v\n%s", err, output),
					IsError: true,
				}, nil
			}
			return core.ToolResult{Content: string(output)}, nil
		},
	}
}

func contextWithTimeout(toolCtx *core.ToolContext, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(toolCtx, d)
}
