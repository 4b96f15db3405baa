package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/conductor-ai/conductor/pkg/core"
)

func toolError(msg string) core.ToolResult {
	return core.ToolResult{Content: msg, IsError: true}
}

// readFileSchema and writeFileSchema mirror the teacher's flat
// {path, ...} parameter shape.
var readFileSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"path": map[string]any{"type": "string", "description": "Path to read, relative to the tool's working directory."},
	},
	"required": []any{"path"},
})

var writeFileSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"path":    map[string]any{"type": "string", "description": "Path to write, relative to the tool's working directory."},
		"content": map[string]any{"type": "string", "description": "Content to write."},
	},
	"required": []any{"path", "content"},
})

// ReadFileTool returns the read_file tool: it reads a file relative to the
// execution context's working directory.
func ReadFileTool() core.Tool {
	return core.Tool{
		Name:        "read_file",
		Description: "Read the contents of a file.",
		Schema:      readFileSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			path, _ := args["path"].(string)
			resolver := Resolver{Root: ctx.Cwd}
			resolved, err := resolver.Resolve(path)
			if err != nil {
				return toolError(err.Error()), nil
			}
			data, err := os.ReadFile(resolved)
			if err != nil {
				return toolError(fmt.Sprintf("read file: %v", err)), nil
			}
			return core.ToolResult{Content: string(data)}, nil
		},
	}
}

// WriteFileTool returns the write_file tool. When ctx.WriteRoot is set, any
// path resolving outside it is refused as an error-flagged result, and no
// file is written.
func WriteFileTool() core.Tool {
	return core.Tool{
		Name:        "write_file",
		Description: "Write content to a file, creating or overwriting it.",
		Schema:      writeFileSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)

			root := ctx.WriteRoot
			if root == "" {
				root = ctx.Cwd
			}
			resolver := Resolver{Root: root}
			resolved, err := resolver.Resolve(path)
			if err != nil {
				return toolError(err.Error()), nil
			}

			if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
				return toolError(fmt.Sprintf("create parent dirs: %v", err)), nil
			}
			if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
				return toolError(fmt.Sprintf("write file: %v", err)), nil
			}
			return core.ToolResult{Content: fmt.Sprintf("wrote %d bytes to %s", len(content), path)}, nil
		},
	}
}
