// Package scan implements the directory-scan tool: a recursive directory
// listing scoped to the execution context's working directory, grounded in
// the teacher's internal/tools/files read-only listing helpers.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conductor-ai/conductor/internal/tools/files"
	"github.com/conductor-ai/conductor/pkg/core"
)

var scanDirSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"path":     map[string]any{"type": "string", "description": "Directory to scan, relative to the working directory. Defaults to \".\"."},
		"maxDepth": map[string]any{"type": "integer", "description": "Maximum recursion depth. 0 means unlimited."},
	},
})

// ScanDirTool returns the scan_dir tool: it lists files and directories
// under a path, relative to the execution context's working directory.
func ScanDirTool() core.Tool {
	return core.Tool{
		Name:        "scan_dir",
		Description: "Recursively list files and directories under a path.",
		Schema:      scanDirSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			path, _ := args["path"].(string)
			if path == "" {
				path = "."
			}
			maxDepth := 0
			if v, ok := args["maxDepth"].(float64); ok {
				maxDepth = int(v)
			}

			resolver := files.Resolver{Root: ctx.Cwd}
			root, err := resolver.Resolve(path)
			if err != nil {
				return core.ToolResult{Content: err.Error(), IsError: true}, nil
			}

			var lines []string
			err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				rel, relErr := filepath.Rel(root, p)
				if relErr != nil {
					return relErr
				}
				if rel == "." {
					return nil
				}
				if maxDepth > 0 && strings.Count(rel, string(os.PathSeparator))+1 > maxDepth {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
				suffix := ""
				if d.IsDir() {
					suffix = "/"
				}
				lines = append(lines, rel+suffix)
				return nil
			})
			if err != nil {
				return core.ToolResult{Content: fmt.Sprintf("scan directory: %v", err), IsError: true}, nil
			}

			sort.Strings(lines)
			return core.ToolResult{Content: strings.Join(lines, "\n")}, nil
		},
	}
}
