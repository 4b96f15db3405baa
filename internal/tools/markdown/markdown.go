// Package markdown implements the markdown-load tool: it reads a markdown
// file and splits off any leading frontmatter so the model sees the body
// separately from its metadata, grounded in the teacher's internal/markdown
// table-processing package and internal/tools/files read tool.
package markdown

import (
	"fmt"
	"os"
	"strings"

	"github.com/conductor-ai/conductor/internal/tools/files"
	"github.com/conductor-ai/conductor/pkg/core"
)

var loadMarkdownSchema = core.NewSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"path": map[string]any{"type": "string", "description": "Markdown file to load, relative to the working directory."},
	},
	"required": []any{"path"},
})

// LoadMarkdownTool returns the load tool: it reads a markdown file and
// returns its body with any leading `---`-delimited frontmatter block
// stripped and summarized separately.
func LoadMarkdownTool() core.Tool {
	return core.Tool{
		Name:        "load",
		Description: "Load a markdown file, separating any frontmatter from the body.",
		Schema:      loadMarkdownSchema,
		Execute: func(ctx *core.ToolContext, args map[string]any) (core.ToolResult, error) {
			path, _ := args["path"].(string)
			resolver := files.Resolver{Root: ctx.Cwd}
			resolved, err := resolver.Resolve(path)
			if err != nil {
				return core.ToolResult{Content: err.Error(), IsError: true}, nil
			}

			data, err := os.ReadFile(resolved)
			if err != nil {
				return core.ToolResult{Content: fmt.Sprintf("load markdown: %v", err), IsError: true}, nil
			}

			fm, body := splitFrontmatter(string(data))
			content := body
			if fm != "" {
				content = "Frontmatter:\n" + fm + "\n\nBody:\n" + body
			}
			return core.ToolResult{Content: content}, nil
		},
	}
}

// splitFrontmatter separates a leading `---`-delimited block from the rest
// of a markdown document. Returns ("", text) when no frontmatter is present.
func splitFrontmatter(text string) (frontmatter, body string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", text
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	return "", text
}
