// Package main provides the CLI entry point for conductor, a personal
// AI-assistant runtime that lets an operator converse with an LLM while
// dispatching long-running background worker agents.
//
// # Basic Usage
//
// Start an interactive chat session:
//
//	conductor chat --config conductor.yaml
//
// Start the HTTP+SSE front-end:
//
//	conductor serve --config conductor.yaml
//
// Inspect background tasks:
//
//	conductor task list
//	conductor task show t_001
//
// # Environment Variables
//
//   - CONDUCTOR_PROVIDER: anthropic|openai|bedrock
//   - CONDUCTOR_ANTHROPIC_API_KEY / CONDUCTOR_OPENAI_API_KEY / CONDUCTOR_AWS_REGION
//   - CONDUCTOR_TASKS_ROOT, CONDUCTOR_WORKSPACE_DIR, CONDUCTOR_SKILLS_DIR, CONDUCTOR_TRACE_DIR
//   - CONDUCTOR_SERVER_ADDR, CONDUCTOR_JWT_SECRET
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"

	configPath string
)

func main() {
	root := &cobra.Command{
		Use:     "conductor",
		Short:   "A personal AI-assistant runtime with background worker agents",
		Version: fmt.Sprintf("%s (%s)", version, commit),
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to conductor.yaml (optional; env vars and defaults otherwise)")

	root.AddCommand(newChatCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newTaskCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
