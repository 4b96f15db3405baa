package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/conductor-ai/conductor/internal/adapters"
	"github.com/conductor-ai/conductor/internal/config"
	"github.com/conductor-ai/conductor/internal/providers"
	"github.com/conductor-ai/conductor/internal/runtime"
	"github.com/conductor-ai/conductor/internal/skills"
	"github.com/conductor-ai/conductor/internal/tasks"
	"github.com/conductor-ai/conductor/internal/tools/exec"
	"github.com/conductor-ai/conductor/internal/tools/files"
	"github.com/conductor-ai/conductor/internal/tools/markdown"
	"github.com/conductor-ai/conductor/internal/tools/scan"
	"github.com/conductor-ai/conductor/internal/tools/tasktools"
	"github.com/conductor-ai/conductor/pkg/core"
)

const mainSystemPrompt = "You are a personal AI assistant. You can act directly or delegate focused, long-running work to background tasks via create_task."

// bootstrap wires config, provider, tool sets, task store, skill discovery,
// and the runtime orchestrator into a ready-to-use Orchestrator.
type bootstrap struct {
	cfg          config.Config
	store        *tasks.Store
	discovery    *skills.Discovery
	orchestrator *runtime.Orchestrator
	logger       *slog.Logger
}

func newBootstrap(ctx context.Context) (*bootstrap, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	provider, err := providers.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}

	store, err := tasks.NewStore(cfg.TasksRoot)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}

	discovery := skills.NewDiscovery(cfg.SkillsDir, logger)
	if err := discovery.Watch(); err != nil {
		logger.Warn("skill discovery watch failed", "error", err)
	}

	mainTools := []core.Tool{
		exec.ShellTool(),
		files.ReadFileTool(),
		files.WriteFileTool(),
		scan.ScanDirTool(),
		markdown.LoadMarkdownTool(),
		tasktools.CreateTaskTool(store),
		tasktools.SteerTool(),
		tasktools.AbortTool(store),
	}
	workerTools := []core.Tool{
		exec.ShellTool(),
		files.ReadFileTool(),
		files.WriteFileTool(),
		scan.ScanDirTool(),
		markdown.LoadMarkdownTool(),
	}

	baseCtx := core.ToolContext{
		Context:   ctx,
		Cwd:       cfg.WorkspaceDir,
		TasksRoot: store.Root(),
	}

	orchestrator := runtime.New(runtime.Config{
		Provider:         provider,
		MainTools:        mainTools,
		WorkerTools:      workerTools,
		BaseContext:      baseCtx,
		MainSystemPrompt: mainSystemPrompt,
		TraceDir:         cfg.TraceDir,
		Compaction: adapters.CompactionConfig{
			ContextWindow: cfg.Compaction.ContextWindow,
			TriggerRatio:  cfg.Compaction.TriggerRatio,
			PreserveRatio: cfg.Compaction.PreserveRatio,
			CharsPerToken: cfg.Compaction.CharsPerToken,
		},
		PromptBuilder: func(taskDir, instructions string) string {
			return skills.BuildSystemPrompt(discovery, taskDir, instructions)
		},
		Logger: logger,
		DeltaSink: func(fragment string) {
			fmt.Print(fragment)
		},
	}, store)

	return &bootstrap{cfg: cfg, store: store, discovery: discovery, orchestrator: orchestrator, logger: logger}, nil
}

func (b *bootstrap) Close() {
	_ = b.discovery.Close()
}
