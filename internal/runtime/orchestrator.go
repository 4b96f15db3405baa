// Package runtime implements the runtime orchestrator: it owns the main
// agent's message history, spawns worker drivers as fire-and-forget
// background computations, and injects worker-completion notifications back
// into the main agent's next turn.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/conductor-ai/conductor/internal/adapters"
	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/internal/tasks"
	"github.com/conductor-ai/conductor/internal/worker"
	"github.com/conductor-ai/conductor/pkg/core"
)

// Metrics holds the read-only counters the orchestrator exposes for the
// front-ends and the Prometheus endpoint.
type Metrics struct {
	WorkersSpawned int64
	WorkersActive  int64
	ToolCallsTotal int64
	CompactionRuns int64
}

// Config bundles everything the orchestrator needs at construction time.
type Config struct {
	Provider         agent.Provider
	MainTools        []core.Tool
	WorkerTools      []core.Tool
	BaseContext      core.ToolContext
	MainSystemPrompt string
	TraceDir         string // empty disables tracing
	Compaction       adapters.CompactionConfig
	PromptBuilder    worker.SystemPromptBuilder
	Logger           *slog.Logger

	// DeltaSink receives streamed text fragments from onUserMessage when the
	// caller doesn't supply its own onTextDelta. Defaults to a no-op sink
	// rather than reaching for stdout directly, per the design note on
	// ambient output.
	DeltaSink func(fragment string)
}

// Orchestrator owns the main conversation and the live worker population.
type Orchestrator struct {
	provider         agent.Provider
	mainTools        []core.Tool
	workerTools      []core.Tool
	baseContext      core.ToolContext
	mainSystemPrompt string
	traceDir         string
	compactionCfg    adapters.CompactionConfig
	promptBuilder    worker.SystemPromptBuilder
	logger           *slog.Logger
	deltaSink        func(string)
	hasDeltaSink     bool

	store   *tasks.Store
	control *controlMap

	// mainMu serializes every invocation of the main agent loop: one at a
	// time, either the caller's own turn or a worker-completion notification
	// re-entering via onUserMessage.
	mainMu  sync.Mutex
	history []core.Message

	metrics Metrics
}

// New builds an Orchestrator. store provides task directory persistence for
// spawned workers.
func New(cfg Config, store *tasks.Store) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hasDeltaSink := cfg.DeltaSink != nil
	deltaSink := cfg.DeltaSink
	if deltaSink == nil {
		deltaSink = func(string) {}
	}

	o := &Orchestrator{
		provider:         cfg.Provider,
		mainTools:        cfg.MainTools,
		workerTools:      cfg.WorkerTools,
		baseContext:      cfg.BaseContext,
		mainSystemPrompt: cfg.MainSystemPrompt,
		traceDir:         cfg.TraceDir,
		compactionCfg:    cfg.Compaction,
		promptBuilder:    cfg.PromptBuilder,
		logger:           logger,
		deltaSink:        deltaSink,
		hasDeltaSink:     hasDeltaSink,
		store:            store,
		control:          newControlMap(),
	}

	// Late-bind the tool-context callbacks after construction, breaking the
	// cyclic ownership between the runtime and the tools it hands callbacks
	// to (§9's late-binding design note).
	o.baseContext.OnTaskCreated = func(dir string) { o.spawnWorker(dir) }
	o.baseContext.OnSteer = func(taskID, msg string) {
		if h, ok := o.control.get(taskID); ok {
			h.Steer(msg)
		}
	}
	o.baseContext.OnAbort = func(taskID string) {
		if h, ok := o.control.get(taskID); ok {
			h.Abort()
		}
	}

	return o
}

// Metrics returns a snapshot of the runtime's read-only counters.
func (o *Orchestrator) Metrics() Metrics {
	return Metrics{
		WorkersSpawned: atomic.LoadInt64(&o.metrics.WorkersSpawned),
		WorkersActive:  atomic.LoadInt64(&o.metrics.WorkersActive),
		ToolCallsTotal: atomic.LoadInt64(&o.metrics.ToolCallsTotal),
		CompactionRuns: atomic.LoadInt64(&o.metrics.CompactionRuns),
	}
}

// GetControl looks up the live control handle for a task id.
func (o *Orchestrator) GetControl(taskID string) (*adapters.ControlHandle, bool) {
	return o.control.get(taskID)
}

// OnUserMessage appends a user utterance to the main history and runs the
// agent loop against it, returning the final assistant message. onTextDelta,
// when non-nil, receives streamed text fragments and also causes the loop to
// select the streaming provider path.
func (o *Orchestrator) OnUserMessage(ctx context.Context, text string, onTextDelta func(string)) (core.Message, error) {
	o.mainMu.Lock()
	defer o.mainMu.Unlock()

	o.history = append(o.history, core.NewUserMessage(text))

	hookSet := o.buildHookStack(onTextDelta)
	toolCtx := o.baseContext
	msg, err := agent.Run(ctx, &o.history, o.mainTools, o.provider, &toolCtx, o.mainSystemPrompt, hookSet)
	if err != nil {
		return core.Message{}, err
	}
	return msg, nil
}

func (o *Orchestrator) buildHookStack(onTextDelta func(string)) *hooks.Composed {
	compactor := adapters.NewCompactor(o.compactionCfg, o.provider, o.logger)
	sets := []hooks.HookSet{
		countingToolHook(&o.metrics.ToolCallsTotal),
		countingCompactionHook(compactor.HookSet(), &o.metrics.CompactionRuns),
	}

	if o.traceDir != "" {
		tracer := adapters.NewTracer(o.traceDir, "")
		sets = append(sets, tracer.HookSet())
	}

	// Only install a text-delta hook when the caller supplied one or the
	// orchestrator was configured with a real delta sink; otherwise leave it
	// absent so HasTextDeltaHandler's provider.Stream-vs-Complete selection
	// (property 7) stays observable on the main loop too.
	if onTextDelta != nil {
		sets = append(sets, hooks.HookSet{OnTextDelta: onTextDelta})
	} else if o.hasDeltaSink {
		sets = append(sets, hooks.HookSet{OnTextDelta: o.deltaSink})
	}

	return hooks.Combine(sets...)
}

// countingToolHook increments a total tool-call counter on every
// onToolStart, independent of outcome.
func countingToolHook(counter *int64) hooks.HookSet {
	return hooks.HookSet{
		OnToolStart: func(hooks.ToolCall) {
			atomic.AddInt64(counter, 1)
		},
	}
}

// countingCompactionHook wraps the compaction adapter's onTurnEnd to also
// count how many times compaction actually ran (i.e. the message slice
// changed length).
func countingCompactionHook(inner hooks.HookSet, counter *int64) hooks.HookSet {
	onTurnEnd := inner.OnTurnEnd
	return hooks.HookSet{
		OnTurnEnd: func(messages *[]core.Message) {
			before := len(*messages)
			if onTurnEnd != nil {
				onTurnEnd(messages)
			}
			if len(*messages) != before {
				atomic.AddInt64(counter, 1)
			}
		},
	}
}

// SpawnWorker starts a worker for an existing task directory directly,
// without going through the tool-context callback indirection. The
// create_task tool does not call it; it reaches spawnWorker through
// OnTaskCreated.
func (o *Orchestrator) SpawnWorker(taskDir string) {
	o.spawnWorker(taskDir)
}

// spawnWorker extracts the task id from taskDir, registers a fresh control
// handle, and starts the worker driver as a fire-and-forget background
// computation. It never blocks the caller.
func (o *Orchestrator) spawnWorker(taskDir string) {
	taskID := tasks.IDFromDir(taskDir)

	handle := adapters.NewControlHandle()
	o.control.register(taskID, handle)
	atomic.AddInt64(&o.metrics.WorkersSpawned, 1)
	atomic.AddInt64(&o.metrics.WorkersActive, 1)

	go o.runWorker(taskID, taskDir, handle)
}

func (o *Orchestrator) runWorker(taskID, taskDir string, handle *adapters.ControlHandle) {
	defer func() {
		o.control.remove(taskID)
		atomic.AddInt64(&o.metrics.WorkersActive, -1)

		if r := recover(); r != nil {
			o.notify(fmt.Sprintf("[Task %s failed unexpectedly: %v]", taskID, r))
		}
	}()

	workerControl := adapters.NewWorkerControl(taskID, handle)
	sets := []hooks.HookSet{workerControl.HookSet()}

	compactor := adapters.NewCompactor(o.compactionCfg, o.provider, o.logger)
	sets = append(sets, compactor.HookSet())

	var tracer *adapters.Tracer
	if o.traceDir != "" {
		tracer = adapters.NewTracer(o.traceDir, "")
		sets = append(sets, tracer.HookSet())
	}

	result := worker.Run(
		context.Background(),
		o.store,
		taskDir,
		o.workerTools,
		o.provider,
		o.baseContext,
		o.promptBuilder,
		hooks.Combine(sets...),
		handle.IsAborted,
		o.logger,
	)
	if tracer != nil {
		_ = tracer.Close()
	}

	switch result.Status {
	case worker.StatusCompleted:
		o.notify(fmt.Sprintf("[Task %s completed. Status: %s]\nResult: %s", taskID, result.Status, result.Output))
	case worker.StatusFailed:
		errMsg := ""
		if result.Err != nil {
			errMsg = result.Err.Error()
		}
		o.notify(fmt.Sprintf("[Task %s completed. Status: %s]\nError: %s", taskID, result.Status, errMsg))
	}
}

// notify re-enters the main agent loop with a synthesized completion
// message. Failures of this recursive call are logged only, per §4.6.
func (o *Orchestrator) notify(text string) {
	if _, err := o.OnUserMessage(context.Background(), text, nil); err != nil {
		o.logger.Warn("runtime: failed to deliver worker completion notification", "error", err)
	}
}
