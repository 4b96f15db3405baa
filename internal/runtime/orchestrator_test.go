package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/conductor-ai/conductor/internal/adapters"
	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/internal/tasks"
	"github.com/conductor-ai/conductor/pkg/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fixedTextProvider always replies with a single fixed text-only assistant
// message, ending the loop on its first turn. Every Complete call also
// increments a counter so tests can observe how many agent-loop
// invocations occurred.
type fixedTextProvider struct {
	text string

	mu    sync.Mutex
	calls int
}

func (p *fixedTextProvider) Complete(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (core.Message, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return core.NewAssistantMessage([]core.ContentBlock{core.TextBlock(p.text)}), nil
}

func (p *fixedTextProvider) Stream(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (agent.StreamIterator, error) {
	panic("not used in these tests")
}

func (p *fixedTextProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestOrchestrator(t *testing.T, provider agent.Provider) (*Orchestrator, *tasks.Store) {
	t.Helper()
	store, err := tasks.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	o := New(Config{
		Provider:         provider,
		BaseContext:      core.ToolContext{Context: context.Background()},
		MainSystemPrompt: "you are the main agent",
		Compaction:       adapters.CompactionConfig{ContextWindow: 1_000_000, TriggerRatio: 0.99, PreserveRatio: 0.5, CharsPerToken: 4},
		Logger:           discardLogger(),
	}, store)
	return o, store
}

func TestOrchestrator_OnUserMessage_ReturnsAssistantReply(t *testing.T) {
	provider := &fixedTextProvider{text: "hello back"}
	o, _ := newTestOrchestrator(t, provider)

	final, err := o.OnUserMessage(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.TextContent() != "hello back" {
		t.Errorf("expected reply %q, got %q", "hello back", final.TextContent())
	}
}

func TestOrchestrator_OnUserMessage_StreamsDeltasWhenRequested(t *testing.T) {
	provider := &streamingFixedProvider{text: "stream me"}
	o, _ := newTestOrchestrator(t, provider)

	var deltas []string
	_, err := o.OnUserMessage(context.Background(), "hi", func(f string) { deltas = append(deltas, f) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deltas) == 0 {
		t.Error("expected at least one streamed delta")
	}
}

type streamingFixedProvider struct{ text string }

func (p *streamingFixedProvider) Complete(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (core.Message, error) {
	return core.NewAssistantMessage([]core.ContentBlock{core.TextBlock(p.text)}), nil
}

func (p *streamingFixedProvider) Stream(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (agent.StreamIterator, error) {
	return &singleDeltaIterator{text: p.text}, nil
}

type singleDeltaIterator struct {
	text string
	sent bool
	done bool
}

func (it *singleDeltaIterator) Next() (agent.StreamEvent, bool) {
	if !it.sent {
		it.sent = true
		return agent.StreamEvent{Kind: agent.StreamEventTextDelta, Text: it.text}, true
	}
	if !it.done {
		it.done = true
		return agent.StreamEvent{Kind: agent.StreamEventDone, Message: core.NewAssistantMessage([]core.ContentBlock{core.TextBlock(it.text)})}, true
	}
	return agent.StreamEvent{}, false
}

func (it *singleDeltaIterator) Close() error { return nil }

// TestOrchestrator_SpawnWorker_CompletesAndNotifiesMain exercises the full
// fire-and-forget path: a worker is spawned, runs to completion, and its
// completion notification re-enters the main loop via onUserMessage.
func TestOrchestrator_SpawnWorker_CompletesAndNotifiesMain(t *testing.T) {
	provider := &fixedTextProvider{text: "worker and notification reply"}
	o, store := newTestOrchestrator(t, provider)

	dir, err := store.Create("bg task", "do something", "", nil, "go do it")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	o.SpawnWorker(dir)

	deadline := time.Now().Add(2 * time.Second)
	for o.Metrics().WorkersActive > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if active := o.Metrics().WorkersActive; active != 0 {
		t.Fatalf("expected worker to finish, still %d active", active)
	}
	if spawned := o.Metrics().WorkersSpawned; spawned != 1 {
		t.Errorf("expected 1 worker spawned, got %d", spawned)
	}

	rec, err := store.Read(dir)
	if err != nil {
		t.Fatalf("re-read task: %v", err)
	}
	if rec.Status != tasks.StatusCompleted {
		t.Errorf("expected task status completed, got %s", rec.Status)
	}

	if provider.callCount() < 2 {
		t.Errorf("expected at least 2 provider calls (worker turn + notification turn), got %d", provider.callCount())
	}

	o.mainMu.Lock()
	history := append([]core.Message(nil), o.history...)
	o.mainMu.Unlock()

	var sawNotification bool
	for _, m := range history {
		if m.Role == core.RoleUser && len(m.Text) > 0 {
			sawNotification = true
		}
	}
	if !sawNotification {
		t.Error("expected the worker completion notification to land in the main history")
	}
}

func TestControlMap_ConcurrentRegisterGetRemove(t *testing.T) {
	cm := newControlMap()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "t_" + string(rune('a'+i%26))
			h := adapters.NewControlHandle()
			cm.register(id, h)
			if _, ok := cm.get(id); !ok {
				t.Errorf("expected to find handle for %s immediately after registering", id)
			}
			cm.remove(id)
		}(i)
	}
	wg.Wait()
}
