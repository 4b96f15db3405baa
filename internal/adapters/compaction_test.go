package adapters

import (
	"context"
	"strings"
	"testing"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/pkg/core"
)

// stubProvider returns a fixed summary for every Complete call; the
// compactor never streams, so Stream is unused and left unimplemented-safe.
type stubProvider struct {
	summary string
}

func (p *stubProvider) Complete(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (core.Message, error) {
	return core.NewAssistantMessage([]core.ContentBlock{core.TextBlock(p.summary)}), nil
}

func (p *stubProvider) Stream(ctx context.Context, messages []core.Message, tools []core.WireTool, systemPrompt string) (agent.StreamIterator, error) {
	panic("stream not used by compactor tests")
}

func TestCompactor_BelowThreshold_LeavesHistoryUnchanged(t *testing.T) {
	cfg := CompactionConfig{ContextWindow: 1_000_000, TriggerRatio: 0.75, PreserveRatio: 0.25, CharsPerToken: 4}
	hookSet := NewCompactor(cfg, &stubProvider{}, nil).HookSet()

	messages := []core.Message{core.NewUserMessage("hello")}
	before := len(messages)

	hookSet.OnTurnEnd(&messages)

	if len(messages) != before {
		t.Errorf("expected history unchanged below threshold, got %d messages", len(messages))
	}
}

func TestCompactor_AboveThreshold_RewritesArchiveIntoSummary(t *testing.T) {
	cfg := CompactionConfig{ContextWindow: 100, TriggerRatio: 0.1, PreserveRatio: 0.05, CharsPerToken: 1}
	provider := &stubProvider{summary: "Goal: test. Key Decisions: none. Context: n/a."}
	hookSet := NewCompactor(cfg, provider, nil).HookSet()

	messages := []core.Message{
		core.NewUserMessage(strings.Repeat("a", 200)),
		core.NewAssistantMessage([]core.ContentBlock{core.TextBlock(strings.Repeat("b", 200))}),
		core.NewUserMessage(strings.Repeat("c", 10)),
	}

	hookSet.OnTurnEnd(&messages)

	if len(messages) == 0 {
		t.Fatal("expected at least one message after compaction")
	}
	if !strings.HasPrefix(messages[0].Text, previousContextPrefix) {
		t.Errorf("expected first message to be the previous-context summary, got %q", messages[0].Text)
	}
	if !strings.Contains(messages[0].Text, provider.summary) {
		t.Error("expected summary text folded into the archive block")
	}
}

func TestExtractFileOps_DedupsAndSorts(t *testing.T) {
	archive := []core.Message{
		core.NewAssistantMessage([]core.ContentBlock{
			core.ToolCallBlock("1", "read_file", map[string]any{"path": "b.txt"}),
			core.ToolCallBlock("2", "read_file", map[string]any{"path": "a.txt"}),
			core.ToolCallBlock("3", "read_file", map[string]any{"path": "a.txt"}),
			core.ToolCallBlock("4", "write_file", map[string]any{"path": "c.txt"}),
			core.ToolCallBlock("5", "load", map[string]any{"path": "skill.md"}),
		}),
	}

	reads, mods := extractFileOps(archive)

	if len(reads) != 3 || reads[0] != "a.txt" || reads[1] != "b.txt" || reads[2] != "skill.md" {
		t.Errorf("expected sorted, deduped reads [a.txt b.txt skill.md], got %v", reads)
	}
	if len(mods) != 1 || mods[0] != "c.txt" {
		t.Errorf("expected mods [c.txt], got %v", mods)
	}
}

func TestSelectCutIndex_AdvancesPastLeadingToolResults(t *testing.T) {
	// Budget 12 chars: "final" (5) and "result" (6) fit, the tool call
	// ("null" args + "echo" = 8) does not, so the raw cut lands on the
	// tool-result at index 2 and must be advanced past it.
	cfg := CompactionConfig{ContextWindow: 100, PreserveRatio: 0.12, CharsPerToken: 1}
	messages := []core.Message{
		core.NewUserMessage("u1"),
		core.NewAssistantMessage([]core.ContentBlock{core.ToolCallBlock("id-1", "echo", nil)}),
		core.NewToolResultMessage("id-1", "result", false),
		core.NewAssistantMessage([]core.ContentBlock{core.TextBlock("final")}),
	}

	cut := selectCutIndex(messages, cfg)

	if cut < len(messages) && messages[cut].Role == core.RoleTool {
		t.Errorf("expected cut to skip past a leading tool-result message, got index %d (role %s)", cut, messages[cut].Role)
	}
}

func TestSelectCutIndex_EmptyMessages(t *testing.T) {
	cfg := CompactionConfig{ContextWindow: 100, PreserveRatio: 0.25, CharsPerToken: 4}
	if cut := selectCutIndex(nil, cfg); cut != 0 {
		t.Errorf("expected cut 0 for empty messages, got %d", cut)
	}
}
