package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/internal/hooks"
	"github.com/conductor-ai/conductor/pkg/core"
)

// CompactionConfig governs when and how the compaction adapter rewrites a
// conversation's history into a summary-plus-suffix.
type CompactionConfig struct {
	ContextWindow int
	TriggerRatio  float64 // default 0.75
	PreserveRatio float64 // default 0.25
	CharsPerToken int     // default 4
}

// DefaultCompactionConfig returns the spec's default thresholds for a given
// context window.
func DefaultCompactionConfig(contextWindow int) CompactionConfig {
	return CompactionConfig{
		ContextWindow: contextWindow,
		TriggerRatio:  0.75,
		PreserveRatio: 0.25,
		CharsPerToken: 4,
	}
}

func sanitizeCompactionConfig(cfg CompactionConfig) CompactionConfig {
	if cfg.TriggerRatio <= 0 {
		cfg.TriggerRatio = 0.75
	}
	if cfg.PreserveRatio <= 0 {
		cfg.PreserveRatio = 0.25
	}
	if cfg.CharsPerToken <= 0 {
		cfg.CharsPerToken = 4
	}
	return cfg
}

const summarizationSystemPrompt = "You are a context compaction assistant. Summarize the provided conversation transcript into a compact brief that preserves the goal, the key decisions made, and any context needed to continue the work. Be terse."

const previousContextPrefix = "## Previous Context"

// Compactor is the compaction hook adapter: installed as onTurnEnd, it
// monitors estimated token usage and, once a threshold is crossed, rewrites
// the archived prefix of the history into a single summary message.
type Compactor struct {
	cfg      CompactionConfig
	provider agent.Provider
	logger   *slog.Logger
}

// NewCompactor builds a compaction adapter. provider is used to generate
// summaries; logger defaults to slog.Default() when nil.
func NewCompactor(cfg CompactionConfig, provider agent.Provider, logger *slog.Logger) *Compactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compactor{cfg: sanitizeCompactionConfig(cfg), provider: provider, logger: logger}
}

// HookSet returns the hook-set this adapter installs into a loop.
func (c *Compactor) HookSet() hooks.HookSet {
	return hooks.HookSet{
		OnTurnEnd: func(messages *[]core.Message) {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Warn("compaction panicked, leaving history unchanged", "recover", r)
				}
			}()
			if err := c.compact(messages); err != nil {
				c.logger.Warn("compaction failed, leaving history unchanged", "error", err)
			}
		},
	}
}

func (c *Compactor) compact(messages *[]core.Message) error {
	estimate := estimateTokens(*messages, c.cfg.CharsPerToken)
	if float64(estimate) < float64(c.cfg.ContextWindow)*c.cfg.TriggerRatio {
		return nil
	}

	cut := selectCutIndex(*messages, c.cfg)

	archive := (*messages)[:cut]
	recent := (*messages)[cut:]

	var existingSummary string
	hasExistingSummary := false
	if len(archive) > 0 && archive[0].Role == core.RoleUser && strings.HasPrefix(archive[0].Text, previousContextPrefix) {
		hasExistingSummary = true
		existingSummary = archive[0].Text
		archive = archive[1:]
	}

	readSet, modifiedSet := extractFileOps(archive)
	transcript := serializeTranscript(archive)

	summary, err := c.summarize(transcript, existingSummary, hasExistingSummary)
	if err != nil {
		return fmt.Errorf("adapters: summarize archive: %w", err)
	}

	block := previousContextPrefix + "\n\n" + summary
	if len(readSet) > 0 || len(modifiedSet) > 0 {
		block += "\n\n## Touched Files (Archived)\n"
		if len(readSet) > 0 {
			block += "Read: " + strings.Join(readSet, ", ") + "\n"
		}
		if len(modifiedSet) > 0 {
			block += "Modified: " + strings.Join(modifiedSet, ", ") + "\n"
		}
	}

	newHistory := make([]core.Message, 0, 1+len(recent))
	newHistory = append(newHistory, core.NewUserMessage(block))
	newHistory = append(newHistory, recent...)
	*messages = newHistory
	return nil
}

// estimateTokens is ceil(total_chars / charsPerToken), where total_chars
// sums per-message content length per the spec's accounting rules.
func estimateTokens(messages []core.Message, charsPerToken int) int {
	total := 0
	for _, m := range messages {
		total += messageChars(m)
	}
	return int(math.Ceil(float64(total) / float64(charsPerToken)))
}

func messageChars(m core.Message) int {
	switch m.Role {
	case core.RoleUser:
		return len(m.Text)
	case core.RoleAssistant:
		n := 0
		for _, b := range m.Blocks {
			if b.IsToolCall() {
				argsJSON, _ := json.Marshal(b.Args)
				n += len(argsJSON) + len(b.ToolName)
			} else {
				n += len(b.Text)
			}
		}
		return n
	case core.RoleTool:
		return len(m.Content)
	default:
		return 0
	}
}

// selectCutIndex walks the message list backwards, accumulating per-message
// token estimates, and picks the earliest index whose suffix still fits
// within preserveRatio * window. If no non-empty suffix fits, the latest
// message alone is kept. The cut is then advanced forward past any leading
// tool-result messages so no retained tool-result is orphaned from its
// originating tool-call (the compaction cut-boundary hazard noted in the
// design notes).
func selectCutIndex(messages []core.Message, cfg CompactionConfig) int {
	n := len(messages)
	if n == 0 {
		return 0
	}
	budget := float64(cfg.ContextWindow) * cfg.PreserveRatio * float64(cfg.CharsPerToken)

	acc := 0
	cut := n
	for i := n - 1; i >= 0; i-- {
		size := messageChars(messages[i])
		if float64(acc+size) > budget && cut != n {
			break
		}
		acc += size
		cut = i
	}
	if cut == n {
		cut = n - 1
	}

	for cut < n && messages[cut].Role == core.RoleTool {
		cut++
	}
	return cut
}

// extractFileOps walks archived assistant tool-call blocks, recording path
// arguments of read_file/load calls and write_file calls into sorted,
// de-duplicated read/modified sets.
func extractFileOps(archive []core.Message) (readSet, modifiedSet []string) {
	reads := make(map[string]struct{})
	mods := make(map[string]struct{})
	for _, m := range archive {
		if m.Role != core.RoleAssistant {
			continue
		}
		for _, b := range m.Blocks {
			if !b.IsToolCall() {
				continue
			}
			path, _ := b.Args["path"].(string)
			if path == "" {
				continue
			}
			switch b.ToolName {
			case "read_file", "load":
				reads[path] = struct{}{}
			case "write_file":
				mods[path] = struct{}{}
			}
		}
	}
	return sortedKeys(reads), sortedKeys(mods)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func serializeTranscript(archive []core.Message) string {
	var sb strings.Builder
	for _, m := range archive {
		switch m.Role {
		case core.RoleUser:
			sb.WriteString("User: ")
			sb.WriteString(m.Text)
			sb.WriteString("\n")
		case core.RoleAssistant:
			sb.WriteString("Assistant: ")
			blocksJSON, _ := json.Marshal(m.Blocks)
			sb.Write(blocksJSON)
			sb.WriteString("\n")
		case core.RoleTool:
			sb.WriteString(fmt.Sprintf("Tool Result (%s): %s\n", m.ToolCallID, m.Content))
		}
	}
	return sb.String()
}

func (c *Compactor) summarize(transcript, existingSummary string, hasExisting bool) (string, error) {
	var prompt string
	if hasExisting {
		prompt = "Existing summary:\n" + existingSummary + "\n\nNew events since then:\n" + transcript +
			"\n\nProduce an updated summary folding in the new events. Structure it as Goal / Key Decisions / Context. Be brief."
	} else {
		prompt = "Conversation transcript:\n" + transcript +
			"\n\nProduce a summary structured as Goal / Key Decisions / Context. Be brief."
	}

	msg, err := c.provider.Complete(context.Background(), []core.Message{core.NewUserMessage(prompt)}, nil, summarizationSystemPrompt)
	if err != nil {
		return "", err
	}
	return msg.TextContent(), nil
}
