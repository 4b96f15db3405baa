package core

import "fmt"

// Truncation bounds for tool-result content, per the head-plus-tail rule:
// keep the first headKeep characters, a marker describing how much was
// elided, then the last tailKeep characters.
const (
	maxToolResultLen = 32000
	headKeep         = 24000
	tailKeep         = 6000
)

// TruncateToolResult applies the 32k head-plus-tail rule to tool-result
// content. Content at or under the limit is returned unchanged. Otherwise the
// first headKeep and last tailKeep characters are kept, joined by a marker
// stating how many characters of the middle were dropped.
func TruncateToolResult(content string) string {
	if len(content) <= maxToolResultLen {
		return content
	}
	dropped := len(content) - (headKeep + tailKeep)
	marker := fmt.Sprintf("\n... [%d chars truncated] ...\n", dropped)
	head := content[:headKeep]
	tail := content[len(content)-tailKeep:]
	return head + marker + tail
}
