package core

import (
	"strings"
	"testing"
)

func TestTruncateToolResult_UnderLimit(t *testing.T) {
	content := strings.Repeat("a", 100)
	if got := TruncateToolResult(content); got != content {
		t.Errorf("expected unchanged content under the limit")
	}
}

func TestTruncateToolResult_AtLimit(t *testing.T) {
	content := strings.Repeat("a", maxToolResultLen)
	if got := TruncateToolResult(content); got != content {
		t.Errorf("expected unchanged content exactly at the limit")
	}
}

func TestTruncateToolResult_OverLimit(t *testing.T) {
	head := strings.Repeat("h", headKeep)
	middle := strings.Repeat("m", 3000)
	tail := strings.Repeat("t", tailKeep)
	content := head + middle + tail

	got := TruncateToolResult(content)

	if !strings.HasPrefix(got, head) {
		t.Error("expected truncated result to preserve the head verbatim")
	}
	if !strings.HasSuffix(got, tail) {
		t.Error("expected truncated result to preserve the tail verbatim")
	}
	if strings.Contains(got, middle) {
		t.Error("expected the middle to be dropped")
	}
	if !strings.Contains(got, "truncated") {
		t.Error("expected a marker describing the truncation")
	}
}
