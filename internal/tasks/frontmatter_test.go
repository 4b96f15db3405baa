package tasks

import "testing"

func TestSplitFrontmatter_RoundTrip(t *testing.T) {
	data := []byte("---\nid: t_001\nname: \"Investigate bug\"\n---\n\nDo the thing.")

	lines, body, err := SplitFrontmatter(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 frontmatter lines, got %d: %v", len(lines), lines)
	}
	if string(body) != "\nDo the thing." {
		t.Errorf("expected body %q, got %q", "\nDo the thing.", string(body))
	}
}

func TestSplitFrontmatter_MissingDelimiters(t *testing.T) {
	if _, _, err := SplitFrontmatter([]byte("id: t_001\n---\n")); err == nil {
		t.Error("expected an error for a missing opening delimiter")
	}
	if _, _, err := SplitFrontmatter([]byte("---\nid: t_001\n")); err == nil {
		t.Error("expected an error for a missing closing delimiter")
	}
}

func TestParseFrontmatter_AllValueKinds(t *testing.T) {
	lines := []string{
		`name: "Investigate bug"`,
		"count: 3",
		"ratio: 0.75",
		"active: true",
		"archived: false",
		"owner: null",
		`tags: ["urgent", "backend"]`,
		"bare: unquoted",
	}

	fm, err := ParseFrontmatter(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := fm.GetString("name"); got != "Investigate bug" {
		t.Errorf("expected name %q, got %q", "Investigate bug", got)
	}
	if v, _ := fm.Get("count"); v != 3 {
		t.Errorf("expected count 3, got %v", v)
	}
	if v, _ := fm.Get("ratio"); v != 0.75 {
		t.Errorf("expected ratio 0.75, got %v", v)
	}
	if v, _ := fm.Get("active"); v != true {
		t.Errorf("expected active true, got %v", v)
	}
	if v, _ := fm.Get("archived"); v != false {
		t.Errorf("expected archived false, got %v", v)
	}
	if v, ok := fm.Get("owner"); !ok || v != nil {
		t.Errorf("expected owner present and nil, got %v (ok=%v)", v, ok)
	}
	tags, _ := fm.Get("tags")
	ss, ok := tags.([]string)
	if !ok || len(ss) != 2 || ss[0] != "urgent" || ss[1] != "backend" {
		t.Errorf("expected tags [urgent backend], got %v", tags)
	}
	if got := fm.GetString("bare"); got != "unquoted" {
		t.Errorf("expected bare %q, got %q", "unquoted", got)
	}
}

func TestParseFrontmatter_MalformedLine(t *testing.T) {
	if _, err := ParseFrontmatter([]string{"no colon here"}); err == nil {
		t.Error("expected an error for a line without a colon")
	}
}

func TestParseFrontmatter_PreservesKeyOrder(t *testing.T) {
	fm, err := ParseFrontmatter([]string{"b: 1", "a: 2", "c: 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keys := fm.Keys()
	if len(keys) != 3 || keys[0] != "b" || keys[1] != "a" || keys[2] != "c" {
		t.Errorf("expected insertion order [b a c], got %v", keys)
	}
}

func TestFrontmatter_Render_RoundTrip(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("id", "t_001")
	fm.Set("count", 2)
	fm.Set("active", true)
	fm.Set("tags", []string{"x", "y"})

	rendered := fm.Render()

	lines, _, err := SplitFrontmatter([]byte(rendered + "\n"))
	if err != nil {
		t.Fatalf("re-split rendered frontmatter: %v", err)
	}
	fm2, err := ParseFrontmatter(lines)
	if err != nil {
		t.Fatalf("re-parse rendered frontmatter: %v", err)
	}
	if fm2.GetString("id") != "t_001" {
		t.Errorf("expected id round-tripped, got %q", fm2.GetString("id"))
	}
	if v, _ := fm2.Get("count"); v != 2 {
		t.Errorf("expected count round-tripped to 2, got %v", v)
	}
}
