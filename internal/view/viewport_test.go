package view

import (
	"fmt"
	"strings"
	"testing"
)

type rows []string

func (r rows) LineCount() int { return len(r) }

func (r rows) Lines(start, n int) []string {
	if start >= len(r) {
		return nil
	}
	end := start + n
	if end > len(r) {
		end = len(r)
	}
	return r[start:end]
}

func numbered(n int) rows {
	r := make(rows, n)
	for i := range r {
		r[i] = fmt.Sprintf("row %d", i)
	}
	return r
}

func TestScrollClamps(t *testing.T) {
	v := NewViewport(80, 5)
	v.SetSource(numbered(12))

	tests := []struct {
		name string
		op   func()
		want int
	}{
		{"down", func() { v.ScrollDown(3) }, 3},
		{"past end", func() { v.ScrollDown(100) }, 7},
		{"page up", func() { v.PageUp() }, 3},
		{"before top", func() { v.ScrollUp(10) }, 0},
		{"page down", func() { v.PageDown() }, 4},
		{"bottom", func() { v.GotoBottom() }, 7},
		{"top", func() { v.GotoTop() }, 0},
		{"goto", func() { v.GotoLine(5) }, 5},
	}
	for _, tt := range tests {
		tt.op()
		if got := v.CurrentLine(); got != tt.want {
			t.Fatalf("%s: offset %d, want %d", tt.name, got, tt.want)
		}
	}
	v.GotoBottom()
	if !v.AtBottom() {
		t.Fatalf("expected AtBottom after GotoBottom")
	}
	if p := v.PercentScrolled(); p != 100 {
		t.Fatalf("percent %v, want 100", p)
	}
}

func TestRenderPadsShortContent(t *testing.T) {
	v := NewViewport(80, 4)
	v.SetSource(rows{"a", "b"})

	got := strings.Split(v.Render(), "\n")
	if len(got) != 4 {
		t.Fatalf("rows %d, want 4: %q", len(got), got)
	}
	if got[0] != "a" || got[1] != "b" {
		t.Fatalf("content %q", got[:2])
	}
	if !strings.Contains(got[2], "~") || !strings.Contains(got[3], "~") {
		t.Fatalf("padding %q", got[2:])
	}
}

func TestRenderMarksHighlightedRow(t *testing.T) {
	v := NewViewport(80, 3)
	v.SetSource(rows{"a", "b", "c"})
	v.SetHighlightedLine(1)

	got := strings.Split(v.Render(), "\n")
	if got[0] != "  a" || got[2] != "  c" {
		t.Fatalf("unmarked rows %q", got)
	}
	if !strings.HasSuffix(got[1], "b") || !strings.Contains(got[1], ">") {
		t.Fatalf("marked row %q", got[1])
	}

	v.ClearHighlight()
	if v.Render() != "a\nb\nc" {
		t.Fatalf("render after clear %q", v.Render())
	}
}

func TestEmptyViewport(t *testing.T) {
	v := NewViewport(80, 2)
	if !v.AtBottom() || v.PercentScrolled() != 0 {
		t.Fatalf("empty viewport state")
	}
	v.GotoBottom()
	if v.CurrentLine() != 0 {
		t.Fatalf("offset %d", v.CurrentLine())
	}
}
