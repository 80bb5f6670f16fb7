package ui

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TimelordUK/mtail/internal/config"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, follow bool, maxLines int) (*Model, *Feed) {
	t.Helper()
	feed := NewFeed()
	m := NewModel(ModelOptions{
		Feed:     feed,
		Config:   config.DefaultConfig(),
		Title:    func() string { return "10 of 20 bytes" },
		MaxLines: maxLines,
		Follow:   follow,
	})
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 7})
	return m, feed
}

func feedRows(m *Model, f *Feed, n int) {
	for i := 0; i < n; i++ {
		f.Append(fmt.Sprintf("line %02d", i))
	}
	m.Update(tickMsg(time.Now()))
}

func TestFeedSplitsRows(t *testing.T) {
	f := NewFeed()
	f.Append("\n==> a.log <==")
	f.Append("x")

	got := f.Drain()
	want := []string{"", "==> a.log <==", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("drain %q, want %q", got, want)
	}
	if rest := f.Drain(); len(rest) != 0 {
		t.Fatalf("second drain %q", rest)
	}
}

func TestBufferCap(t *testing.T) {
	b := newBuffer(3)
	if dropped := b.add([]string{"a", "b"}); dropped != 0 {
		t.Fatalf("dropped %d", dropped)
	}
	if dropped := b.add([]string{"c", "d", "e"}); dropped != 2 {
		t.Fatalf("dropped %d, want 2", dropped)
	}
	if got := b.Lines(0, 10); !reflect.DeepEqual(got, []string{"c", "d", "e"}) {
		t.Fatalf("rows %q", got)
	}
	if got := b.find("d"); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("find %v", got)
	}
}

func TestBufferSearchIgnoresStyling(t *testing.T) {
	b := newBuffer(0)
	b.add([]string{"\x1b[31mred\x1b[0m alert", "plain"})
	if got := b.find("red alert"); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("find %v", got)
	}
}

func TestFollowKeepsBottom(t *testing.T) {
	m, f := newTestModel(t, true, 0)
	feedRows(m, f, 20)

	if got := m.viewport.CurrentLine(); got != 15 {
		t.Fatalf("offset %d, want 15", got)
	}
	if !strings.Contains(m.View(), "line 19") {
		t.Fatalf("view misses last row:\n%s", m.View())
	}
}

func TestScrollUpStopsAutoscroll(t *testing.T) {
	m, f := newTestModel(t, true, 0)
	feedRows(m, f, 20)

	m.Update(runes("k"))
	if m.autoscroll {
		t.Fatalf("autoscroll still on after scrolling up")
	}
	feedRows(m, f, 5)
	if got := m.viewport.CurrentLine(); got != 14 {
		t.Fatalf("offset %d, want 14", got)
	}

	m.Update(runes("F"))
	if !m.autoscroll || m.viewport.CurrentLine() != 20 {
		t.Fatalf("follow toggle: autoscroll %v offset %d", m.autoscroll, m.viewport.CurrentLine())
	}
}

func TestNavigationKeys(t *testing.T) {
	m, f := newTestModel(t, false, 0)
	feedRows(m, f, 30)

	tests := []struct {
		name string
		msg  tea.KeyMsg
		want int
	}{
		{"down", runes("j"), 1},
		{"arrow down", tea.KeyMsg{Type: tea.KeyDown}, 2},
		{"page down", runes("f"), 6},
		{"bottom", runes("G"), 25},
		{"page up", tea.KeyMsg{Type: tea.KeyPgUp}, 21},
		{"top", runes("g"), 0},
	}
	for _, tt := range tests {
		m.Update(tt.msg)
		if got := m.viewport.CurrentLine(); got != tt.want {
			t.Fatalf("%s: offset %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestSearchAndGoto(t *testing.T) {
	m, f := newTestModel(t, false, 0)
	feedRows(m, f, 30)

	m.Update(runes("/"))
	if m.mode != ModeSearch {
		t.Fatalf("mode %v", m.mode)
	}
	m.Update(runes("line 1"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != ModeNormal {
		t.Fatalf("mode after enter %v", m.mode)
	}
	if len(m.searchResults) != 10 || m.searchResults[0] != 10 {
		t.Fatalf("results %v", m.searchResults)
	}
	if m.viewport.CurrentLine() != 10 || m.viewport.HighlightedLine() != 10 {
		t.Fatalf("jump offset %d highlight %d", m.viewport.CurrentLine(), m.viewport.HighlightedLine())
	}

	m.Update(runes("n"))
	if m.viewport.HighlightedLine() != 11 {
		t.Fatalf("next highlight %d", m.viewport.HighlightedLine())
	}
	m.Update(runes("N"))
	m.Update(runes("N"))
	if m.viewport.HighlightedLine() != 19 {
		t.Fatalf("prev wraps to %d", m.viewport.HighlightedLine())
	}
	if !strings.Contains(m.statusLine(), "[10 matches]") {
		t.Fatalf("status %q", m.statusLine())
	}

	m.Update(runes(":"))
	m.Update(runes("3"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.viewport.CurrentLine() != 2 {
		t.Fatalf("goto offset %d", m.viewport.CurrentLine())
	}
}

func TestCapShiftsSearchHits(t *testing.T) {
	m, f := newTestModel(t, false, 10)
	feedRows(m, f, 10)

	m.Update(runes("/"))
	m.Update(runes("line 08"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !reflect.DeepEqual(m.searchResults, []int{8}) {
		t.Fatalf("results %v", m.searchResults)
	}

	f.Append("more 1")
	f.Append("more 2")
	f.Append("more 3")
	m.Update(tickMsg(time.Now()))
	if !reflect.DeepEqual(m.searchResults, []int{5}) || m.viewport.HighlightedLine() != 5 {
		t.Fatalf("shifted results %v highlight %d", m.searchResults, m.viewport.HighlightedLine())
	}
}

func TestStatusShowsTitle(t *testing.T) {
	m, f := newTestModel(t, true, 0)
	feedRows(m, f, 2)

	status := m.statusLine()
	for _, want := range []string{"L1/2", "[follow]", "10 of 20 bytes"} {
		if !strings.Contains(status, want) {
			t.Fatalf("status %q misses %q", status, want)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, false, 0)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit command did not quit")
	}
}

func TestGotoTime(t *testing.T) {
	m, f := newTestModel(t, false, 0)
	for i := 0; i < 20; i++ {
		f.Append(fmt.Sprintf("2024-01-15 10:%02d:00 [INF] step %d", i, i))
	}
	m.Update(tickMsg(time.Now()))

	m.Update(runes(":"))
	m.Update(runes("10:07:30"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.viewport.CurrentLine() != 8 || m.viewport.HighlightedLine() != 8 {
		t.Fatalf("offset %d highlight %d, want 8", m.viewport.CurrentLine(), m.viewport.HighlightedLine())
	}

	m.Update(runes(":"))
	m.Update(runes("23:00"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.viewport.CurrentLine() != 8 {
		t.Fatalf("unmatched time moved to %d", m.viewport.CurrentLine())
	}
}
