package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/source"
)

func sampleLine() *source.Line {
	return source.NewTokenLine(
		source.NewToken(source.LineNumber, "00000001 "),
		source.NewToken(source.Plain, "hello "),
		source.NewColorToken(source.Shown, "world", 1),
		source.NewToken(source.Truncated, source.EndMarker),
	)
}

func TestConsoleRendererPlainWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleRenderer(&buf, config.DefaultConfig(), Options{})
	c.Emit(sampleLine(), 0)
	c.Emit(source.NewTokenLine(source.NewToken(source.NewLine, ""), source.NewToken(source.FileName, "==> a <==")), 0)

	want := "00000001 hello world>\n\n==> a <==\n"
	if got := buf.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func colorRenderer(opts Options) *StringRenderer {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.ANSI256)
	return NewStringRenderer(r, config.DefaultConfig(), opts)
}

func TestStringRendererColors(t *testing.T) {
	sr := colorRenderer(Options{})
	got := sr.Render(sampleLine(), 0)
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("no escape sequences in %q", got)
	}
	for _, part := range []string{"00000001", "hello", "world", ">"} {
		if !strings.Contains(got, part) {
			t.Errorf("%q missing from %q", part, got)
		}
	}
}

func TestFilterColorsRotate(t *testing.T) {
	sr := colorRenderer(Options{})
	n := len(config.DefaultConfig().Theme.Filters)
	a := sr.Render(source.NewTokenLine(source.NewColorToken(source.Shown, "x", 0)), 0)
	b := sr.Render(source.NewTokenLine(source.NewColorToken(source.Shown, "x", n)), 0)
	c := sr.Render(source.NewTokenLine(source.NewColorToken(source.Shown, "x", 1)), 0)
	if a != b {
		t.Fatalf("color %d and %d differ: %q %q", 0, n, a, b)
	}
	if a == c {
		t.Fatalf("colors 0 and 1 are equal: %q", a)
	}
}

func TestLevelColors(t *testing.T) {
	sr := colorRenderer(Options{Levels: true})
	plain := colorRenderer(Options{})
	line := source.NewPlainLine("ERROR failed", 1, false)
	if sr.Render(line, 0) == plain.Render(line, 0) {
		t.Fatal("level coloring had no effect")
	}
	other := source.NewPlainLine("nothing here", 1, false)
	if sr.Render(other, 0) != plain.Render(other, 0) {
		t.Fatal("unknown level was colored")
	}
}

func TestFileColors(t *testing.T) {
	sr := colorRenderer(Options{ColorFiles: true})
	line := source.NewPlainLine("text", 1, false)
	if sr.Render(line, 0) == sr.Render(line, 1) {
		t.Fatal("slots 0 and 1 rendered alike")
	}
}

func TestSyntaxBinding(t *testing.T) {
	sr := colorRenderer(Options{Syntax: true})
	sr.BindFile(1, "main.go")
	sr.BindFile(2, "app.log")

	line := source.NewPlainLine("func main() {}", 1, false)
	if got := sr.Render(line, 1); !strings.Contains(got, "\x1b[") {
		t.Fatalf("go source not highlighted: %q", got)
	}
	if got := sr.Render(line, 2); got != "func main() {}" {
		t.Fatalf("log file highlighted: %q", got)
	}
}

func TestIsSyntaxHighlightable(t *testing.T) {
	for name, want := range map[string]bool{
		"main.go":    true,
		"Makefile":   true,
		"config.YML": true,
		"app.log":    false,
		"notes":      false,
	} {
		if got := IsSyntaxHighlightable(name); got != want {
			t.Errorf("IsSyntaxHighlightable(%q) = %v", name, got)
		}
	}
}

func TestFuncSink(t *testing.T) {
	var got []string
	sink := NewFuncSink(NewStringRenderer(lipgloss.NewRenderer(&bytes.Buffer{}), config.DefaultConfig(), Options{}), func(s string) {
		got = append(got, s)
	})
	sink.Emit(source.NewPlainLine("a", 1, false), 0)
	sink.Emit(source.NewPlainLine("b", 2, false), 0)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %q", got)
	}
}
