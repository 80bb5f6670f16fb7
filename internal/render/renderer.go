// Package render turns token lines into terminal output.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/source"
	"github.com/TimelordUK/mtail/pkg/logformat"
)

// Sink receives output one Line at a time, in order
type Sink interface {
	Emit(line *source.Line, slot int)
}

// FileBinder is implemented by sinks that style lines by file type
type FileBinder interface {
	BindFile(slot int, path string)
}

// Options selects the optional colorings
type Options struct {
	// ColorFiles paints plain text in the color of its file slot
	ColorFiles bool
	// Levels paints plain text by detected log level
	Levels bool
	// Syntax highlights plain text of source-like files
	Syntax bool
}

// Styles holds the lipgloss style of every token kind
type Styles struct {
	LineNumber lipgloss.Style
	FileName   lipgloss.Style
	Error      lipgloss.Style
	Truncated  lipgloss.Style
	Filters    []lipgloss.Style
	Files      []lipgloss.Style
	Levels     map[source.LogLevel]lipgloss.Style
}

// NewStyles builds the styles of theme for renderer r
func NewStyles(r *lipgloss.Renderer, theme *config.ThemeConfig) *Styles {
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	s := &Styles{
		LineNumber: fg(theme.LineNumbers),
		FileName:   fg(theme.FileName),
		Error:      fg(theme.Error),
		Truncated:  fg(theme.TruncatedFg).Background(lipgloss.Color(theme.TruncatedBg)),
		Levels: map[source.LogLevel]lipgloss.Style{
			source.LevelUnknown: r.NewStyle(),
			source.LevelTrace:   fg(theme.Levels.Trace),
			source.LevelDebug:   fg(theme.Levels.Debug),
			source.LevelInfo:    fg(theme.Levels.Info),
			source.LevelWarn:    fg(theme.Levels.Warn),
			source.LevelError:   fg(theme.Levels.Error),
			source.LevelFatal:   fg(theme.Levels.Fatal),
		},
	}
	for _, c := range theme.Filters {
		s.Filters = append(s.Filters, fg(theme.MatchText).Background(lipgloss.Color(c)))
	}
	for _, c := range theme.Files {
		s.Files = append(s.Files, fg(c))
	}
	if len(s.Filters) == 0 {
		s.Filters = []lipgloss.Style{r.NewStyle().Reverse(true)}
	}
	if len(s.Files) == 0 {
		s.Files = []lipgloss.Style{r.NewStyle()}
	}
	return s
}

// StringRenderer renders a line to a styled string
type StringRenderer struct {
	styles   *Styles
	opts     Options
	detector *logformat.LevelDetector

	mu     sync.RWMutex
	syntax map[int]*SyntaxRenderer
}

// NewStringRenderer creates a renderer drawing with r and the colors of cfg
func NewStringRenderer(r *lipgloss.Renderer, cfg *config.Config, opts Options) *StringRenderer {
	sr := &StringRenderer{
		styles: NewStyles(r, &cfg.Theme),
		opts:   opts,
		syntax: make(map[int]*SyntaxRenderer),
	}
	if opts.Levels {
		sr.detector = logformat.NewLevelDetector(&cfg.LogLevels)
	}
	return sr
}

// BindFile selects the syntax lexer of the file in slot
func (sr *StringRenderer) BindFile(slot int, path string) {
	if !sr.opts.Syntax || !IsSyntaxHighlightable(path) {
		return
	}
	sr.mu.Lock()
	sr.syntax[slot] = NewSyntaxRenderer(path)
	sr.mu.Unlock()
}

// Render returns the styled text of line
func (sr *StringRenderer) Render(line *source.Line, slot int) string {
	plain := sr.plainStyle(line, slot)

	sr.mu.RLock()
	syntax := sr.syntax[slot]
	sr.mu.RUnlock()

	var b strings.Builder
	for _, t := range line.Tokens {
		switch t.Kind {
		case source.NewLine:
			b.WriteString("\n")
		case source.LineNumber:
			b.WriteString(sr.styles.LineNumber.Render(t.Text))
		case source.FileName:
			b.WriteString(sr.styles.FileName.Render(t.Text))
		case source.Error:
			b.WriteString(sr.styles.Error.Render(t.Text))
		case source.Truncated:
			b.WriteString(sr.styles.Truncated.Render(t.Text))
		case source.Shown, source.Highlighted:
			b.WriteString(sr.styles.Filters[t.Color%len(sr.styles.Filters)].Render(t.Text))
		default:
			if syntax != nil {
				b.WriteString(syntax.Highlight(t.Text))
				continue
			}
			b.WriteString(plain.Render(t.Text))
		}
	}
	return b.String()
}

func (sr *StringRenderer) plainStyle(line *source.Line, slot int) lipgloss.Style {
	if sr.detector != nil {
		if level := sr.detector.Detect(line.String()); level != source.LevelUnknown {
			return sr.styles.Levels[level]
		}
	}
	if sr.opts.ColorFiles && slot >= 0 {
		return sr.styles.Files[slot%len(sr.styles.Files)]
	}
	return sr.styles.Levels[source.LevelUnknown]
}

// ConsoleRenderer writes every line followed by a newline to w
type ConsoleRenderer struct {
	mu sync.Mutex
	w  io.Writer
	r  *StringRenderer
}

// NewConsoleRenderer creates a sink writing to w
func NewConsoleRenderer(w io.Writer, cfg *config.Config, opts Options) *ConsoleRenderer {
	return &ConsoleRenderer{
		w: w,
		r: NewStringRenderer(lipgloss.NewRenderer(w), cfg, opts),
	}
}

// BindFile forwards to the string renderer
func (c *ConsoleRenderer) BindFile(slot int, path string) {
	c.r.BindFile(slot, path)
}

// Emit writes line
func (c *ConsoleRenderer) Emit(line *source.Line, slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, c.r.Render(line, slot))
}

// LineFunc adapts a function to Sink
type LineFunc func(text string)

// FuncSink renders lines to strings and hands them to fn
type FuncSink struct {
	r  *StringRenderer
	fn LineFunc
}

// NewFuncSink creates a sink delivering rendered strings to fn
func NewFuncSink(r *StringRenderer, fn LineFunc) *FuncSink {
	return &FuncSink{r: r, fn: fn}
}

// BindFile forwards to the string renderer
func (s *FuncSink) BindFile(slot int, path string) {
	s.r.BindFile(slot, path)
}

// Emit renders line and passes it on
func (s *FuncSink) Emit(line *source.Line, slot int) {
	s.fn(s.r.Render(line, slot))
}
