package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LineSource provides already rendered display rows
type LineSource interface {
	LineCount() int
	Lines(start, n int) []string
}

// Viewport manages the visible portion of content
// It knows nothing about files, filters, or tokens
// It only knows how to display rows from a LineSource
type Viewport struct {
	source LineSource

	// Dimensions
	width  int
	height int

	// Scroll position
	scrollOffset int

	markerStyle lipgloss.Style
	emptyStyle  lipgloss.Style

	// Highlighted row (-1 for none)
	highlightedLine int
}

// NewViewport creates a new viewport
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		width:           width,
		height:          height,
		markerStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		emptyStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		highlightedLine: -1,
	}
}

// SetHighlightedLine sets which row gets the marker (-1 for none)
func (v *Viewport) SetHighlightedLine(index int) {
	v.highlightedLine = index
}

// ClearHighlight removes any row marker
func (v *Viewport) ClearHighlight() {
	v.highlightedLine = -1
}

// HighlightedLine returns the marked row or -1
func (v *Viewport) HighlightedLine() int {
	return v.highlightedLine
}

// SetSource sets the line source
func (v *Viewport) SetSource(source LineSource) {
	v.source = source
	v.scrollOffset = 0
}

// SetSize updates viewport dimensions
func (v *Viewport) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	v.width = width
	v.height = height
	v.clampScroll()
}

// Height returns the number of visible rows
func (v *Viewport) Height() int {
	return v.height
}

// ScrollDown scrolls down by n lines
func (v *Viewport) ScrollDown(n int) {
	v.scrollOffset += n
	v.clampScroll()
}

// ScrollUp scrolls up by n lines
func (v *Viewport) ScrollUp(n int) {
	v.scrollOffset -= n
	v.clampScroll()
}

// PageDown scrolls down by one page
func (v *Viewport) PageDown() {
	v.ScrollDown(v.page())
}

// PageUp scrolls up by one page
func (v *Viewport) PageUp() {
	v.ScrollUp(v.page())
}

func (v *Viewport) page() int {
	if v.height > 1 {
		return v.height - 1
	}
	return 1
}

// GotoTop scrolls to the beginning
func (v *Viewport) GotoTop() {
	v.scrollOffset = 0
}

// GotoBottom scrolls to the end
func (v *Viewport) GotoBottom() {
	if v.source == nil {
		return
	}
	v.scrollOffset = v.source.LineCount() - v.height
	v.clampScroll()
}

// GotoLine scrolls to a specific row
func (v *Viewport) GotoLine(line int) {
	v.scrollOffset = line
	v.clampScroll()
}

// CurrentLine returns the current top row
func (v *Viewport) CurrentLine() int {
	return v.scrollOffset
}

// AtBottom reports whether the last row is visible
func (v *Viewport) AtBottom() bool {
	if v.source == nil {
		return true
	}
	return v.scrollOffset >= v.maxScroll()
}

func (v *Viewport) maxScroll() int {
	if v.source == nil {
		return 0
	}
	max := v.source.LineCount() - v.height
	if max < 0 {
		return 0
	}
	return max
}

// clampScroll ensures scroll offset is within valid bounds
func (v *Viewport) clampScroll() {
	if v.scrollOffset > v.maxScroll() {
		v.scrollOffset = v.maxScroll()
	}
	if v.scrollOffset < 0 {
		v.scrollOffset = 0
	}
}

// Render returns the viewport content as a string
func (v *Viewport) Render() string {
	var lines []string
	if v.source != nil {
		lines = v.source.Lines(v.scrollOffset, v.height)
	}

	var builder strings.Builder
	marked := v.highlightedLine >= 0
	for i, line := range lines {
		if i > 0 {
			builder.WriteString("\n")
		}
		if marked {
			if v.scrollOffset+i == v.highlightedLine {
				builder.WriteString(v.markerStyle.Render("> "))
			} else {
				builder.WriteString("  ")
			}
		}
		builder.WriteString(line)
	}

	// Pad with empty lines if needed
	for i := len(lines); i < v.height; i++ {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(v.emptyStyle.Render("~"))
	}

	return builder.String()
}

// PercentScrolled returns how far through the content we are
func (v *Viewport) PercentScrolled() float64 {
	if v.source == nil || v.source.LineCount() == 0 {
		return 0
	}

	total := v.source.LineCount()
	if total <= v.height {
		return 100
	}

	return float64(v.scrollOffset) / float64(total-v.height) * 100
}
