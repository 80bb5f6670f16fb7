package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/view"
	"github.com/TimelordUK/mtail/pkg/logformat"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeGoto
)

const refreshInterval = 100 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ModelOptions configures the viewer
type ModelOptions struct {
	Feed     *Feed
	Config   *config.Config
	Title    func() string
	MaxLines int
	Follow   bool
}

// Model is the main application model
type Model struct {
	viewport    *view.Viewport
	buf         *buffer
	feed        *Feed
	keys        keyMap
	searchInput textinput.Model
	title       func() string
	stamps      *logformat.TimestampParser

	statusStyle lipgloss.Style
	helpStyle   lipgloss.Style

	mode       Mode
	width      int
	height     int
	autoscroll bool

	// Search state
	searchTerm    string
	searchResults []int
	searchIndex   int
}

// NewModel creates the viewer over opts.Feed
func NewModel(opts ModelOptions) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	feed := opts.Feed
	if feed == nil {
		feed = NewFeed()
	}
	title := opts.Title
	if title == nil {
		title = func() string { return "" }
	}

	buf := newBuffer(opts.MaxLines)
	vp := view.NewViewport(config.DefaultWidth, 22)
	vp.SetSource(buf)

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 256

	return &Model{
		viewport:    vp,
		buf:         buf,
		feed:        feed,
		keys:        newKeyMap(cfg.Keybindings),
		searchInput: ti,
		title:       title,
		stamps:      logformat.NewTimestampParser(),
		statusStyle: lipgloss.NewStyle().
			Background(lipgloss.Color(cfg.Theme.StatusBar)).
			Foreground(lipgloss.Color(cfg.Theme.StatusBarText)),
		helpStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.LineNumbers)),
		mode:       ModeNormal,
		autoscroll: opts.Follow,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve 2 lines for status bar and help
		m.viewport.SetSize(msg.Width, msg.Height-2)
		if m.autoscroll {
			m.viewport.GotoBottom()
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()
	}

	return m, nil
}

// refresh moves the queued feed rows into the buffer
func (m *Model) refresh() {
	rows := m.feed.Drain()
	if len(rows) == 0 {
		return
	}
	if dropped := m.buf.add(rows); dropped > 0 {
		m.shift(dropped)
	}
	if m.autoscroll {
		m.viewport.GotoBottom()
	}
}

// shift keeps the view and search hits on the same rows after the
// buffer dropped n rows from the front
func (m *Model) shift(n int) {
	m.viewport.ScrollUp(n)
	if hl := m.viewport.HighlightedLine(); hl >= 0 {
		if hl-n < 0 {
			m.viewport.ClearHighlight()
		} else {
			m.viewport.SetHighlightedLine(hl - n)
		}
	}
	kept := m.searchResults[:0]
	for _, r := range m.searchResults {
		if r-n >= 0 {
			kept = append(kept, r-n)
		}
	}
	m.searchResults = kept
	if m.searchIndex >= len(m.searchResults) {
		m.searchIndex = 0
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle mode-specific input
	if m.mode == ModeSearch {
		return m.handleSearchKey(msg)
	}
	if m.mode == ModeGoto {
		return m.handleGotoKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.ScrollUp(1)
		m.autoscroll = false

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
		m.autoscroll = false

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		m.autoscroll = false
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		m.autoscroll = true

	case key.Matches(msg, m.keys.Follow):
		m.autoscroll = !m.autoscroll
		if m.autoscroll {
			m.viewport.GotoBottom()
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = ModeSearch
		m.searchInput.Placeholder = "Search..."
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Goto):
		m.mode = ModeGoto
		m.searchInput.Placeholder = "Line number or HH:MM[:SS]..."
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Next):
		m.nextSearchResult()
	case key.Matches(msg, m.keys.Prev):
		m.prevSearchResult()
	}

	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchTerm = m.searchInput.Value()
		m.performSearch()
		m.leaveInput()
		return m, nil

	case "esc":
		m.leaveInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handleGotoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.gotoTarget(m.searchInput.Value())
		m.leaveInput()
		return m, nil

	case "esc":
		m.leaveInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// gotoTarget jumps to a 1-based row number or to the first row stamped at
// or after a time of day
func (m *Model) gotoTarget(value string) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if n > 0 {
			m.viewport.GotoLine(n - 1)
			m.autoscroll = false
		}
		return
	}
	clock, ok := logformat.ParseClock(value)
	if !ok {
		return
	}
	if row := m.buf.findClock(m.stamps, clock); row >= 0 {
		m.jump(row)
	}
}

func (m *Model) leaveInput() {
	m.mode = ModeNormal
	m.searchInput.Blur()
}

func (m *Model) performSearch() {
	m.searchResults = nil
	m.searchIndex = 0
	m.viewport.ClearHighlight()
	if m.searchTerm == "" {
		return
	}

	m.searchResults = m.buf.find(m.searchTerm)
	if len(m.searchResults) > 0 {
		m.jump(m.searchResults[0])
	}
}

func (m *Model) jump(row int) {
	m.autoscroll = false
	m.viewport.GotoLine(row)
	m.viewport.SetHighlightedLine(row)
}

func (m *Model) nextSearchResult() {
	if len(m.searchResults) == 0 {
		return
	}
	m.searchIndex = (m.searchIndex + 1) % len(m.searchResults)
	m.jump(m.searchResults[m.searchIndex])
}

func (m *Model) prevSearchResult() {
	if len(m.searchResults) == 0 {
		return
	}
	m.searchIndex--
	if m.searchIndex < 0 {
		m.searchIndex = len(m.searchResults) - 1
	}
	m.jump(m.searchResults[m.searchIndex])
}

// statusLine describes the position, follow state and processing title
func (m *Model) statusLine() string {
	switch m.mode {
	case ModeSearch:
		return "/" + m.searchInput.View()
	case ModeGoto:
		return ":" + m.searchInput.View()
	}

	lineInfo := fmt.Sprintf("L%d/%d", m.viewport.CurrentLine()+1, m.buf.LineCount())
	percent := fmt.Sprintf("%.0f%%", m.viewport.PercentScrolled())

	follow := ""
	if m.autoscroll {
		follow = " [follow]"
	}
	searchInfo := ""
	if m.searchTerm != "" {
		searchInfo = fmt.Sprintf(" [%d matches]", len(m.searchResults))
	}

	return fmt.Sprintf(" %s  %s%s%s  %s", lineInfo, percent, follow, searchInfo, m.title())
}

// View implements tea.Model
func (m *Model) View() string {
	var builder strings.Builder

	builder.WriteString(m.viewport.Render())
	builder.WriteString("\n")

	status := m.statusStyle
	if m.width > 0 {
		status = status.Width(m.width).MaxWidth(m.width)
	}
	builder.WriteString(status.Render(m.statusLine()))
	builder.WriteString("\n")

	builder.WriteString(m.helpStyle.Render(m.keys.helpLine()))

	return builder.String()
}
