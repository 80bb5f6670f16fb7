package ui

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/TimelordUK/mtail/pkg/logformat"
)

// DefaultMaxLines bounds the rows kept by the viewer
const DefaultMaxLines = 100000

// Feed collects rendered lines from the tail goroutines until the viewer
// drains them on its next tick
type Feed struct {
	mu      sync.Mutex
	pending []string
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{}
}

// Append queues one rendered line; embedded newlines become separate rows
func (f *Feed) Append(text string) {
	rows := strings.Split(text, "\n")
	f.mu.Lock()
	f.pending = append(f.pending, rows...)
	f.mu.Unlock()
}

// Drain returns and forgets the queued rows
func (f *Feed) Drain() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.pending
	f.pending = nil
	return rows
}

// buffer is the bounded row store shown by the viewport. It keeps the
// styled rows for display and their plain text for searching.
type buffer struct {
	max   int
	rows  []string
	plain []string
}

func newBuffer(max int) *buffer {
	if max <= 0 {
		max = DefaultMaxLines
	}
	return &buffer{max: max}
}

// add appends rows and returns how many old rows were dropped
func (b *buffer) add(rows []string) int {
	for _, r := range rows {
		b.rows = append(b.rows, r)
		b.plain = append(b.plain, ansi.Strip(r))
	}
	over := len(b.rows) - b.max
	if over <= 0 {
		return 0
	}
	b.rows = append(b.rows[:0], b.rows[over:]...)
	b.plain = append(b.plain[:0], b.plain[over:]...)
	return over
}

func (b *buffer) LineCount() int { return len(b.rows) }

func (b *buffer) Lines(start, n int) []string {
	if start < 0 {
		start = 0
	}
	if start >= len(b.rows) {
		return nil
	}
	end := start + n
	if end > len(b.rows) {
		end = len(b.rows)
	}
	return b.rows[start:end]
}

// find returns the rows whose plain text contains term
func (b *buffer) find(term string) []int {
	var hits []int
	for i, p := range b.plain {
		if strings.Contains(p, term) {
			hits = append(hits, i)
		}
	}
	return hits
}

// findClock returns the first row stamped at or after the time of day
// clock, or -1
func (b *buffer) findClock(p *logformat.TimestampParser, clock time.Duration) int {
	for i, text := range b.plain {
		if ts, ok := p.Parse(text); ok && logformat.Clock(ts) >= clock {
			return i
		}
	}
	return -1
}
