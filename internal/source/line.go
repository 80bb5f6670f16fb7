package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// TabReplacement is substituted for every tab of a physical line
	TabReplacement = "    "

	// EndMarker terminates a line cut at its end
	EndMarker = ">"
	// MiddleMarker replaces the removed middle of a token
	MiddleMarker = "<...>"

	lineNumberFormat  = "%08d "
	lineNumberPadding = "         "
	unknownLineNumber = " unknown "
)

// ErrOutOfRange is returned by Substring for a start outside the line
var ErrOutOfRange = errors.New("substring start out of range")

// Line is one physical line split into typed tokens
type Line struct {
	Tokens       []Token
	Number       int
	Continuation bool

	shown  map[int]struct{}
	hidden map[int]struct{}
}

// NewPlainLine creates a line holding text as a single Plain token
func NewPlainLine(text string, number int, continuation bool) *Line {
	l := &Line{Number: number, Continuation: continuation}
	text = strings.ReplaceAll(text, "\t", TabReplacement)
	if text != "" {
		l.Tokens = []Token{NewToken(Plain, text)}
	}
	return l
}

// NewTokenLine creates a line from prepared tokens
func NewTokenLine(tokens ...Token) *Line {
	return &Line{Tokens: tokens}
}

// Len returns the rune length of the line
func (l *Line) Len() int {
	n := 0
	for _, t := range l.Tokens {
		n += t.Len()
	}
	return n
}

func (l *Line) String() string {
	var b strings.Builder
	for _, t := range l.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Equal compares the token sequences of two lines
func (l *Line) Equal(o *Line) bool {
	if len(l.Tokens) != len(o.Tokens) {
		return false
	}
	for i := range l.Tokens {
		if !l.Tokens[i].Equal(o.Tokens[i]) {
			return false
		}
	}
	return true
}

// Shown reports whether any show filter matched
func (l *Line) Shown() bool { return len(l.shown) > 0 }

// Hidden reports whether any hide filter matched
func (l *Line) Hidden() bool { return len(l.hidden) > 0 }

// ShownIDs returns the matched show filter ids in ascending order
func (l *Line) ShownIDs() []int { return sortedIDs(l.shown) }

// HiddenIDs returns the matched hide filter ids in ascending order
func (l *Line) HiddenIDs() []int { return sortedIDs(l.hidden) }

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// shell copies everything but the tokens
func (l *Line) shell() *Line {
	c := &Line{Number: l.Number, Continuation: l.Continuation}
	if len(l.shown) > 0 {
		c.shown = make(map[int]struct{}, len(l.shown))
		for id := range l.shown {
			c.shown[id] = struct{}{}
		}
	}
	if len(l.hidden) > 0 {
		c.hidden = make(map[int]struct{}, len(l.hidden))
		for id := range l.hidden {
			c.hidden[id] = struct{}{}
		}
	}
	return c
}

// Clone returns a deep copy of the line
func (l *Line) Clone() *Line {
	c := l.shell()
	c.Tokens = append([]Token(nil), l.Tokens...)
	return c
}

// Substring returns up to length runes starting at start, keeping token
// kinds and colors. A negative length reads to the end of the line.
func (l *Line) Substring(start, length int) (*Line, error) {
	if start < 0 || start >= l.Len() {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, start)
	}
	res := l.shell()
	if length == 0 {
		return res, nil
	}
	for _, t := range l.Tokens {
		n := t.Len()
		if start >= n {
			start -= n
			continue
		}
		take := n - start
		if length > 0 && length < take {
			take = length
		}
		res.Tokens = append(res.Tokens, NewColorToken(t.Kind, runeSlice(t.Text, start, start+take), t.Color))
		start = 0
		if length > 0 {
			length -= take
			if length == 0 {
				break
			}
		}
	}
	return res, nil
}

// ApplyFilters splits Plain tokens on filter matches: hide patterns first,
// then show patterns, then highlight patterns. Applying the same set twice
// leaves the line unchanged.
func (l *Line) ApplyFilters(fs *FilterSet, m Matcher) {
	if fs == nil {
		return
	}
	if l.hidden == nil && len(fs.Hide) > 0 {
		l.hidden = make(map[int]struct{})
	}
	if l.shown == nil && len(fs.Show) > 0 {
		l.shown = make(map[int]struct{})
	}
	for id, pattern := range fs.Hide {
		l.applyFilter(m, pattern, Hidden, id, 0, l.hidden)
	}
	color := 0
	for id, pattern := range fs.Show {
		l.applyFilter(m, pattern, Shown, id, color, l.shown)
		color++
	}
	for _, pattern := range fs.Highlight {
		l.applyFilter(m, pattern, Highlighted, -1, color, nil)
		color++
	}
}

func (l *Line) applyFilter(m Matcher, pattern string, kind Kind, id, color int, found map[int]struct{}) {
	if pattern == "" {
		return
	}
	out := make([]Token, 0, len(l.Tokens))
	for _, t := range l.Tokens {
		if t.Kind != Plain {
			out = append(out, t)
			continue
		}
		rest := t.Text
		for rest != "" {
			idx, n := m.Match(rest, pattern)
			if idx < 0 || n <= 0 {
				break
			}
			if idx > 0 {
				out = append(out, NewToken(Plain, runeSlice(rest, 0, idx)))
			}
			out = append(out, NewColorToken(kind, runeSlice(rest, idx, idx+n), color))
			if found != nil {
				found[id] = struct{}{}
			}
			rest = runeSlice(rest, idx+n, -1)
		}
		if rest != "" {
			out = append(out, NewToken(Plain, rest))
		}
	}
	l.Tokens = out
}

// AddLineNumber prepends the formatted line number, or blank padding for
// continuation lines
func (l *Line) AddLineNumber() {
	text := lineNumberPadding
	if !l.Continuation {
		text = fmt.Sprintf(lineNumberFormat, l.Number)
	}
	l.Tokens = append([]Token{NewToken(LineNumber, text)}, l.Tokens...)
}

// SetNumberUnknown replaces a printed line number by the unknown marker
func (l *Line) SetNumberUnknown() {
	for i := range l.Tokens {
		if l.Tokens[i].Kind == LineNumber && l.Tokens[i].Text != lineNumberPadding {
			l.Tokens[i].Text = unknownLineNumber
		}
	}
}

// Truncate returns a copy cut to at most max runes. A tail made only of
// Plain tokens is cut at the end; otherwise the longest Plain tokens are
// shortened in the middle first.
func (l *Line) Truncate(max int) *Line {
	if max < 1 {
		max = 1
	}
	if res, ok := l.truncateFromEnd(max, false); ok {
		return res
	}
	res := l.Clone()
	res.truncateFromMiddle(max)
	out, _ := res.truncateFromEnd(max, true)
	return out
}

func (l *Line) truncateFromEnd(max int, force bool) (*Line, bool) {
	if max >= l.Len() {
		return l.Clone(), true
	}
	keep := max - len(EndMarker)
	tail, err := l.Substring(keep, -1)
	if err != nil {
		return nil, false
	}
	if !force {
		for _, t := range tail.Tokens {
			if t.Kind != Plain {
				return nil, false
			}
		}
	}
	res, err := l.Substring(0, keep)
	if err != nil {
		return nil, false
	}
	res.Tokens = append(res.Tokens, NewToken(Truncated, EndMarker))
	return res, true
}

func (l *Line) truncateFromMiddle(max int) {
	markerLen := len(MiddleMarker)
	for l.Len() > max {
		longest, longestLen := -1, -1
		for i, t := range l.Tokens {
			if t.Kind == Plain && t.Len() > longestLen {
				longest, longestLen = i, t.Len()
			}
		}
		if longest < 0 || longestLen < markerLen+1 {
			return
		}
		l.shrinkToken(longest, l.Len()-max)
	}
}

// shrinkToken replaces token i by head, MiddleMarker and tail so that the
// line loses up to excess runes
func (l *Line) shrinkToken(i, excess int) {
	markerLen := len(MiddleMarker)
	t := l.Tokens[i]
	n := t.Len()

	final := n - excess
	if final < markerLen {
		final = markerLen
	}
	first := (final - markerLen) / 2
	if first < 0 {
		first = 0
	}
	second := final - first - markerLen

	repl := make([]Token, 0, 3)
	if first > 0 {
		repl = append(repl, NewToken(Plain, runeSlice(t.Text, 0, first)))
	}
	repl = append(repl, NewToken(Truncated, MiddleMarker))
	if second > 0 {
		repl = append(repl, NewToken(Plain, runeSlice(t.Text, n-second, -1)))
	}

	tokens := make([]Token, 0, len(l.Tokens)+2)
	tokens = append(tokens, l.Tokens[:i]...)
	tokens = append(tokens, repl...)
	tokens = append(tokens, l.Tokens[i+1:]...)
	l.Tokens = tokens
}
