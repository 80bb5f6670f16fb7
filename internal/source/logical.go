package source

import "strings"

// LogicalLine groups the physical lines of one record
type LogicalLine struct {
	Lines   []*Line
	Visible bool
	Printed bool
}

// Empty reports whether no line was appended yet
func (ll *LogicalLine) Empty() bool {
	return len(ll.Lines) == 0
}

// Append adds a physical line to the record
func (ll *LogicalLine) Append(l *Line) {
	ll.Lines = append(ll.Lines, l)
}

// Number returns the number of the first line or 0 when empty
func (ll *LogicalLine) Number() int {
	if ll.Empty() {
		return 0
	}
	return ll.Lines[0].Number
}

// ShownCount returns the number of distinct show filters matched by any line
func (ll *LogicalLine) ShownCount() int {
	return ll.distinct(func(l *Line) map[int]struct{} { return l.shown })
}

// HiddenCount returns the number of distinct hide filters matched by any line
func (ll *LogicalLine) HiddenCount() int {
	return ll.distinct(func(l *Line) map[int]struct{} { return l.hidden })
}

func (ll *LogicalLine) distinct(ids func(*Line) map[int]struct{}) int {
	union := make(map[int]struct{})
	for _, l := range ll.Lines {
		for id := range ids(l) {
			union[id] = struct{}{}
		}
	}
	return len(union)
}

// HasShown reports whether any line matched a show filter
func (ll *LogicalLine) HasShown() bool {
	for _, l := range ll.Lines {
		if l.Shown() {
			return true
		}
	}
	return false
}

// HasHidden reports whether any line matched a hide filter
func (ll *LogicalLine) HasHidden() bool {
	for _, l := range ll.Lines {
		if l.Hidden() {
			return true
		}
	}
	return false
}

// Evaluate computes and stores the visibility of the record
func (ll *LogicalLine) Evaluate(fs *FilterSet) bool {
	ll.Visible = !ll.shouldHide(fs) && ll.shouldShow(fs)
	return ll.Visible
}

func (ll *LogicalLine) shouldHide(fs *FilterSet) bool {
	if fs == nil || len(fs.Hide) == 0 {
		return false
	}
	if fs.All {
		return ll.HiddenCount() == len(fs.Hide)
	}
	return ll.HasHidden()
}

func (ll *LogicalLine) shouldShow(fs *FilterSet) bool {
	if fs == nil || len(fs.Show) == 0 {
		return true
	}
	if fs.All {
		return ll.ShownCount() == len(fs.Show)
	}
	return ll.HasShown()
}

// SetNumbersUnknown marks the number of every member line as unknown
func (ll *LogicalLine) SetNumbersUnknown() {
	for _, l := range ll.Lines {
		l.SetNumberUnknown()
	}
}

func (ll *LogicalLine) String() string {
	parts := make([]string, len(ll.Lines))
	for i, l := range ll.Lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}
