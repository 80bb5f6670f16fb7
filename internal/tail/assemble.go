package tail

import (
	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/source"
)

// contextDelimiter separates non adjacent context groups
const contextDelimiter = "--"

// startsLogical reports whether text opens a new logical line
func (f *File) startsLogical(text string) bool {
	marker := f.opts.LogicalLineMarker
	if marker == "" || f.pending.Empty() {
		return true
	}
	prefix := []rune(text)
	if n := len([]rune(marker)); len(prefix) > n {
		prefix = prefix[:n]
	}
	start, _ := f.marker.Match(string(prefix), marker)
	return start >= 0
}

// processLine turns one physical line into a Line and attaches it to the
// pending logical line
func (f *File) processLine(text string, collector *source.History) {
	newLogical := f.startsLogical(text)
	if newLogical {
		f.flush(collector)
		f.lineNumber++
	}

	line := source.NewPlainLine(text, f.lineNumber, !newLogical)
	line.ApplyFilters(&f.opts.Filters, f.matcher)
	if f.opts.ShowLineNumbers {
		line.AddLineNumber()
		if f.numbersUnknown {
			line.SetNumberUnknown()
		}
	}
	if f.opts.Truncate {
		line = line.Truncate(f.opts.MaxWidth - 1)
	}
	f.pending.Append(line)
}

// flush completes the pending logical line. Emitted lines are printed, or
// stored in collector when one is given.
func (f *File) flush(collector *source.History) {
	if f.pending.Empty() {
		return
	}
	ll := f.pending
	f.pending = &source.LogicalLine{}

	visible := ll.Evaluate(&f.opts.Filters)
	if !(visible || f.afterRemaining > 0) || f.skipFromStart(visible) {
		f.history.Enqueue(ll)
		return
	}

	batch := f.prepare(ll)
	if visible {
		f.afterRemaining = f.opts.ContextAfter
	}
	if collector == nil {
		f.printLines(batch)
		return
	}
	for _, b := range batch {
		collector.Enqueue(b)
	}
}

func (f *File) skipFromStart(visible bool) bool {
	if f.opts.LinesFrom != config.FromBegin || f.startSkip <= 0 || !visible {
		return false
	}
	f.startSkip--
	return true
}

// prepare builds the output batch of ll: the before-context held in the
// history followed by ll itself
func (f *File) prepare(ll *source.LogicalLine) []*source.LogicalLine {
	var batch []*source.LogicalLine
	if ll.Visible && f.opts.ContextBeforeUsed() {
		batch = append(batch, f.history.Items()...)
	}
	f.history.Clear()
	batch = append(batch, ll)
	if f.afterRemaining > 0 {
		f.afterRemaining--
	}
	return batch
}

// replay prints the lines gathered by a tail scan
func (f *File) replay(collector *source.History) {
	var batch []*source.LogicalLine
	for {
		ll, ok := collector.Dequeue()
		if !ok {
			break
		}
		batch = append(batch, ll)
	}
	f.printLines(batch)
}

func (f *File) printLines(batch []*source.LogicalLine) {
	if len(batch) == 0 {
		return
	}
	f.printer.Lock()
	defer f.printer.Unlock()

	f.printer.PrintFileName(f.path, f.fileNameNeeded)
	f.fileNameNeeded = false

	for _, ll := range batch {
		if ll.Printed {
			continue
		}
		n := ll.Number()
		if f.needsDelimiter(n) {
			f.printer.PrintLogicalLine(delimiterLine(), f.slot)
		}
		f.printer.PrintLogicalLine(ll, f.slot)
		ll.Printed = true
		f.lastPrinted = n
	}
}

func (f *File) needsDelimiter(n int) bool {
	if !f.opts.ContextUsed() || f.numbersUnknown || f.lastPrinted == 0 {
		return false
	}
	d := n - f.lastPrinted
	return d > 1 || d < -1
}

func delimiterLine() *source.LogicalLine {
	line := source.NewTokenLine(source.NewToken(source.LineNumber, contextDelimiter))
	return &source.LogicalLine{Lines: []*source.Line{line}, Visible: true}
}
