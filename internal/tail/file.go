// Package tail implements the per-file incremental reader: it follows one
// source, assembles logical lines, applies filters and context and hands
// ready lines to a Printer.
package tail

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/TimelordUK/mtail/internal/archive"
	"github.com/TimelordUK/mtail/internal/config"
	mtailio "github.com/TimelordUK/mtail/internal/io"
	"github.com/TimelordUK/mtail/internal/source"
)

// Kind classifies the source behind a File
type Kind int

const (
	Regular Kind = iota
	Console
	// Archive is a placeholder for an archive container; it is never read
	Archive
	ArchivedFile
)

func (k Kind) String() string {
	switch k {
	case Console:
		return "console"
	case Archive:
		return "archive"
	case ArchivedFile:
		return "archived file"
	default:
		return "regular"
	}
}

// Printer receives ready output. Lock/Unlock bracket one batch so that
// lines of different files never interleave.
type Printer interface {
	sync.Locker
	PrintFileName(path string, force bool)
	PrintLogicalLine(ll *source.LogicalLine, slot int)
	PrintError(msg string)
	SetLastFile(f *File)
}

// Params carries the collaborators of a File
type Params struct {
	Options  *config.Options
	Printer  Printer
	Archives archive.Reader
	Console  *ConsoleSource
	Slot     int
	// FromStart ignores the configured start location
	FromStart bool
}

// File follows a single source
type File struct {
	path     string
	kind     Kind
	slot     int
	opts     *config.Options
	matcher  source.Matcher
	marker   source.Matcher
	printer  Printer
	archives archive.Reader
	console  *ConsoleSource

	archivePath string
	member      string
	fromStart   bool

	// metadata, readable from other goroutines
	metaMu   sync.Mutex
	lastPos  int64
	size     int64
	info     os.FileInfo
	created  time.Time
	haveMeta bool

	// assembly state, guarded by processMu
	processMu      sync.Mutex
	pending        *source.LogicalLine
	history        *source.History
	lineNumber     int
	afterRemaining int
	startSkip      int
	fileNameNeeded bool
	lastPrinted    int
	numbersUnknown bool
	lastLinesDone  bool
	posFromFile    bool
	prevInfo       os.FileInfo
	prevCreated    time.Time
	enc            mtailio.Encoding
	bomLen         int
	encKnown       bool
	timer          *time.Timer
	timerGen       uint64

	errMu     sync.Mutex
	lastError string
}

// New creates a File for path and classifies its source
func New(path string, p Params) *File {
	f := &File{
		path:      path,
		slot:      p.Slot,
		opts:      p.Options,
		matcher:   p.Options.Matcher(),
		marker:    source.NewMatcher(false, p.Options.Comparison),
		printer:   p.Printer,
		archives:  p.Archives,
		console:   p.Console,
		fromStart: p.FromStart,
		pending:   &source.LogicalLine{},
		history:   source.NewHistory(p.Options.ContextBefore),
		startSkip: p.Options.Lines,
		enc:       mtailio.UTF8,
	}

	switch {
	case path == config.ConsoleName:
		f.kind = Console
	case f.archives != nil:
		if arch, member, ok := f.archives.SplitPath(path); ok && f.archives.IsValid(arch) {
			f.archivePath, f.member = arch, member
			f.kind = ArchivedFile
			if member == "" {
				f.kind = Archive
			}
		}
	}

	f.refresh()
	f.resetCounters()
	return f
}

// Path returns the path the file was registered with
func (f *File) Path() string { return f.path }

// Kind returns the source kind
func (f *File) Kind() Kind { return f.kind }

// Slot returns the color slot of the file
func (f *File) Slot() int { return f.slot }

// ArchivePath returns the container of an Archive or ArchivedFile
func (f *File) ArchivePath() string { return f.archivePath }

// Position returns the read position, or the consumed byte count for
// non-seekable sources
func (f *File) Position() int64 {
	f.metaMu.Lock()
	defer f.metaMu.Unlock()
	return f.lastPos
}

// Size returns the last observed source size
func (f *File) Size() int64 {
	f.metaMu.Lock()
	defer f.metaMu.Unlock()
	return f.size
}

func (f *File) setLastPos(pos int64) {
	f.metaMu.Lock()
	f.lastPos = pos
	f.metaMu.Unlock()
}

func (f *File) advance(n int64) {
	f.metaMu.Lock()
	f.lastPos += n
	f.metaMu.Unlock()
	f.posFromFile = true
}

// Process runs one read cycle. Errors are reported through the Printer.
func (f *File) Process() {
	f.processMu.Lock()
	defer f.processMu.Unlock()

	f.stopTimer()
	if err := f.process(); err != nil {
		f.processError(err)
		return
	}
	f.clearError()
}

// Close cancels the idle timer and flushes the pending logical line
func (f *File) Close() {
	f.processMu.Lock()
	defer f.processMu.Unlock()
	f.stopTimer()
	f.flush(nil)
}

func (f *File) process() error {
	if f.kind == Archive {
		return nil
	}

	f.refresh()
	if f.replaced() {
		f.flush(nil)
		f.resetCounters()
	}
	if f.unchanged() {
		f.flush(nil)
		return nil
	}
	f.printer.SetLastFile(f)

	var err error
	switch f.kind {
	case Console:
		err = f.processConsole()
	case ArchivedFile:
		err = f.processArchived()
	default:
		err = f.processRegular()
	}
	if err != nil {
		return err
	}
	if !f.opts.Follow && f.kind != Console {
		// no more input is expected
		f.flush(nil)
		return nil
	}
	f.armTimer()
	return nil
}

func (f *File) refresh() {
	f.metaMu.Lock()
	defer f.metaMu.Unlock()

	switch f.kind {
	case Console:
		if f.console != nil {
			f.size = f.console.Received()
		}
		f.haveMeta = true
	case ArchivedFile:
		if f.haveMeta {
			return
		}
		info, err := f.archives.MemberInfo(f.archivePath, f.member)
		if err != nil {
			f.size = 0
			return
		}
		f.size, f.created, f.haveMeta = info.Size, info.Created, true
	case Regular:
		fi, err := os.Stat(f.path)
		if err != nil {
			f.size, f.info, f.haveMeta = 0, nil, false
			return
		}
		f.size, f.info, f.haveMeta = fi.Size(), fi, true
	}
}

// replaced reports a new file behind the same path: a different file
// identity, a changed archive member time or a regular file that shrank
// below a read position taken from its content
func (f *File) replaced() bool {
	f.metaMu.Lock()
	info, created, size, pos := f.info, f.created, f.size, f.lastPos
	f.metaMu.Unlock()

	switch f.kind {
	case Regular:
		if info == nil {
			return false
		}
		prev := f.prevInfo
		f.prevInfo = info
		if prev != nil && !os.SameFile(prev, info) {
			return true
		}
		return f.posFromFile && size < pos
	case ArchivedFile:
		prev := f.prevCreated
		f.prevCreated = created
		return !prev.IsZero() && !prev.Equal(created)
	}
	return false
}

func (f *File) unchanged() bool {
	f.metaMu.Lock()
	defer f.metaMu.Unlock()
	return f.size > 0 && f.lastPos == f.size
}

func (f *File) startOffset() int64 {
	if f.fromStart {
		return 0
	}
	return f.opts.StartOffset(f.Size())
}

func (f *File) resetCounters() {
	if f.kind != Console {
		f.setLastPos(f.startOffset())
	}
	f.lineNumber = 0
	f.lastPrinted = 0
	f.afterRemaining = 0
	f.history.Clear()
	f.fileNameNeeded = true
	f.numbersUnknown = false
	f.posFromFile = false
}

func (f *File) processError(err error) {
	f.flush(nil)
	f.showError(err.Error())
	if f.opts.Follow {
		f.resetCounters()
	}
}

func (f *File) showError(msg string) {
	f.errMu.Lock()
	if f.lastError == msg {
		f.errMu.Unlock()
		return
	}
	f.lastError = msg
	f.errMu.Unlock()

	f.printer.PrintError(fmt.Sprintf("%s. [%s]", msg, f.path))
}

func (f *File) clearError() {
	f.errMu.Lock()
	f.lastError = ""
	f.errMu.Unlock()
}

// armTimer schedules the idle flush; called with processMu held
func (f *File) armTimer() {
	f.timerGen++
	gen := f.timerGen
	f.timer = time.AfterFunc(config.FlushDelay, func() {
		f.processMu.Lock()
		defer f.processMu.Unlock()
		if f.timerGen != gen || f.timer == nil {
			return
		}
		f.timer = nil
		f.flush(nil)
	})
}

// stopTimer cancels the idle flush; called with processMu held
func (f *File) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.timerGen++
}
