// Package dispatch schedules the processing of every followed file and
// serializes their output.
package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/TimelordUK/mtail/internal/archive"
	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/logx"
	"github.com/TimelordUK/mtail/internal/monitor"
	"github.com/TimelordUK/mtail/internal/render"
	"github.com/TimelordUK/mtail/internal/source"
	"github.com/TimelordUK/mtail/internal/tail"
)

const (
	fileNameFormat  = "==> %s <=="
	errorTimeFormat = "2006-01-02 15:04:05"
)

// Stats is a snapshot for the status reporter
type Stats struct {
	TotalProcessed int64
	TotalSize      int64
	FilesCount     int
	Pending        int
	LastFileName   string
}

// Dispatcher owns the registry of files and runs the scheduling loop
type Dispatcher struct {
	opts     *config.Options
	sink     render.Sink
	archives archive.Reader
	console  *tail.ConsoleSource
	monitor  *monitor.Monitor
	now      func() time.Time

	filesMu   sync.RWMutex
	files     map[string]*tail.File
	lastSlot  int
	fromStart bool

	queues queues
	signal chan struct{}

	lastSweep time.Time

	// printMu serializes output and guards lastName
	printMu  sync.Mutex
	lastName string

	lastMu   sync.Mutex
	lastFile *tail.File
}

// New creates a dispatcher for opts writing to sink. console may be nil
// when standard input is not followed.
func New(opts *config.Options, sink render.Sink, archives archive.Reader, console *tail.ConsoleSource) *Dispatcher {
	d := &Dispatcher{
		opts:     opts,
		sink:     sink,
		archives: archives,
		console:  console,
		now:      time.Now,
		files:    make(map[string]*tail.File),
		queues:   newQueues(),
		signal:   make(chan struct{}, 1),
	}
	d.monitor = monitor.New(d, archives, opts.Recursive, opts.Follow)
	for _, path := range opts.Files {
		d.monitor.Add(path)
	}
	if console != nil {
		console.SetNotify(d.Notify)
	}
	return d
}

func fileKey(path string) string {
	if path == config.ConsoleName {
		return path
	}
	return strings.ToLower(filepath.Clean(path))
}

// Notify schedules the console for processing and wakes the loop
func (d *Dispatcher) Notify() {
	d.filesMu.RLock()
	f := d.files[config.ConsoleName]
	d.filesMu.RUnlock()
	if f != nil {
		d.queues.push.add(f)
	}
	d.wake()
}

func (d *Dispatcher) wake() {
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

// Run processes the files until ctx is done in follow mode, or once the
// current content is printed otherwise
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.tick(); err != nil {
		return err
	}

	d.filesMu.Lock()
	d.fromStart = true
	d.filesMu.Unlock()

	if d.opts.Follow {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-d.signal:
			case <-time.After(config.FollowWait):
			}
			if err := d.tick(); err != nil {
				return err
			}
		}
	}

	// archive members and late console input need another pass
	d.lastSweep = time.Time{}
	if err := d.tick(); err != nil {
		return err
	}
	if d.console == nil {
		return nil
	}
	for !d.console.Done() {
		select {
		case <-ctx.Done():
			return nil
		case <-d.console.Finished():
		case <-d.signal:
		case <-time.After(config.FollowWait):
		}
		if err := d.tick(); err != nil {
			return err
		}
	}
	d.lastSweep = time.Time{}
	return d.tick()
}

// tick sweeps when due and drains the queues, giving pushed files
// priority while still serving one polled file per round
func (d *Dispatcher) tick() error {
	if err := d.sweep(); err != nil {
		return err
	}
	for {
		served := false
		for i := 0; i < config.MaxPushBatch; i++ {
			f, ok := d.queues.push.next()
			if !ok {
				break
			}
			d.process(f)
			served = true
		}
		if f, ok := d.queues.poll.next(); ok {
			d.process(f)
			served = true
		}
		if !served {
			return nil
		}
	}
}

func (d *Dispatcher) process(f *tail.File) {
	if f.Kind() == tail.Archive {
		return
	}
	f.Process()
}

func (d *Dispatcher) sweep() error {
	now := d.now()
	if !d.lastSweep.IsZero() && now.Sub(d.lastSweep) < config.DetectPeriod {
		return nil
	}
	before := d.FilesCount()
	if err := d.monitor.ForceProcess(); err != nil {
		return err
	}
	d.lastSweep = d.now()
	if after := d.FilesCount(); after != before {
		logx.Infof("monitoring %d files", after)
	}
	return nil
}

// Close flushes every file and stops the watchers
func (d *Dispatcher) Close() {
	d.monitor.Close()
	d.filesMu.RLock()
	files := make([]*tail.File, 0, len(d.files))
	for _, f := range d.files {
		files = append(files, f)
	}
	d.filesMu.RUnlock()
	for _, f := range files {
		f.Close()
	}
}

// FilesCount returns the number of registered files
func (d *Dispatcher) FilesCount() int {
	d.filesMu.RLock()
	defer d.filesMu.RUnlock()
	return len(d.files)
}

// Stats returns processing totals over all files
func (d *Dispatcher) Stats() Stats {
	var s Stats
	d.filesMu.RLock()
	for _, f := range d.files {
		if f.Kind() == tail.Archive {
			continue
		}
		s.TotalProcessed += f.Position()
		s.TotalSize += f.Size()
	}
	s.FilesCount = len(d.files)
	d.filesMu.RUnlock()

	s.Pending = d.queues.push.len() + d.queues.poll.len()
	d.lastMu.Lock()
	if d.lastFile != nil {
		s.LastFileName = d.lastFile.Path()
	}
	d.lastMu.Unlock()
	return s
}

// register returns the file of path, creating it on first sight. tail.New
// runs outside the registry lock.
func (d *Dispatcher) register(path string) (*tail.File, bool) {
	key := fileKey(path)
	d.filesMu.Lock()
	if f, ok := d.files[key]; ok {
		d.filesMu.Unlock()
		return f, false
	}
	d.lastSlot++
	slot := d.lastSlot
	d.filesMu.Unlock()

	f := tail.New(path, tail.Params{
		Options:   d.opts,
		Printer:   d,
		Archives:  d.archives,
		Console:   d.console,
		Slot:      slot,
		FromStart: d.fromStart,
	})

	d.filesMu.Lock()
	if existing, ok := d.files[key]; ok {
		d.filesMu.Unlock()
		return existing, false
	}
	d.files[key] = f
	d.filesMu.Unlock()

	if b, ok := d.sink.(render.FileBinder); ok {
		b.BindFile(f.Slot(), path)
	}
	return f, true
}

func (d *Dispatcher) discovered(e monitor.Event) {
	f, created := d.register(e.Path)
	if f.Kind() == tail.Archive {
		if created {
			d.monitor.Add(e.Path)
		}
		return
	}
	if e.Origin == monitor.Push {
		d.queues.push.add(f)
		d.wake()
		return
	}
	d.queues.poll.add(f)
}

// Created registers a new file
func (d *Dispatcher) Created(e monitor.Event) { d.discovered(e) }

// Changed schedules a known file, registering it when necessary
func (d *Dispatcher) Changed(e monitor.Event) { d.discovered(e) }

// Deleted flushes and forgets a file
func (d *Dispatcher) Deleted(e monitor.Event) {
	key := fileKey(e.Path)
	d.filesMu.Lock()
	f := d.files[key]
	delete(d.files, key)
	d.filesMu.Unlock()
	if f != nil {
		d.queues.push.remove(f)
		d.queues.poll.remove(f)
		f.Close()
		logx.Debugf("forgot %s", e.Path)
	}
}

// DiscoveryError prints an enumeration failure
func (d *Dispatcher) DiscoveryError(err *monitor.DiscoveryError) {
	d.PrintError(err.Error())
}

// Lock takes the print lock
func (d *Dispatcher) Lock() { d.printMu.Lock() }

// Unlock releases the print lock
func (d *Dispatcher) Unlock() { d.printMu.Unlock() }

func (d *Dispatcher) showFileNames() bool {
	switch d.opts.ShowFile {
	case config.ShowFileAlways:
		return true
	case config.ShowFileNever:
		return false
	default:
		return d.FilesCount() > 1
	}
}

// PrintFileName announces path unless it was the last one announced.
// Called with the print lock held.
func (d *Dispatcher) PrintFileName(path string, force bool) {
	if !d.showFileNames() || (!force && path == d.lastName) {
		return
	}
	d.lastName = path
	name := path
	if path != config.ConsoleName {
		if abs, err := filepath.Abs(path); err == nil {
			name = abs
		}
	}
	d.emit(source.NewTokenLine(
		source.NewToken(source.NewLine, ""),
		source.NewToken(source.FileName, formatFileName(name)),
	), 0)
}

// PrintLogicalLine emits every line of ll. Called with the print lock held.
func (d *Dispatcher) PrintLogicalLine(ll *source.LogicalLine, slot int) {
	for _, l := range ll.Lines {
		d.emit(l, slot)
	}
}

// PrintError emits a timestamped error line
func (d *Dispatcher) PrintError(msg string) {
	d.Lock()
	defer d.Unlock()
	d.emit(source.NewTokenLine(
		source.NewToken(source.NewLine, ""),
		source.NewToken(source.Error, d.now().Format(errorTimeFormat)+" "+msg),
		source.NewToken(source.NewLine, ""),
	), 0)
	// the next output announces its file again
	d.lastName = ""
}

// SetLastFile records the file processed last
func (d *Dispatcher) SetLastFile(f *tail.File) {
	d.lastMu.Lock()
	d.lastFile = f
	d.lastMu.Unlock()
}

func (d *Dispatcher) emit(l *source.Line, slot int) {
	d.sink.Emit(l, slot)
}

func formatFileName(name string) string {
	return fmt.Sprintf(fileNameFormat, name)
}
