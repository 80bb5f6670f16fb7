package tail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TimelordUK/mtail/internal/config"
	mtailio "github.com/TimelordUK/mtail/internal/io"
	"github.com/TimelordUK/mtail/internal/logx"
	"github.com/TimelordUK/mtail/internal/source"
)

// seekResult is the outcome of the backward page scan
type seekResult int

const (
	seekSucceeded seekResult = iota
	seekIneligible
	seekAborted
)

func (r seekResult) String() string {
	switch r {
	case seekSucceeded:
		return "succeeded"
	case seekIneligible:
		return "ineligible"
	default:
		return "aborted"
	}
}

type nextLine func() (string, int, error)

// consume feeds every line of next into the assembler, advancing the
// position by the raw byte count of each line
func (f *File) consume(next nextLine, collector *source.History) error {
	for {
		s, n, err := next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		f.advance(int64(n))
		f.processLine(s, collector)
	}
}

// wantsTail reports whether the last-N-lines seek is still pending
func (f *File) wantsTail() bool {
	return !f.lastLinesDone && f.opts.LinesFrom == config.FromEnd
}

func (f *File) processRegular() error {
	fh, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer fh.Close()

	if !f.encKnown {
		head := make([]byte, 4)
		n, _ := fh.ReadAt(head, 0)
		f.enc, f.bomLen = mtailio.DetectEncoding(head[:n])
		f.encKnown = true
	}

	if f.wantsTail() {
		if f.opts.Lines != 0 {
			collector := source.NewHistory(f.opts.TailTarget())
			if res := f.scanPages(collector); res != seekSucceeded {
				logx.Debugf("page scan %s for %s, scanning forward", res, f.path)
				f.resetCounters()
				collector.Clear()
				if err := f.streamRegular(fh, collector); err != nil {
					return err
				}
			}
			f.flush(collector)
			f.replay(collector)
		}
		if size := f.Size(); f.Position() < size {
			f.setLastPos(size)
		}
		f.lastLinesDone = true
	}

	return f.streamRegular(fh, nil)
}

func (f *File) streamRegular(fh *os.File, collector *source.History) error {
	pos := f.Position()
	if pos < int64(f.bomLen) {
		pos = int64(f.bomLen)
		f.setLastPos(pos)
	}
	if size := f.Size(); pos > size {
		// a start location past the end
		pos = size
		f.setLastPos(pos)
	}
	if _, err := fh.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", f.path, err)
	}
	f.posFromFile = true
	return f.consume(mtailio.NewLineReader(fh, f.enc).ReadLine, collector)
}

// scanPages collects the last logical lines reading the file backwards one
// page at a time
func (f *File) scanPages(collector *source.History) seekResult {
	size := f.Size()
	if size <= config.PageSize || f.opts.ContextBeforeUsed() || !f.enc.ByteOriented() {
		return seekIneligible
	}

	m, err := mtailio.OpenMapped(f.path)
	if err != nil {
		logx.Debugf("page scan: %v", err)
		return seekIneligible
	}
	defer m.Close()

	target := f.opts.TailTarget()
	found := source.NewHistory(target)
	scanner := mtailio.NewReverseScanner(m, size, config.PageSize)

	// context state at the end of the file, from the first page read
	endAfter := 0
	for first := true; !scanner.Done() && found.Len() != target; first = false {
		page, err := scanner.Next()
		if err != nil {
			logx.Debugf("page scan %s: %v", f.path, err)
			return seekAborted
		}
		data := page.Data
		if page.Start == 0 {
			data = data[f.bomLen:]
		}

		// pages run backwards so no context crosses a page start
		f.afterRemaining = 0
		f.history.Clear()
		pageLines := source.NewHistory(target)
		lr := mtailio.NewLineReader(bytes.NewReader(data), f.enc)
		for {
			s, _, err := lr.ReadLine()
			if err != nil {
				break
			}
			f.processLine(s, pageLines)
		}
		f.flush(pageLines)
		if first {
			endAfter = f.afterRemaining
		}
		pageLines.EnqueueAll(found)
		found.ReplaceBy(pageLines)
	}

	f.afterRemaining = endAfter
	f.history.Clear()
	collector.ReplaceBy(found)
	collector.SetNumbersUnknown()
	f.numbersUnknown = true
	f.setLastPos(size)
	return seekSucceeded
}

func (f *File) processArchived() error {
	rc, err := f.archives.OpenMember(f.archivePath, f.member)
	if err != nil {
		return err
	}
	defer rc.Close()

	if skip := f.Position(); skip > 0 {
		if _, err := io.CopyN(io.Discard, rc, skip); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("skip %d bytes of %s: %w", skip, f.path, err)
		}
	}

	br := newPeekReader(rc)
	if !f.encKnown {
		f.enc, f.bomLen = mtailio.DetectEncoding(br.peek(4))
		f.encKnown = true
		if f.Position() == 0 && f.bomLen > 0 {
			br.discard(f.bomLen)
			f.advance(int64(f.bomLen))
		}
	}
	lr := mtailio.NewLineReader(br, f.enc)

	if err := f.readTail(lr.ReadLine); err != nil {
		return err
	}
	if err := f.consume(lr.ReadLine, nil); err != nil {
		return err
	}
	f.setLastPos(f.Size())
	return nil
}

func (f *File) processConsole() error {
	if f.console == nil {
		return errors.New("no console input")
	}
	if f.wantsTail() && !f.console.settled() {
		// the last lines are unknown until input ends or pauses
		return nil
	}
	next := f.console.drain()
	if err := f.readTail(next); err != nil {
		return err
	}
	if err := f.consume(next, nil); err != nil {
		return err
	}
	return f.console.Err()
}

// readTail runs the forward last-N-lines scan used by non-seekable sources
func (f *File) readTail(next nextLine) error {
	if !f.wantsTail() {
		return nil
	}
	if f.opts.Lines != 0 {
		collector := source.NewHistory(f.opts.TailTarget())
		if err := f.consume(next, collector); err != nil {
			return err
		}
		f.flush(collector)
		f.replay(collector)
	}
	f.lastLinesDone = true
	return nil
}

// peekReader allows inspecting the first bytes of a non-seekable stream
type peekReader struct {
	r   io.Reader
	buf []byte
}

func newPeekReader(r io.Reader) *peekReader {
	return &peekReader{r: r}
}

func (p *peekReader) peek(n int) []byte {
	if len(p.buf) < n {
		more := make([]byte, n-len(p.buf))
		k, _ := io.ReadFull(p.r, more)
		p.buf = append(p.buf, more[:k]...)
	}
	if len(p.buf) < n {
		return p.buf
	}
	return p.buf[:n]
}

func (p *peekReader) discard(n int) {
	if n > len(p.buf) {
		n = len(p.buf)
	}
	p.buf = p.buf[n:]
}

func (p *peekReader) Read(b []byte) (int, error) {
	if len(p.buf) > 0 {
		n := copy(b, p.buf)
		p.buf = p.buf[n:]
		return n, nil
	}
	return p.r.Read(b)
}
