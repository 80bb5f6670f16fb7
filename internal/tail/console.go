package tail

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/TimelordUK/mtail/internal/config"
	mtailio "github.com/TimelordUK/mtail/internal/io"
	"github.com/TimelordUK/mtail/internal/logx"
)

type consoleLine struct {
	text  string
	bytes int
}

// ConsoleSource pumps standard input in the background so that reading
// the console never blocks the dispatcher
type ConsoleSource struct {
	r      io.Reader
	notify func()
	now    func() time.Time

	mu        sync.Mutex
	lines     []consoleLine
	received  int64
	lastInput time.Time
	err       error

	done chan struct{}
	once sync.Once
}

// NewConsoleSource reads r; notify is called whenever new input arrives
// and once more when the input ends
func NewConsoleSource(r io.Reader, notify func()) *ConsoleSource {
	if notify == nil {
		notify = func() {}
	}
	return &ConsoleSource{
		r:      r,
		notify: notify,
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// Start launches the pump. It can be called once; later calls are ignored.
func (c *ConsoleSource) Start() {
	c.once.Do(func() {
		c.mu.Lock()
		c.lastInput = c.now()
		c.mu.Unlock()
		go c.pump()
	})
}

// SetNotify replaces the arrival callback
func (c *ConsoleSource) SetNotify(notify func()) {
	c.mu.Lock()
	c.notify = notify
	c.mu.Unlock()
}

func (c *ConsoleSource) pump() {
	defer func() {
		close(c.done)
		c.signal()
	}()

	br := newPeekReader(c.r)
	enc, bom := mtailio.DetectEncoding(br.peek(4))
	br.discard(bom)
	carry := bom

	lr := mtailio.NewLineReader(br, enc)
	for {
		text, n, err := lr.ReadLine()
		if errors.Is(err, io.EOF) {
			logx.Debugf("console input ended")
			return
		}
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		c.lines = append(c.lines, consoleLine{text: text, bytes: n + carry})
		c.received += int64(n + carry)
		c.lastInput = c.now()
		c.mu.Unlock()
		carry = 0
		c.signal()
	}
}

func (c *ConsoleSource) signal() {
	c.mu.Lock()
	notify := c.notify
	c.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Received returns the number of bytes read from the input so far
func (c *ConsoleSource) Received() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received
}

// Done reports whether the input ended
func (c *ConsoleSource) Done() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Finished is closed when the input ends
func (c *ConsoleSource) Finished() <-chan struct{} {
	return c.done
}

// Err returns the read error that stopped the pump, if any
func (c *ConsoleSource) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// settled reports whether the input ended or paused for at least the
// flush delay
func (c *ConsoleSource) settled() bool {
	if c.Done() {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Sub(c.lastInput) >= config.FlushDelay
}

// drain takes the buffered lines and returns an iterator over them
func (c *ConsoleSource) drain() nextLine {
	c.mu.Lock()
	lines := c.lines
	c.lines = nil
	c.mu.Unlock()

	i := 0
	return func() (string, int, error) {
		if i >= len(lines) {
			return "", 0, io.EOF
		}
		l := lines[i]
		i++
		return l.text, l.bytes, nil
	}
}
