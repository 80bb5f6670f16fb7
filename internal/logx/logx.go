// Package logx is a small leveled diagnostics log kept in memory and
// optionally mirrored to stderr or a file, so the tail output stays clean.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var (
	mu       sync.Mutex
	level    = Info
	buf      = make([]string, 0, 500)
	maxLines = 500
	out      io.Writer
)

func SetLevel(l Level) { mu.Lock(); level = l; mu.Unlock() }

// SetOutput mirrors every kept line to w; nil disables mirroring
func SetOutput(w io.Writer) { mu.Lock(); out = w; mu.Unlock() }

// SetLevelFromEnv reads MTAIL_LOG_LEVEL, MTAIL_LOG_STDERR and MTAIL_LOG_FILE.
// The returned closer releases the log file, if one was opened.
func SetLevelFromEnv() (io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MTAIL_LOG_LEVEL"))) {
	case "debug":
		SetLevel(Debug)
	case "info":
		SetLevel(Info)
	case "warn", "warning":
		SetLevel(Warn)
	case "error":
		SetLevel(Error)
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MTAIL_LOG_STDERR"))); v != "" && v != "0" && v != "false" && v != "no" {
		SetOutput(os.Stderr)
	}
	if path := strings.TrimSpace(os.Getenv("MTAIL_LOG_FILE")); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		SetOutput(f)
		return f, nil
	}
	return nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Debugf(format string, a ...any) { logf(Debug, "DEBUG", format, a...) }
func Infof(format string, a ...any)  { logf(Info, "INFO", format, a...) }
func Warnf(format string, a ...any)  { logf(Warn, "WARN", format, a...) }
func Errorf(format string, a ...any) { logf(Error, "ERROR", format, a...) }

func logf(l Level, tag, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	line := fmt.Sprintf("%s %-5s %s", ts, tag, fmt.Sprintf(format, a...))
	if len(buf) >= maxLines {
		// drop oldest
		copy(buf[0:], buf[1:])
		buf = buf[:len(buf)-1]
	}
	buf = append(buf, line)
	if out != nil {
		fmt.Fprintln(out, line)
	}
}

// Lines returns a copy of the kept lines, oldest first
func Lines() []string {
	mu.Lock()
	defer mu.Unlock()
	lines := make([]string, len(buf))
	copy(lines, buf)
	return lines
}

// Reset drops the kept lines
func Reset() {
	mu.Lock()
	buf = buf[:0]
	mu.Unlock()
}
