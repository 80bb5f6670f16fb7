package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TimelordUK/mtail/internal/source"
)

// ConsoleName is the file name that designates standard input
const ConsoleName = "-"

// Engine timing and sizing constants
const (
	PageSize       = 1024 * 1024
	FlushDelay     = 250 * time.Millisecond
	DetectPeriod   = 500 * time.Millisecond
	FollowWait     = 500 * time.Millisecond
	MaxPushBatch   = 10
	WaitOnError    = time.Second
	DefaultWidth   = 80
	StatusInterval = time.Second
)

// LocationUnit tells how a start location is measured
type LocationUnit int

const (
	Bytes LocationUnit = iota
	Percent
)

// LinesFrom tells which end the line count applies to
type LinesFrom int

const (
	// FromBegin skips the first N visible logical lines
	FromBegin LinesFrom = iota
	// FromEnd prints the last N visible logical lines
	FromEnd
)

// ShowFile controls the file name headers
type ShowFile int

const (
	ShowFileAuto ShowFile = iota
	ShowFileAlways
	ShowFileNever
)

// ArgumentError reports an invalid command line value
type ArgumentError struct {
	Arg   string
	Value string
	Err   error
}

func (e *ArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid arg %s: %v", e.Arg, e.Err)
	}
	return fmt.Sprintf("invalid %s '%s': %v", e.Arg, e.Value, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ErrNoFiles is returned when neither files nor redirected input are given
var ErrNoFiles = errors.New("no files to process")

// Options is the immutable runtime configuration of one run
type Options struct {
	Files []string

	Follow        bool
	StartLocation int64
	StartUnit     LocationUnit
	LinesFrom     LinesFrom
	Lines         int
	ShowFile      ShowFile
	Recursive     bool

	LogicalLineMarker string
	ShowLineNumbers   bool
	Truncate          bool
	MaxWidth          int

	Filters    source.FilterSet
	Regex      bool
	Comparison source.Comparison

	ContextBefore int
	ContextAfter  int
}

// DefaultOptions returns the options of a run without flags
func DefaultOptions() Options {
	return Options{
		LinesFrom:  FromBegin,
		Recursive:  true,
		MaxWidth:   DefaultWidth,
		Comparison: source.OrdinalIgnoreCase,
	}
}

// ContextBeforeUsed reports whether before-context lines are requested
func (o *Options) ContextBeforeUsed() bool { return o.ContextBefore > 0 }

// ContextAfterUsed reports whether after-context lines are requested
func (o *Options) ContextAfterUsed() bool { return o.ContextAfter > 0 }

// ContextUsed reports whether any context is requested
func (o *Options) ContextUsed() bool { return o.ContextBeforeUsed() || o.ContextAfterUsed() }

// ContextLines returns before plus after context
func (o *Options) ContextLines() int {
	n := 0
	if o.ContextBefore > 0 {
		n += o.ContextBefore
	}
	if o.ContextAfter > 0 {
		n += o.ContextAfter
	}
	return n
}

// TailTarget is the number of logical lines kept while seeking the tail
func (o *Options) TailTarget() int {
	return o.Lines * (o.ContextLines() + 1)
}

// StartOffset resolves the start location against a file size
func (o *Options) StartOffset(size int64) int64 {
	if o.StartUnit == Percent {
		return o.StartLocation * size / 100
	}
	return o.StartLocation
}

// Matcher builds the matcher selected by the options
func (o *Options) Matcher() source.Matcher {
	return source.NewMatcher(o.Regex, o.Comparison)
}

// Validate checks values that flag parsing cannot
func (o *Options) Validate() error {
	if len(o.Files) == 0 {
		return ErrNoFiles
	}
	if o.Lines < 0 {
		return &ArgumentError{Arg: "number lines", Value: strconv.Itoa(o.Lines), Err: errors.New("must not be negative")}
	}
	if o.StartLocation < 0 || (o.StartUnit == Percent && o.StartLocation > 100) {
		return &ArgumentError{Arg: "starting location", Value: strconv.FormatInt(o.StartLocation, 10), Err: errors.New("out of range")}
	}
	m := o.Matcher()
	for _, p := range o.Filters.Patterns() {
		if err := m.CheckPattern(p); err != nil {
			return &ArgumentError{Arg: "filter", Value: p, Err: err}
		}
	}
	return nil
}

// ParseLocation parses "<n>B" or "<n>P", case-insensitively
func ParseLocation(s string) (int64, LocationUnit, error) {
	loc := strings.ToUpper(strings.TrimSpace(s))
	if len(loc) < 2 {
		return 0, Bytes, &ArgumentError{Arg: "starting location", Value: s, Err: errors.New("too short")}
	}
	var unit LocationUnit
	switch loc[len(loc)-1] {
	case 'B':
		unit = Bytes
	case 'P':
		unit = Percent
	default:
		return 0, Bytes, &ArgumentError{Arg: "starting location", Value: s, Err: errors.New("unit must be B or P")}
	}
	n, err := strconv.ParseInt(loc[:len(loc)-1], 10, 64)
	if err != nil {
		return 0, Bytes, &ArgumentError{Arg: "starting location", Value: s, Err: err}
	}
	if n < 0 || (unit == Percent && n > 100) {
		return 0, Bytes, &ArgumentError{Arg: "starting location", Value: s, Err: errors.New("out of range")}
	}
	return n, unit, nil
}

// ParseLines parses "N" (last N lines) or "+N" (skip the first N lines)
func ParseLines(s string) (int, LinesFrom, error) {
	num := strings.TrimSpace(s)
	if num == "" {
		return 0, FromBegin, &ArgumentError{Arg: "number lines", Value: s, Err: errors.New("empty")}
	}
	from := FromEnd
	if num[0] == '+' {
		from = FromBegin
		num = num[1:]
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, FromBegin, &ArgumentError{Arg: "number lines", Value: s, Err: err}
	}
	if n < 0 {
		return 0, FromBegin, &ArgumentError{Arg: "number lines", Value: s, Err: errors.New("must not be negative")}
	}
	return n, from, nil
}

// ParseContext parses a context line count, which must be positive
func ParseContext(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		if err == nil {
			err = errors.New("must be positive")
		}
		return 0, &ArgumentError{Arg: "context number", Value: s, Err: err}
	}
	return n, nil
}

// ParseComparison parses a comparison option name
func ParseComparison(s string) (source.Comparison, error) {
	c, err := source.ParseComparison(strings.TrimSpace(s))
	if err != nil {
		return c, &ArgumentError{Arg: "comparison option", Value: s, Err: err}
	}
	return c, nil
}
