package logformat

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampParser finds the first known timestamp in a log line
type TimestampParser struct {
	patterns []timestampPattern
}

type timestampPattern struct {
	regex   *regexp.Regexp
	layouts []string
}

const (
	unixSeconds = "unix"
	unixMillis  = "unix_ms"
)

// NewTimestampParser creates a parser with common timestamp formats
func NewTimestampParser() *TimestampParser {
	return &TimestampParser{
		patterns: []timestampPattern{
			// 2024-01-15T10:30:45.123Z, 2024-01-15T10:30:45+02:00
			{regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)`),
				[]string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}},
			// 2024-01-15 10:30:45.123, [2024-01-15 10:30:45]
			{regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:[.,]\d+)?)`),
				[]string{"2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"}},
			// 15/Jan/2024:10:30:45 +0000
			{regexp.MustCompile(`(\d{2}/[A-Z][a-z]{2}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})`),
				[]string{"02/Jan/2006:15:04:05 -0700"}},
			// Jan 15 10:30:45
			{regexp.MustCompile(`([A-Z][a-z]{2} +\d{1,2} \d{2}:\d{2}:\d{2})`),
				[]string{"Jan 2 15:04:05", "Jan _2 15:04:05"}},
			{regexp.MustCompile(`^(\d{13})(?:\D|$)`), []string{unixMillis}},
			{regexp.MustCompile(`^(\d{10})(?:\D|$)`), []string{unixSeconds}},
			// 10:30:45.123 at line start
			{regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}(?:\.\d+)?)`),
				[]string{"15:04:05.999999999", "15:04:05"}},
		},
	}
}

// Parse extracts a timestamp from line. Formats without a date keep the
// zero date; callers comparing across them should use Clock.
func (p *TimestampParser) Parse(line string) (time.Time, bool) {
	for _, pattern := range p.patterns {
		m := pattern.regex.FindStringSubmatch(line)
		if len(m) < 2 {
			continue
		}
		text := strings.Replace(m[1], ",", ".", 1)
		for _, layout := range pattern.layouts {
			switch layout {
			case unixSeconds, unixMillis:
				n, err := strconv.ParseInt(text, 10, 64)
				if err != nil {
					continue
				}
				if layout == unixMillis {
					return time.UnixMilli(n), true
				}
				return time.Unix(n, 0), true
			}
			if t, err := time.Parse(layout, text); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Clock returns the time of day of t
func Clock(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into a time of day
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock(t), true
		}
	}
	return 0, false
}

// FormatTime formats a timestamp for display
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05")
}
