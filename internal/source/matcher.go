package source

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// ErrEmptyPattern is reported for a filter without text
var ErrEmptyPattern = errors.New("filter pattern must be non empty")

// regexTimeout bounds a single regex evaluation
const regexTimeout = time.Second

// Comparison selects how plain patterns are compared with text
type Comparison int

const (
	OrdinalIgnoreCase Comparison = iota
	Ordinal
)

var comparisonNames = map[string]Comparison{
	"ordinal":                    Ordinal,
	"ordinalignorecase":          OrdinalIgnoreCase,
	"currentculture":             Ordinal,
	"currentcultureignorecase":   OrdinalIgnoreCase,
	"invariantculture":           Ordinal,
	"invariantcultureignorecase": OrdinalIgnoreCase,
}

// ParseComparison maps a comparison name, case-insensitively, to a Comparison
func ParseComparison(name string) (Comparison, error) {
	if c, ok := comparisonNames[strings.ToLower(name)]; ok {
		return c, nil
	}
	return OrdinalIgnoreCase, fmt.Errorf("unknown comparison option %q", name)
}

func (c Comparison) String() string {
	if c == Ordinal {
		return "Ordinal"
	}
	return "OrdinalIgnoreCase"
}

// Matcher finds the first occurrence of pattern in text. Index and length
// are counted in runes; (-1, 0) means no match.
type Matcher interface {
	Match(text, pattern string) (int, int)
	CheckPattern(pattern string) error
}

// NewMatcher returns a regex matcher or a plain matcher for cmp
func NewMatcher(regex bool, cmp Comparison) Matcher {
	if regex {
		return &RegexMatcher{}
	}
	return &PlainMatcher{IgnoreCase: cmp == OrdinalIgnoreCase}
}

// PlainMatcher matches literal text
type PlainMatcher struct {
	IgnoreCase bool
}

// Match implements Matcher
func (m *PlainMatcher) Match(text, pattern string) (int, int) {
	if pattern == "" {
		return -1, 0
	}
	if m.IgnoreCase {
		text = strings.Map(unicode.ToLower, text)
		pattern = strings.Map(unicode.ToLower, pattern)
	}
	idx := strings.Index(text, pattern)
	if idx < 0 {
		return -1, 0
	}
	return utf8.RuneCountInString(text[:idx]), utf8.RuneCountInString(pattern)
}

// CheckPattern implements Matcher
func (m *PlainMatcher) CheckPattern(pattern string) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	return nil
}

// RegexMatcher matches .NET style regular expressions; compiled patterns
// are cached for the life of the matcher
type RegexMatcher struct {
	cache sync.Map // pattern -> *regexp2.Regexp
}

func (m *RegexMatcher) compile(pattern string) (*regexp2.Regexp, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	if re, ok := m.cache.Load(pattern); ok {
		return re.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	re.MatchTimeout = regexTimeout
	actual, _ := m.cache.LoadOrStore(pattern, re)
	return actual.(*regexp2.Regexp), nil
}

// Match implements Matcher; a zero-length match counts as no match
func (m *RegexMatcher) Match(text, pattern string) (int, int) {
	re, err := m.compile(pattern)
	if err != nil {
		return -1, 0
	}
	match, err := re.FindStringMatch(text)
	if err != nil || match == nil || match.Length == 0 {
		return -1, 0
	}
	return match.Index, match.Length
}

// CheckPattern implements Matcher
func (m *RegexMatcher) CheckPattern(pattern string) error {
	_, err := m.compile(pattern)
	return err
}
