package source

import (
	"errors"
	"testing"
)

func TestRegexMatcher(t *testing.T) {
	m := NewMatcher(true, OrdinalIgnoreCase)
	tests := []struct {
		text, pattern string
		idx, n        int
	}{
		{"aaa", "bbb", -1, 0},
		{"", "bbb", -1, 0},
		{"bbb", "bbb", 0, 3},
		{"bbb", "bb", 0, 2},
		{"zbb", "bb", 1, 2},
		{"bbbbbbbb", "bb", 0, 2},
		{"bbbbbbbb", "BB", -1, 0},
		{"ab", "x*", -1, 0},
		{"žluť 42", `\d+`, 5, 2},
	}
	for _, tt := range tests {
		idx, n := m.Match(tt.text, tt.pattern)
		if idx != tt.idx || n != tt.n {
			t.Errorf("Match(%q, %q) = (%d, %d), want (%d, %d)", tt.text, tt.pattern, idx, n, tt.idx, tt.n)
		}
	}
}

func TestPlainMatcher(t *testing.T) {
	tests := []struct {
		cmp           Comparison
		text, pattern string
		idx, n        int
	}{
		{OrdinalIgnoreCase, "Hello World", "world", 6, 5},
		{Ordinal, "Hello World", "world", -1, 0},
		{Ordinal, "a.b", ".", 1, 1},
		{OrdinalIgnoreCase, "ÄÖÜ err", "ERR", 4, 3},
	}
	for _, tt := range tests {
		idx, n := NewMatcher(false, tt.cmp).Match(tt.text, tt.pattern)
		if idx != tt.idx || n != tt.n {
			t.Errorf("%v Match(%q, %q) = (%d, %d), want (%d, %d)", tt.cmp, tt.text, tt.pattern, idx, n, tt.idx, tt.n)
		}
	}
}

func TestCheckPattern(t *testing.T) {
	for _, regex := range []bool{false, true} {
		if err := NewMatcher(regex, Ordinal).CheckPattern(""); !errors.Is(err, ErrEmptyPattern) {
			t.Errorf("regex=%v: err = %v", regex, err)
		}
	}
	if err := NewMatcher(true, Ordinal).CheckPattern("("); err == nil {
		t.Error("invalid regex accepted")
	}
}

func TestParseComparison(t *testing.T) {
	c, err := ParseComparison("ORDINAL")
	if err != nil || c != Ordinal {
		t.Fatalf("ParseComparison = %v, %v", c, err)
	}
	c, err = ParseComparison("InvariantCultureIgnoreCase")
	if err != nil || c != OrdinalIgnoreCase {
		t.Fatalf("ParseComparison = %v, %v", c, err)
	}
	if _, err := ParseComparison("bogus"); err == nil {
		t.Fatal("bogus accepted")
	}
}
