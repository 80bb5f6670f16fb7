package io

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mapped(t *testing.T, content string) *MappedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := OpenMapped(path)
	if err != nil {
		t.Fatalf("OpenMapped: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestReverseScannerYieldsWholeLines(t *testing.T) {
	content := "aaaa\nbbbb\ncccc\ndddd\n"
	m := mapped(t, content)
	s := NewReverseScanner(m, m.Size(), 8)

	var pages []string
	for !s.Done() {
		p, err := s.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		pages = append(pages, string(p.Data))
	}

	// reassembling pages newest to oldest must give back every line once
	var lines []string
	for i := len(pages) - 1; i >= 0; i-- {
		for _, l := range strings.Split(strings.TrimSuffix(pages[i], "\n"), "\n") {
			if l != "" {
				lines = append(lines, l)
			}
		}
	}
	if got := strings.Join(lines, ","); got != "aaaa,bbbb,cccc,dddd" {
		t.Fatalf("lines = %s (pages %q)", got, pages)
	}
}

func TestReverseScannerLongLine(t *testing.T) {
	m := mapped(t, strings.Repeat("x", 64)+"\nshort\n")
	s := NewReverseScanner(m, m.Size(), 16)
	var err error
	for !s.Done() && err == nil {
		_, err = s.Next()
	}
	if !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("err = %v, want ErrLineTooLong", err)
	}
}
