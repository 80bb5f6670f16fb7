package io

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func readAll(t *testing.T, lr *LineReader) ([]string, int) {
	t.Helper()
	var lines []string
	total := 0
	for {
		s, n, err := lr.ReadLine()
		if errors.Is(err, io.EOF) {
			return lines, total
		}
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		lines = append(lines, s)
		total += n
	}
}

func TestLineReaderUTF8(t *testing.T) {
	data := []byte("one\r\ntwo\n\nlast")
	lines, total := readAll(t, NewLineReader(bytes.NewReader(data), UTF8))
	want := []string{"one", "two", "", "last"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	if total != len(data) {
		t.Fatalf("consumed %d of %d bytes", total, len(data))
	}
}

func TestLineReaderUTF16(t *testing.T) {
	// "hi\r\nyo\n" little endian
	data := []byte{'h', 0, 'i', 0, '\r', 0, '\n', 0, 'y', 0, 'o', 0, '\n', 0}
	lines, total := readAll(t, NewLineReader(bytes.NewReader(data), UTF16LE))
	if !reflect.DeepEqual(lines, []string{"hi", "yo"}) {
		t.Fatalf("lines = %q", lines)
	}
	if total != len(data) {
		t.Fatalf("consumed %d of %d bytes", total, len(data))
	}
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		head []byte
		name string
		bom  int
	}{
		{[]byte{0xEF, 0xBB, 0xBF, 'a'}, "utf-8", 3},
		{[]byte{0xFF, 0xFE, 'a', 0}, "utf-16le", 2},
		{[]byte{0xFE, 0xFF, 0, 'a'}, "utf-16be", 2},
		{[]byte("plain"), "utf-8", 0},
		{nil, "utf-8", 0},
	}
	for _, tt := range tests {
		enc, n := DetectEncoding(tt.head)
		if enc.Name != tt.name || n != tt.bom {
			t.Errorf("DetectEncoding(%v) = %s/%d, want %s/%d", tt.head, enc.Name, n, tt.name, tt.bom)
		}
	}
}
