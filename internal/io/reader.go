package io

import (
	"bufio"
	"errors"
	"io"
)

const readBufferSize = 64 * 1024

// LineReader splits a byte stream into decoded physical lines and reports
// how many raw bytes each line consumed
type LineReader struct {
	r   *bufio.Reader
	enc Encoding
}

// NewLineReader reads lines of enc from r
func NewLineReader(r io.Reader, enc Encoding) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, readBufferSize), enc: enc}
}

// ReadLine returns the next line without its terminator and the number of
// bytes consumed including the terminator. A final line without terminator
// is returned as is; io.EOF is returned once the stream is drained.
func (lr *LineReader) ReadLine() (string, int, error) {
	if lr.enc.ByteOriented() {
		return lr.readByteLine()
	}
	return lr.readUnitLine()
}

func (lr *LineReader) readByteLine() (string, int, error) {
	raw, err := lr.r.ReadBytes('\n')
	n := len(raw)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", n, err
	}
	if n == 0 {
		return "", 0, io.EOF
	}
	if raw[n-1] == '\n' {
		raw = raw[:n-1]
	}
	if len(raw) > 0 && raw[len(raw)-1] == '\r' {
		raw = raw[:len(raw)-1]
	}
	return lr.enc.decode(raw), n, nil
}

func (lr *LineReader) readUnitLine() (string, int, error) {
	var raw []byte
	n := 0
	for {
		a, err := lr.r.ReadByte()
		if err != nil {
			return lr.unitResult(raw, n, err)
		}
		b, err := lr.r.ReadByte()
		if err != nil {
			n++
			return lr.unitResult(raw, n, err)
		}
		n += 2
		if lr.enc.isNewline(a, b) {
			return lr.unitResult(raw, n, nil)
		}
		raw = append(raw, a, b)
	}
}

func (lr *LineReader) unitResult(raw []byte, n int, err error) (string, int, error) {
	if err != nil && !errors.Is(err, io.EOF) {
		return "", n, err
	}
	if n == 0 {
		return "", 0, io.EOF
	}
	if l := len(raw); l >= 2 && lr.enc.isReturn(raw[l-2], raw[l-1]) {
		raw = raw[:l-2]
	}
	return lr.enc.decode(raw), n, nil
}
