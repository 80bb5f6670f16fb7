package io

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/exp/mmap"
)

// ErrLineTooLong reports a physical line that does not fit in one page
var ErrLineTooLong = errors.New("line longer than page")

// MappedFile is a read-only memory-mapped snapshot of a file
type MappedFile struct {
	reader *mmap.ReaderAt
	size   int64
	path   string
}

// OpenMapped maps the file at path with its current length
func OpenMapped(path string) (*MappedFile, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &MappedFile{
		reader: reader,
		size:   int64(reader.Len()),
		path:   path,
	}, nil
}

// ReadAt reads len(p) bytes at offset
func (m *MappedFile) ReadAt(p []byte, off int64) (int, error) {
	return m.reader.ReadAt(p, off)
}

// Size returns the mapped length
func (m *MappedFile) Size() int64 {
	return m.size
}

// Path returns the file path
func (m *MappedFile) Path() string {
	return m.path
}

// Close releases the mapping
func (m *MappedFile) Close() error {
	return m.reader.Close()
}

// ReadRange reads bytes from start to end
func (m *MappedFile) ReadRange(start, end int64) ([]byte, error) {
	if end > m.size {
		end = m.size
	}
	if start >= end {
		return nil, nil
	}

	buf := make([]byte, end-start)
	if _, err := m.reader.ReadAt(buf, start); err != nil {
		return nil, err
	}
	return buf, nil
}

// Page is a run of whole physical lines
type Page struct {
	Start int64
	Data  []byte
}

// ReverseScanner walks a snapshot backwards one page at a time
type ReverseScanner struct {
	file     *MappedFile
	end      int64
	pageSize int64
}

// NewReverseScanner starts a backward walk at end
func NewReverseScanner(file *MappedFile, end, pageSize int64) *ReverseScanner {
	if end > file.Size() {
		end = file.Size()
	}
	return &ReverseScanner{file: file, end: end, pageSize: pageSize}
}

// Done reports whether the walk reached the start of the file
func (s *ReverseScanner) Done() bool {
	return s.end <= 0
}

// Next returns the page preceding the previous one. The partial first line
// of a page is left for the following call unless the page starts at
// offset 0.
func (s *ReverseScanner) Next() (Page, error) {
	from := s.end - s.pageSize
	if from < 0 {
		from = 0
	}
	data, err := s.file.ReadRange(from, s.end)
	if err != nil {
		return Page{}, err
	}
	if from == 0 {
		s.end = 0
		return Page{Start: 0, Data: data}, nil
	}

	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return Page{}, fmt.Errorf("%w at offset %d", ErrLineTooLong, from)
	}
	s.end = from + int64(idx)
	return Page{Start: from + int64(idx) + 1, Data: data[idx+1:]}, nil
}
