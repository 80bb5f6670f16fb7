package io

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Encoding describes how the bytes of a source decode to text
type Encoding struct {
	Name string
	BOM  []byte

	codec     encoding.Encoding
	unit      int
	bigEndian bool
}

var (
	UTF8    = Encoding{Name: "utf-8", BOM: []byte{0xEF, 0xBB, 0xBF}, unit: 1}
	UTF16LE = Encoding{
		Name:  "utf-16le",
		BOM:   []byte{0xFF, 0xFE},
		codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
		unit:  2,
	}
	UTF16BE = Encoding{
		Name:      "utf-16be",
		BOM:       []byte{0xFE, 0xFF},
		codec:     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
		unit:      2,
		bigEndian: true,
	}
)

// DetectEncoding inspects the first bytes of a source for a byte order mark.
// It returns the encoding and the BOM length; sources without one are UTF-8.
func DetectEncoding(head []byte) (Encoding, int) {
	for _, enc := range []Encoding{UTF8, UTF16LE, UTF16BE} {
		if bytes.HasPrefix(head, enc.BOM) {
			return enc, len(enc.BOM)
		}
	}
	return UTF8, 0
}

// ByteOriented reports whether a newline is the single byte 0x0A
func (e Encoding) ByteOriented() bool {
	return e.unit <= 1
}

func (e Encoding) decode(raw []byte) string {
	if e.codec == nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	out, err := e.codec.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func (e Encoding) isNewline(a, b byte) bool {
	if e.bigEndian {
		return a == 0 && b == '\n'
	}
	return a == '\n' && b == 0
}

func (e Encoding) isReturn(a, b byte) bool {
	if e.bigEndian {
		return a == 0 && b == '\r'
	}
	return a == '\r' && b == 0
}
