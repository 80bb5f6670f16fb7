package source

import "unicode/utf8"

// Kind classifies a Token
type Kind int

const (
	Plain Kind = iota
	Shown
	Hidden
	Highlighted
	Truncated
	LineNumber
	Error
	FileName
	NewLine
)

var kindNames = [...]string{
	Plain:       "Plain",
	Shown:       "Shown",
	Hidden:      "Hidden",
	Highlighted: "Highlighted",
	Truncated:   "Truncated",
	LineNumber:  "LineNumber",
	Error:       "Error",
	FileName:    "FileName",
	NewLine:     "NewLine",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Colored reports whether tokens of this kind carry a color slot
func (k Kind) Colored() bool {
	return k == Shown || k == Highlighted
}

// LogLevel represents a log severity level
type LogLevel int

const (
	LevelUnknown LogLevel = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// Token is a typed run of text inside a Line
type Token struct {
	Kind  Kind
	Text  string
	Color int
}

// NewToken creates an uncolored token
func NewToken(kind Kind, text string) Token {
	return Token{Kind: kind, Text: text}
}

// NewColorToken creates a token bound to a color slot; the slot is dropped
// for kinds that carry no color
func NewColorToken(kind Kind, text string, color int) Token {
	if !kind.Colored() {
		color = 0
	}
	return Token{Kind: kind, Text: text, Color: color}
}

// Len returns the token length in runes
func (t Token) Len() int {
	return utf8.RuneCountInString(t.Text)
}

// Equal compares kind, text and, for colored kinds, the color slot
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind || t.Text != o.Text {
		return false
	}
	return !t.Kind.Colored() || t.Color == o.Color
}

// runeSlice returns text[from:to] with rune offsets; to < 0 means the end
func runeSlice(text string, from, to int) string {
	r := []rune(text)
	if to < 0 || to > len(r) {
		to = len(r)
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return ""
	}
	return string(r[from:to])
}
