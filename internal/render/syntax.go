package render

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// SyntaxRenderer applies syntax highlighting based on file type
type SyntaxRenderer struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewSyntaxRenderer creates a syntax highlighting renderer for the given filename
func NewSyntaxRenderer(filename string) *SyntaxRenderer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return &SyntaxRenderer{
		lexer:     chroma.Coalesce(lexer),
		style:     styles.Get("monokai"),
		formatter: formatters.Get("terminal16m"),
	}
}

// Highlight colors text, returning it unchanged when the lexer fails
func (r *SyntaxRenderer) Highlight(text string) string {
	if text == "" {
		return ""
	}
	it, err := r.lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, it); err != nil {
		return text
	}

	// the formatter may close the fragment with a newline
	highlighted := strings.ReplaceAll(buf.String(), "\n", "")
	return strings.ReplaceAll(highlighted, "\r", "")
}

var syntaxExts = map[string]bool{
	".go": true, ".rs": true, ".py": true, ".js": true, ".ts": true,
	".jsx": true, ".tsx": true, ".c": true, ".cpp": true, ".h": true,
	".hpp": true, ".java": true, ".rb": true, ".php": true, ".swift": true,
	".kt": true, ".scala": true, ".cs": true, ".fs": true, ".lua": true,
	".sh": true, ".bash": true, ".zsh": true, ".fish": true,
	".yaml": true, ".yml": true, ".json": true, ".toml": true, ".xml": true,
	".html": true, ".css": true, ".scss": true, ".sass": true, ".less": true,
	".sql": true, ".md": true, ".markdown": true, ".vim": true,
	".zig": true, ".nim": true, ".ex": true, ".exs": true, ".erl": true,
	".hs": true, ".ml": true, ".pl": true, ".pm": true,
}

var syntaxNames = map[string]bool{
	"makefile": true, "dockerfile": true, "cmakelists.txt": true,
	"gemfile": true, "rakefile": true, "vagrantfile": true,
}

// IsSyntaxHighlightable returns true if the file type supports syntax highlighting
func IsSyntaxHighlightable(filename string) bool {
	if syntaxExts[strings.ToLower(filepath.Ext(filename))] {
		return true
	}
	return syntaxNames[strings.ToLower(filepath.Base(filename))]
}
