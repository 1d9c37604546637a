package source

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used by the viewer.
const DefaultStyle = "dracula"

// HighlightedLine is one document line split into colored tokens.
type HighlightedLine struct {
	Tokens []Token
}

// Token is a run of text sharing one color.
type Token struct {
	Text  string
	Color string // hex, empty for the terminal default
}

// Plain returns the line's text without colors.
func (hl HighlightedLine) Plain() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Highlight colors the document with the named chroma style, falling back to
// chroma's default for unknown names. The result always has one entry per
// document line; files in an unrecognized language come back uncolored.
func (d *Document) Highlight(styleName string) []HighlightedLine {
	lexer := d.lexer()
	if lexer == nil {
		return d.plain()
	}
	it, err := lexer.Tokenise(nil, strings.Join(d.Lines, "\n"))
	if err != nil {
		return d.plain()
	}

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	out := make([]HighlightedLine, len(d.Lines))
	for i, toks := range chroma.SplitTokensIntoLines(it.Tokens()) {
		if i >= len(out) {
			break
		}
		for _, tok := range toks {
			text := strings.TrimSuffix(tok.Value, "\n")
			if text == "" {
				continue
			}
			out[i].Tokens = append(out[i].Tokens, Token{Text: text, Color: colorOf(style, tok.Type)})
		}
	}
	return out
}

func (d *Document) plain() []HighlightedLine {
	out := make([]HighlightedLine, len(d.Lines))
	for i, l := range d.Lines {
		out[i] = HighlightedLine{Tokens: []Token{{Text: l}}}
	}
	return out
}

// lexer picks a lexer by file name. Scripts without an extension are
// recognized by content, e.g. a python shebang.
func (d *Document) lexer() chroma.Lexer {
	lexer := lexers.Match(filepath.Base(d.Path))
	if lexer == nil && filepath.Ext(d.Path) == "" {
		lexer = lexers.Analyse(string(d.Content))
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func colorOf(style *chroma.Style, tt chroma.TokenType) string {
	if e := style.Get(tt); e.Colour.IsSet() {
		return e.Colour.String()
	}
	return ""
}
