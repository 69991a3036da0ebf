package codeblocks

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter turns source code into highlighted HTML.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}

// ChromaHighlighter highlights with chroma, emitting CSS classes so one
// rendering works with every palette theme.
type ChromaHighlighter struct {
	formatter *html.Formatter
	style     *chroma.Style
}

// NewChromaHighlighter returns a class-based chroma highlighter.
func NewChromaHighlighter() *ChromaHighlighter {
	return &ChromaHighlighter{
		formatter: html.New(html.WithClasses(true), html.TabWidth(2)),
		style:     styles.Get("github"),
	}
}

// Highlight implements Highlighter. Unknown languages are highlighted as
// plain text.
func (h *ChromaHighlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("codeblocks: tokenise %s: %w", language, err)
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return "", fmt.Errorf("codeblocks: format %s: %w", language, err)
	}
	return buf.String(), nil
}
