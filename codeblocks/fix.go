// Package codeblocks repairs code that the CMS rich-text editor exports as
// one paragraph per line, turning each run of such paragraphs into a single
// highlighted block with a theme picker.
package codeblocks

import (
	"bytes"
	"context"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reCodeLine = regexp.MustCompile(`<p[^>]*><code[^>]*><span[^>]*>([^<]*)</span></code></p>`)
	reIndent   = regexp.MustCompile(`padding-inline-start:\s*(\d+)px`)
)

// indentWidth is the editor's padding per indentation level, in pixels.
const indentWidth = 40

// Logger receives highlighting failures.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{}) {}

// Fixer rewrites runs of code-line paragraphs into code blocks.
type Fixer struct {
	highlighter Highlighter
	logger      Logger
	theme       string
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithHighlighter replaces the chroma highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(f *Fixer) {
		f.highlighter = h
	}
}

// WithLogger sets where highlighting failures are reported.
func WithLogger(l Logger) Option {
	return func(f *Fixer) {
		f.logger = l
	}
}

// WithTheme sets the theme wrappers start with (default DefaultTheme).
func WithTheme(id string) Option {
	return func(f *Fixer) {
		if _, ok := ThemeByID(id); ok {
			f.theme = id
		}
	}
}

// NewFixer returns a Fixer using chroma and the default theme.
func NewFixer(opts ...Option) *Fixer {
	f := &Fixer{
		highlighter: NewChromaHighlighter(),
		logger:      nopLogger{},
		theme:       DefaultTheme,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type codeLine struct {
	start, end int
	text       string
	indent     int
}

// Fix returns src with every run of two or more code-line paragraphs,
// separated only by whitespace, replaced by a highlighted block. A single
// code-line paragraph is left as it is.
func (f *Fixer) Fix(ctx context.Context, src string) string {
	groups := groupLines(src, findLines(src))

	var b strings.Builder
	last := 0
	for _, g := range groups {
		if len(g) <= 1 {
			continue
		}
		b.WriteString(src[last:g[0].start])
		b.WriteString(f.block(ctx, g))
		last = g[len(g)-1].end
	}
	if last == 0 {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

func findLines(src string) []codeLine {
	var lines []codeLine
	for _, loc := range reCodeLine.FindAllStringSubmatchIndex(src, -1) {
		full := src[loc[0]:loc[1]]
		indent := 0
		if m := reIndent.FindStringSubmatch(full); m != nil {
			px, _ := strconv.Atoi(m[1])
			indent = px / indentWidth
		}
		lines = append(lines, codeLine{
			start:  loc[0],
			end:    loc[1],
			text:   html.UnescapeString(src[loc[2]:loc[3]]),
			indent: indent,
		})
	}
	return lines
}

func groupLines(src string, lines []codeLine) [][]codeLine {
	var groups [][]codeLine
	var current []codeLine
	for _, l := range lines {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if strings.TrimSpace(src[prev.end:l.start]) != "" {
				groups = append(groups, current)
				current = nil
			}
		}
		current = append(current, l)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func (f *Fixer) block(ctx context.Context, group []codeLine) string {
	lines := make([]string, len(group))
	for i, l := range group {
		lines[i] = strings.Repeat("  ", l.indent) + l.text
	}

	lang := PlainText
	if marker, ok := languageMarker(lines[0]); ok {
		lang = marker
		lines = lines[1:]
	}
	code := strings.Join(lines, "\n")
	if lang == PlainText {
		lang = DetectLanguage(code)
	}

	highlighted, err := f.highlighter.Highlight(code, lang)
	if err != nil {
		f.logger.Warnf("Failed to highlight code block with language %q: %v", lang, err)
		return fallback(code, lang)
	}
	var buf bytes.Buffer
	if err := wrapper(f.theme, lang, highlighted).Render(ctx, &buf); err != nil {
		f.logger.Warnf("Failed to render code block wrapper: %v", err)
		return fallback(code, lang)
	}
	return buf.String()
}

func fallback(code, lang string) string {
	return `<pre><code class="language-` + html.EscapeString(lang) + `">` + html.EscapeString(code) + `</code></pre>`
}

// wrapper renders the highlighted block inside a container carrying the
// theme picker.
func wrapper(theme, lang, highlighted string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="code-block-wrapper relative group" data-code-theme="` + html.EscapeString(theme) + `" data-lang="` + html.EscapeString(lang) + `">`)
		b.WriteString(`<div class="code-theme-selector absolute top-2 right-2 opacity-0 group-hover:opacity-100 transition-opacity z-10">`)
		b.WriteString(`<select class="code-theme-picker select select-xs select-bordered bg-base-200" aria-label="Code theme">`)
		for _, t := range Themes {
			b.WriteString(`<option value="` + html.EscapeString(t.ID) + `"`)
			if t.ID == theme {
				b.WriteString(` selected`)
			}
			b.WriteString(`>` + html.EscapeString(t.Label) + `</option>`)
		}
		b.WriteString(`</select></div>`)
		b.WriteString(highlighted)
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
