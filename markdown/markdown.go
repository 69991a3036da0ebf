// Package markdown renders entry bodies to HTML with goldmark and collects
// the heading and image metadata the site layer needs.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Heading is a document heading with its generated anchor.
type Heading struct {
	Depth int    `json:"depth"`
	Slug  string `json:"slug"`
	Text  string `json:"text"`
}

// Metadata is what the site layer needs besides the HTML itself.
type Metadata struct {
	Headings   []Heading `json:"headings"`
	ImagePaths []string  `json:"imagePaths"`
}

// Rendered is the rendered form of a markdown body.
type Rendered struct {
	HTML     string   `json:"html"`
	Metadata Metadata `json:"metadata"`
}

// PostProcessor rewrites rendered HTML. It must not fail; on trouble it
// returns its input unchanged.
type PostProcessor func(ctx context.Context, html string) string

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md   goldmark.Markdown
	post []PostProcessor
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPostProcessor appends fn to the processors run on every rendered body.
func WithPostProcessor(fn PostProcessor) Option {
	return func(r *Renderer) {
		r.post = append(r.post, fn)
	}
}

// NewRenderer returns a Renderer with GFM, linkify, task lists, character
// dialogue blocks, automatic heading IDs and raw HTML passthrough.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList, CharacterDialogue),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders body and collects its headings and image paths.
func (r *Renderer) Render(ctx context.Context, body string) (Rendered, error) {
	src := []byte(body)
	doc := r.md.Parser().Parse(text.NewReader(src))

	headings := collectHeadings(doc, src)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return Rendered{}, fmt.Errorf("markdown: render: %w", err)
	}
	out := buf.String()
	for _, fn := range r.post {
		out = fn(ctx, out)
	}

	images, err := ImagePaths(out)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		HTML: out,
		Metadata: Metadata{
			Headings:   headings,
			ImagePaths: images,
		},
	}, nil
}

func collectHeadings(doc ast.Node, src []byte) []Heading {
	headings := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var slug string
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				slug = string(b)
			}
		}
		headings = append(headings, Heading{
			Depth: h.Level,
			Slug:  slug,
			Text:  string(h.Text(src)),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// ImagePaths returns the distinct src attributes of every <img> in
// fragment, in document order.
func ImagePaths(fragment string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("markdown: parse html: %w", err)
	}
	paths := []string{}
	seen := make(map[string]struct{})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		if _, ok := seen[src]; ok {
			return
		}
		seen[src] = struct{}{}
		paths = append(paths, src)
	})
	return paths, nil
}

var defaultRenderer = NewRenderer()

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := defaultRenderer.Render(ctx, content)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out.HTML)
		return err
	})
}

// HTML returns a templ.Component that writes already rendered HTML.
func HTML(rendered string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rendered)
		return err
	})
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
