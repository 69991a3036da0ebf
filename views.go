package cmsloader

import (
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/cmsloader/markdown"
)

// ViewFuncs holds the templ components the server calls when rendering
// pages. Replace any of them with WithViews to customize the site.
type ViewFuncs struct {
	Home           func(entries []Entry, activeTag string, tags []string, cfg ServerConfig) templ.Component
	Entry          func(entry Entry, related []Entry, cfg ServerConfig) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(d Dashboard, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// DefaultViews returns the built-in page templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           homePage,
		Entry:          entryPage,
		AdminLogin:     adminLoginPage,
		AdminDashboard: adminDashboardPage,
		NotFound:       notFoundPage,
		ServerError:    serverErrorPage,
	}
}

type htmlWriter struct {
	strings.Builder
}

func (w *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		w.WriteString(p)
	}
}

func (w *htmlWriter) text(s string) {
	w.WriteString(html.EscapeString(s))
}

func fragment(fn func(ctx context.Context, w *htmlWriter) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		var w htmlWriter
		if err := fn(ctx, &w); err != nil {
			return err
		}
		_, err := io.WriteString(out, w.String())
		return err
	})
}

const themePickerScript = `(function(){var k="code-theme";` +
	`function apply(t){document.querySelectorAll(".code-block-wrapper").forEach(function(w){w.dataset.codeTheme=t;});` +
	`document.querySelectorAll(".code-theme-picker").forEach(function(s){s.value=t;});}` +
	`var saved=localStorage.getItem(k);if(saved)apply(saved);` +
	`document.addEventListener("change",function(e){var s=e.target;` +
	`if(s.classList&&s.classList.contains("code-theme-picker")){localStorage.setItem(k,s.value);apply(s.value);}});})();`

// layout wraps body in the document shell with SEO metadata.
func layout(meta PageMeta, jsonLD string, body templ.Component) templ.Component {
	return fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<!DOCTYPE html><html lang="fi"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(meta.Title)
		w.raw(`</title>`)
		if meta.Description != "" {
			w.raw(`<meta name="description" content="`)
			w.text(meta.Description)
			w.raw(`">`)
		}
		if meta.URL != "" {
			w.raw(`<link rel="canonical" href="`)
			w.text(meta.URL)
			w.raw(`"><meta property="og:url" content="`)
			w.text(meta.URL)
			w.raw(`">`)
		}
		w.raw(`<meta property="og:title" content="`)
		w.text(meta.Title)
		w.raw(`"><meta property="og:type" content="`)
		w.text(meta.OGType)
		w.raw(`">`)
		w.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
		w.raw(`<link rel="stylesheet" href="/public/code-themes.css">`)
		if jsonLD != "" {
			w.raw(`<script type="application/ld+json">`, jsonLD, `</script>`)
		}
		w.raw(`</head><body><main class="container mx-auto px-4">`)
		if err := body.Render(ctx, &w.Builder); err != nil {
			return err
		}
		w.raw(`</main><script>`, themePickerScript, `</script></body></html>`)
		return nil
	})
}

func homePage(entries []Entry, activeTag string, tags []string, cfg ServerConfig) templ.Component {
	meta := PageMeta{Title: cfg.Name, Description: cfg.Description, URL: BuildURL(cfg.URL), OGType: "website"}
	body := fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<header><h1><a href="/">`)
		w.text(cfg.Name)
		w.raw(`</a></h1>`)
		if cfg.Description != "" {
			w.raw(`<p>`)
			w.text(cfg.Description)
			w.raw(`</p>`)
		}
		w.raw(`</header>`)
		return entryList(entries, activeTag, tags).Render(ctx, &w.Builder)
	})
	return layout(meta, WebsiteJsonLD(cfg), body)
}

func entryList(entries []Entry, activeTag string, tags []string) templ.Component {
	return fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<section id="blog">`)
		if len(tags) > 0 {
			w.raw(`<nav class="tags">`)
			for _, tag := range tags {
				class := "tag"
				if normalizeTag(tag) == normalizeTag(activeTag) {
					class += " active"
				}
				w.raw(`<a class="`, class, `" href="/?tag=`)
				w.text(url.QueryEscape(tag))
				w.raw(`">`)
				w.text(tag)
				w.raw(`</a>`)
			}
			w.raw(`</nav>`)
		}
		if len(entries) == 0 {
			w.raw(`<p>No posts yet.</p></section>`)
			return nil
		}
		w.raw(`<ul class="entries">`)
		for _, e := range entries {
			w.raw(`<li><article>`)
			if img := listImage(e); img != nil {
				writeImage(w, img, "card")
			}
			w.raw(`<h2><a href="`)
			w.text(e.Link())
			w.raw(`">`)
			w.text(e.Data.Title)
			w.raw(`</a></h2><time datetime="`)
			w.text(e.Data.Published.Format("2006-01-02"))
			w.raw(`">`)
			w.text(FormatDate(e.Data.Published))
			w.raw(`</time>`)
			if e.Data.Description != "" {
				w.raw(`<p>`)
				w.text(e.Data.Description)
				w.raw(`</p>`)
			}
			w.raw(`</article></li>`)
		}
		w.raw(`</ul></section>`)
		return nil
	})
}

func listImage(e Entry) *Image {
	if e.Data.CardImage != nil {
		return e.Data.CardImage
	}
	return e.Data.CoverImage
}

func writeImage(w *htmlWriter, img *Image, class string) {
	src := markdown.SafeURL(img.Src)
	if src == "" {
		return
	}
	w.raw(`<img class="`, class, `" src="`, src, `" alt="`)
	w.text(img.Alt)
	w.raw(`" width="`, strconv.Itoa(img.Width), `" height="`, strconv.Itoa(img.Height), `" loading="lazy">`)
}

func entryPage(e Entry, related []Entry, cfg ServerConfig) templ.Component {
	title := e.Data.Title
	if e.Data.SEOTitle != "" {
		title = e.Data.SEOTitle
	}
	description := e.Data.Description
	if e.Data.SEODescription != "" {
		description = e.Data.SEODescription
	}
	meta := PageMeta{
		Title:       title + " | " + cfg.Name,
		Description: description,
		URL:         BuildURL(cfg.URL, "blog", e.ID),
		OGType:      "article",
	}
	body := fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<article class="entry"><header><h1>`)
		w.text(e.Data.Title)
		w.raw(`</h1><p class="meta"><time datetime="`)
		w.text(e.Data.Published.Format("2006-01-02"))
		w.raw(`">`)
		w.text(FormatDate(e.Data.Published))
		w.raw(`</time>`)
		if e.Data.Author != "" {
			w.raw(` · `)
			w.text(e.Data.Author)
		}
		w.raw(`</p>`)
		if len(e.Data.Tags) > 0 {
			w.raw(`<p class="tags">`)
			for _, tag := range e.Data.Tags {
				w.raw(`<a class="tag" href="/?tag=`)
				w.text(url.QueryEscape(tag))
				w.raw(`">`)
				w.text(tag)
				w.raw(`</a>`)
			}
			w.raw(`</p>`)
		}
		if e.Data.CoverImage != nil {
			writeImage(w, e.Data.CoverImage, "cover")
		}
		w.raw(`</header>`)
		if e.Data.TOC {
			writeTOC(w, e.Rendered.Metadata.Headings)
		}
		w.raw(`<div class="prose">`)
		if err := markdown.HTML(e.Rendered.HTML).Render(ctx, &w.Builder); err != nil {
			return err
		}
		w.raw(`</div></article>`)
		if len(related) > 0 {
			w.raw(`<aside class="related"><h2>Related posts</h2><ul>`)
			for _, r := range related {
				w.raw(`<li><a href="`)
				w.text(r.Link())
				w.raw(`">`)
				w.text(r.Data.Title)
				w.raw(`</a></li>`)
			}
			w.raw(`</ul></aside>`)
		}
		return nil
	})
	return layout(meta, BlogPostingJsonLD(e, cfg), body)
}

// writeTOC lists second and third level headings.
func writeTOC(w *htmlWriter, headings []markdown.Heading) {
	var items []markdown.Heading
	for _, h := range headings {
		if h.Depth == 2 || h.Depth == 3 {
			items = append(items, h)
		}
	}
	if len(items) == 0 {
		return
	}
	w.raw(`<nav class="toc"><ul>`)
	for _, h := range items {
		w.raw(`<li class="toc-depth-`, strconv.Itoa(h.Depth), `"><a href="#`)
		w.text(h.Slug)
		w.raw(`">`)
		w.text(h.Text)
		w.raw(`</a></li>`)
	}
	w.raw(`</ul></nav>`)
}

func csrfField(w *htmlWriter, token string) {
	w.raw(`<input type="hidden" name="_csrf" value="`)
	w.text(token)
	w.raw(`">`)
}

func adminLoginPage(showError bool, csrfToken string) templ.Component {
	body := fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<h1>Admin</h1>`)
		if showError {
			w.raw(`<p class="error">Wrong password.</p>`)
		}
		w.raw(`<form method="post" action="/admin/login/">`)
		csrfField(w, csrfToken)
		w.raw(`<label>Password <input type="password" name="password" autofocus></label>`)
		w.raw(`<button type="submit">Log in</button></form>`)
		return nil
	})
	return layout(PageMeta{Title: "Admin", OGType: "website"}, "", body)
}

func adminDashboardPage(d Dashboard, csrfToken string) templ.Component {
	body := fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<h1>Content</h1>`)
		if d.Message != "" {
			w.raw(`<p class="message">`)
			w.text(d.Message)
			w.raw(`</p>`)
		}
		w.raw(`<p class="status">`, strconv.Itoa(len(d.Entries)), ` entries, `, strconv.Itoa(d.Authors), ` authors.`)
		if d.LastRun != nil {
			w.raw(` Last load: `)
			w.text(d.LastRun.Source)
			w.raw(`, `, strconv.Itoa(d.LastRun.Count), ` items at `)
			w.text(d.LastRun.FinishedAt.Format("2006-01-02 15:04:05"))
			w.raw(`.`)
		}
		w.raw(`</p><div class="actions">`)
		for _, action := range []struct{ path, label string }{
			{"/admin/reload/", "Reload posts"},
			{"/admin/reload/authors/", "Reload authors"},
			{"/admin/logout/", "Log out"},
		} {
			w.raw(`<form method="post" action="`, action.path, `">`)
			csrfField(w, csrfToken)
			w.raw(`<button type="submit">`, action.label, `</button></form>`)
		}
		w.raw(`</div><table><thead><tr><th>Slug</th><th>Title</th><th>Published</th><th>Tags</th><th>Digest</th><th></th></tr></thead><tbody>`)
		for _, e := range d.Entries {
			w.raw(`<tr><td><a href="`)
			w.text(e.Link())
			w.raw(`">`)
			w.text(e.ID)
			w.raw(`</a></td><td>`)
			w.text(e.Data.Title)
			if e.Data.Draft {
				w.raw(` <em>(draft)</em>`)
			}
			w.raw(`</td><td>`)
			w.text(FormatDate(e.Data.Published))
			w.raw(`</td><td>`)
			w.text(JoinTags(e.Data.Tags))
			w.raw(`</td><td><code>`)
			w.text(e.Digest)
			w.raw(`</code></td><td><form method="post" action="/admin/reload/`)
			w.text(PathEscape(e.ID))
			w.raw(`/">`)
			csrfField(w, csrfToken)
			w.raw(`<button type="submit">Refresh</button></form></td></tr>`)
		}
		w.raw(`</tbody></table>`)
		return nil
	})
	return layout(PageMeta{Title: "Admin", OGType: "website"}, "", body)
}

func notFoundPage() templ.Component {
	body := fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<h1>Page not found</h1><p><a href="/">Back to the front page</a></p>`)
		return nil
	})
	return layout(PageMeta{Title: "Not found", OGType: "website"}, "", body)
}

func serverErrorPage() templ.Component {
	body := fragment(func(ctx context.Context, w *htmlWriter) error {
		w.raw(`<h1>Something went wrong</h1><p>Please try again later.</p>`)
		return nil
	})
	return layout(PageMeta{Title: "Error", OGType: "website"}, "", body)
}
