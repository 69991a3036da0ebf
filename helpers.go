package cmsloader

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts a title to a URL-safe slug. Accented letters are folded
// to their base letter.
func Slugify(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FilterRelatedEntries finds entries that share at least one tag with current.
func FilterRelatedEntries(current Entry, entries []Entry) []Entry {
	tagSet := make(map[string]struct{})
	for _, t := range current.Data.Tags {
		if tag := normalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []Entry
	for _, e := range entries {
		if e.ID == current.ID {
			continue
		}
		for _, t := range e.Data.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				related = append(related, e)
				break
			}
		}
	}
	return related
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// PathEscape escapes a string for use in a URL path.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// FormatDate formats t the way the blog shows dates, e.g. 15.1.2025.
func FormatDate(t time.Time) string {
	return t.Format("2.1.2006")
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema.
func WebsiteJsonLD(cfg ServerConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(e Entry, cfg ServerConfig) string {
	entryURL := BuildURL(cfg.URL, "blog", e.ID)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      e.Data.Title,
		"description":   e.Data.Description,
		"datePublished": e.Data.Published.Format(time.RFC3339),
		"url":           entryURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   entryURL,
		},
	}
	if e.Data.Updated != nil {
		data["dateModified"] = e.Data.Updated.Format(time.RFC3339)
	}
	if e.Data.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  e.Data.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if img := e.Data.CoverImage; img != nil {
		data["image"] = map[string]interface{}{
			"@type":  "ImageObject",
			"url":    img.Src,
			"width":  img.Width,
			"height": img.Height,
		}
	}
	if len(e.Data.Tags) > 0 {
		data["keywords"] = strings.Join(e.Data.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
