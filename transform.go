package cmsloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/eringen/cmsloader/webiny"
)

const (
	defaultTitle       = "Untitled"
	defaultCoverAlt    = "Cover image"
	defaultCardAlt     = "Card image"
	defaultSectionAlt  = "Section image"
	sectionSeparator   = "\n\n---\n\n"
	digestLength       = 16
	defaultCoverWidth  = 1200
	defaultCoverHeight = 630
	defaultCardWidth   = 320
	defaultCardHeight  = 320
)

// DimensionSource resolves image dimensions from an image URL.
type DimensionSource interface {
	ResolveImage(ctx context.Context, src string) (Dimensions, bool)
}

// Transformer converts CMS posts into content entries.
type Transformer struct {
	dims   DimensionSource
	logger Logger
	now    func() time.Time
}

// NewTransformer returns a Transformer. A nil now defaults to time.Now.
func NewTransformer(dims DimensionSource, logger Logger, now func() time.Time) *Transformer {
	if now == nil {
		now = time.Now
	}
	return &Transformer{dims: dims, logger: logger, now: now}
}

// Transform builds the entry for post: ID, Data and Body. Digest and
// Rendered are filled in by the loader.
func (t *Transformer) Transform(ctx context.Context, post webiny.Post) (Entry, error) {
	data := EntryData{
		Title:          post.Headline,
		Published:      t.published(post),
		Draft:          false,
		Description:    post.Description,
		Author:         post.AuthorName(),
		Series:         post.Series,
		Tags:           post.Tags,
		TOC:            true,
		SEOTitle:       post.SeoHeadline,
		SEODescription: post.SeoDescription,
	}
	if data.Title == "" {
		data.Title = defaultTitle
	}
	if data.Tags == nil {
		data.Tags = []string{}
	}
	if post.EditedDateTime != "" {
		if updated, err := dateparse.ParseIn(post.EditedDateTime, time.UTC); err == nil {
			data.Updated = &updated
		} else {
			t.logger.Warnf("Ignoring unparseable postEditedDateTime %q for %s: %v", post.EditedDateTime, post.Slug, err)
		}
	}

	if post.HeadlineImage != "" {
		alt := post.HeadlineImageAltText
		if alt == "" {
			alt = defaultCoverAlt
		}
		data.CoverImage = t.image(ctx, post.HeadlineImage, alt, Dimensions{defaultCoverWidth, defaultCoverHeight})
	}
	if post.HeadlineImageSmall != "" {
		alt := post.HeadlineImageAltText
		if alt == "" {
			alt = defaultCardAlt
		}
		data.CardImage = t.image(ctx, post.HeadlineImageSmall, alt, Dimensions{defaultCardWidth, defaultCardHeight})
	}

	return Entry{
		ID:   post.Slug,
		Data: data,
		Body: SectionsToMarkdown(post.Sections),
	}, nil
}

func (t *Transformer) published(post webiny.Post) time.Time {
	if post.WrittenDateTime != "" {
		ts, err := dateparse.ParseIn(post.WrittenDateTime, time.UTC)
		if err == nil {
			return ts
		}
		t.logger.Warnf("Unparseable postWrittenDateTime %q for %s, using current time: %v", post.WrittenDateTime, post.Slug, err)
		return t.now()
	}
	t.logger.Warnf("Post %s has no postWrittenDateTime, using current time", post.Slug)
	return t.now()
}

func (t *Transformer) image(ctx context.Context, src, alt string, fallback Dimensions) *Image {
	d := fallback
	if t.dims != nil {
		if got, ok := t.dims.ResolveImage(ctx, src); ok {
			d = got
		}
	}
	return &Image{Src: src, Alt: alt, Width: d.Width, Height: d.Height}
}

// SectionsToMarkdown joins post sections into one markdown body. A section
// image is appended to its text; sections with neither are dropped.
func SectionsToMarkdown(sections []webiny.Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		content := s.Content
		if s.Image != "" {
			alt := s.ImageDescription
			if alt == "" {
				alt = defaultSectionAlt
			}
			content += "\n\n![" + alt + "](" + s.Image + ")"
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, sectionSeparator)
}

// Digest returns the first 16 hex characters of the SHA-256 of body.
func Digest(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])[:digestLength]
}
