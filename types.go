package cmsloader

import (
	"time"

	"github.com/eringen/cmsloader/markdown"
)

// Image is an entry image with resolved dimensions.
type Image struct {
	Src    string `json:"src" yaml:"src"`
	Alt    string `json:"alt" yaml:"alt"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// EntryData is the front-matter-like data of a content entry. Optional
// fields are omitted from the encoded form when empty.
type EntryData struct {
	Title          string     `json:"title" yaml:"title"`
	Published      time.Time  `json:"published" yaml:"published"`
	Updated        *time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`
	Draft          bool       `json:"draft" yaml:"draft"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Author         string     `json:"author,omitempty" yaml:"author,omitempty"`
	Series         string     `json:"series,omitempty" yaml:"series,omitempty"`
	Tags           []string   `json:"tags" yaml:"tags"`
	CoverImage     *Image     `json:"coverImage,omitempty" yaml:"coverImage,omitempty"`
	CardImage      *Image     `json:"cardImage,omitempty" yaml:"cardImage,omitempty"`
	TOC            bool       `json:"toc" yaml:"toc"`
	SEOTitle       string     `json:"seoTitle,omitempty" yaml:"seoTitle,omitempty"`
	SEODescription string     `json:"seoDescription,omitempty" yaml:"seoDescription,omitempty"`
}

// Entry is one record of the content store. ID is the post slug.
type Entry struct {
	ID       string            `json:"id"`
	Data     EntryData         `json:"data"`
	Body     string            `json:"body"`
	Digest   string            `json:"digest"`
	Rendered markdown.Rendered `json:"rendered"`
}

// Link returns the public path of the entry.
func (e Entry) Link() string {
	return "/blog/" + e.ID + "/"
}

// Author is a CMS author with a markdown bio.
type Author struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Bio     string `json:"bio"`
	Picture string `json:"picture,omitempty"`
}

// LoadRun records one completed load.
type LoadRun struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Count      int       `json:"count"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
