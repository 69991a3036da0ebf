package cmsloader

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
)

// localFrontMatter is the YAML header of a local markdown entry.
type localFrontMatter struct {
	Title          string   `yaml:"title"`
	Slug           string   `yaml:"slug"`
	Published      string   `yaml:"published"`
	Date           string   `yaml:"date"`
	Updated        string   `yaml:"updated"`
	Draft          bool     `yaml:"draft"`
	Description    string   `yaml:"description"`
	Author         string   `yaml:"author"`
	Series         string   `yaml:"series"`
	Tags           []string `yaml:"tags"`
	CoverImage     *Image   `yaml:"coverImage"`
	CardImage      *Image   `yaml:"cardImage"`
	TOC            *bool    `yaml:"toc"`
	SEOTitle       string   `yaml:"seoTitle"`
	SEODescription string   `yaml:"seoDescription"`
}

// ParseLocal parses a markdown file with a YAML front matter header into an
// entry. name is the file name; its base without extension is the entry ID
// unless the header sets a slug. modified is used when no date is given.
func ParseLocal(name string, source []byte, modified time.Time) (Entry, error) {
	var fm localFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &fm)
	if err != nil {
		return Entry{}, fmt.Errorf("cmsloader: parse front matter of %s: %w", name, err)
	}

	id := fm.Slug
	if id == "" {
		base := filepath.Base(name)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}

	data := EntryData{
		Title:          fm.Title,
		Draft:          fm.Draft,
		Description:    fm.Description,
		Author:         fm.Author,
		Series:         fm.Series,
		Tags:           fm.Tags,
		CoverImage:     fm.CoverImage,
		CardImage:      fm.CardImage,
		TOC:            true,
		SEOTitle:       fm.SEOTitle,
		SEODescription: fm.SEODescription,
	}
	if fm.TOC != nil {
		data.TOC = *fm.TOC
	}
	if data.Tags == nil {
		data.Tags = []string{}
	}

	published := fm.Published
	if published == "" {
		published = fm.Date
	}
	if published == "" {
		data.Published = modified
	} else if data.Published, err = dateparse.ParseIn(published, time.UTC); err != nil {
		return Entry{}, fmt.Errorf("cmsloader: %s: published %q: %w", name, published, err)
	}
	if fm.Updated != "" {
		updated, err := dateparse.ParseIn(fm.Updated, time.UTC)
		if err != nil {
			return Entry{}, fmt.Errorf("cmsloader: %s: updated %q: %w", name, fm.Updated, err)
		}
		data.Updated = &updated
	}

	return Entry{
		ID:   id,
		Data: data,
		Body: strings.TrimSpace(string(body)),
	}, nil
}

func isMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

// LoadLocal replaces all local entries with the *.md and *.mdx files found
// under dir. Like Load, it either writes every file or nothing.
func (l *Loader) LoadLocal(ctx context.Context, dir string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isMarkdownFile(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cmsloader: read %s: %w", dir, err)
	}
	sort.Strings(paths)

	run := LoadRun{ID: uuid.NewString(), Source: SourceLocal, StartedAt: l.now()}
	err = l.store.Rewrite(ctx, SourceLocal, func(tx *Tx) error {
		for _, path := range paths {
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("cmsloader: read %s: %w", path, err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("cmsloader: stat %s: %w", path, err)
			}
			e, err := ParseLocal(path, source, info.ModTime())
			if err != nil {
				return err
			}
			if err := l.complete(ctx, &e); err != nil {
				return err
			}
			if err := tx.Put(ctx, e); err != nil {
				return fmt.Errorf("cmsloader: store %s: %w", e.ID, err)
			}
			l.logger.Debugf("Loaded local entry %s from %s", e.ID, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	run.FinishedAt = l.now()
	run.Count = len(paths)
	if err := l.store.RecordRun(ctx, run); err != nil {
		l.logger.Warnf("Failed to record load run %s: %v", run.ID, err)
	}
	l.logger.Infof("Successfully loaded %d local entries from %s", len(paths), dir)
	return len(paths), nil
}
