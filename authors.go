package cmsloader

import (
	"context"
	"fmt"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/google/uuid"

	"github.com/eringen/cmsloader/webiny"
)

// SourceAuthors marks load runs that refreshed the author table.
const SourceAuthors = "authors"

var (
	bioConverterOnce sync.Once
	bioConverter     *md.Converter
)

func converter() *md.Converter {
	bioConverterOnce.Do(func() {
		bioConverter = md.NewConverter("", true, nil)
	})
	return bioConverter
}

// BioMarkdown converts an author bio to markdown. Bios without markup are
// returned trimmed.
func BioMarkdown(bio string) (string, error) {
	bio = strings.TrimSpace(bio)
	if !strings.Contains(bio, "<") {
		return bio, nil
	}
	out, err := converter().ConvertString(bio)
	if err != nil {
		return "", fmt.Errorf("cmsloader: convert bio: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// authorFromCMS maps a CMS author onto the stored form.
func authorFromCMS(a webiny.Author) (Author, error) {
	bio, err := BioMarkdown(a.Bio)
	if err != nil {
		return Author{}, err
	}
	slug := a.Slug
	if slug == "" {
		slug = Slugify(a.Name)
	}
	id := a.EntryID
	if id == "" {
		id = a.ID
	}
	return Author{
		ID:      id,
		Name:    a.Name,
		Slug:    slug,
		Bio:     bio,
		Picture: a.Picture,
	}, nil
}

// LoadAuthors replaces the stored authors with every CMS author and
// returns how many were written.
func (l *Loader) LoadAuthors(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, _, err := l.connect()
	if err != nil {
		return 0, err
	}
	started := l.now()

	cmsAuthors, err := client.ListAuthors(ctx)
	if err != nil {
		return 0, fmt.Errorf("cmsloader: load authors: %w", err)
	}
	authors := make([]Author, 0, len(cmsAuthors))
	for _, a := range cmsAuthors {
		author, err := authorFromCMS(a)
		if err != nil {
			return 0, fmt.Errorf("cmsloader: author %s: %w", a.ID, err)
		}
		authors = append(authors, author)
	}
	if err := l.store.SaveAuthors(ctx, authors); err != nil {
		return 0, fmt.Errorf("cmsloader: save authors: %w", err)
	}

	run := LoadRun{ID: uuid.NewString(), Source: SourceAuthors, StartedAt: started, FinishedAt: l.now(), Count: len(authors)}
	if err := l.store.RecordRun(ctx, run); err != nil {
		l.logger.Warnf("Failed to record load run %s: %v", run.ID, err)
	}
	l.logger.Infof("Successfully loaded %d authors", len(authors))
	return len(authors), nil
}
