package cmsloader

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/cmsloader/markdown"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "content.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(id, title string, published time.Time, tags ...string) Entry {
	if tags == nil {
		tags = []string{}
	}
	return Entry{
		ID: id,
		Data: EntryData{
			Title:     title,
			Published: published,
			Tags:      tags,
			TOC:       true,
		},
		Body:   "# " + title,
		Digest: Digest("# " + title),
		Rendered: markdown.Rendered{
			HTML: "<h1 id=\"" + id + "\">" + title + "</h1>",
			Metadata: markdown.Metadata{
				Headings:   []markdown.Heading{{Depth: 1, Slug: id, Text: title}},
				ImagePaths: []string{},
			},
		},
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 12, 0, 0, 0, time.UTC)
}

func putAll(t *testing.T, s *Store, source string, entries ...Entry) {
	t.Helper()
	err := s.Rewrite(context.Background(), source, func(tx *Tx) error {
		for _, e := range entries {
			if err := tx.Put(context.Background(), e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestNewStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	putAll(t, s, SourceWebiny, testEntry("a", "A", day(1)))
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(context.Background(), "a"); err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
}

func TestPutAndGet(t *testing.T) {
	s := setupTestStore(t)
	updated := day(3)
	e := testEntry("hello-world", "Hello World", day(2), "Go", "Web")
	e.Data.Updated = &updated
	e.Data.Description = "First post"
	e.Data.CoverImage = &Image{Src: "https://cdn.example.com/files/ABC/cover.png", Alt: "Cover", Width: 800, Height: 600}
	putAll(t, s, SourceWebiny, e)

	got, err := s.Get(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Data.Title != "Hello World" {
		t.Errorf("Title = %q, want %q", got.Data.Title, "Hello World")
	}
	if !got.Data.Published.Equal(day(2)) {
		t.Errorf("Published = %v, want %v", got.Data.Published, day(2))
	}
	if got.Data.Updated == nil || !got.Data.Updated.Equal(updated) {
		t.Errorf("Updated = %v, want %v", got.Data.Updated, updated)
	}
	if got.Data.CoverImage == nil || got.Data.CoverImage.Width != 800 {
		t.Errorf("CoverImage = %+v, want width 800", got.Data.CoverImage)
	}
	if got.Digest != e.Digest {
		t.Errorf("Digest = %q, want %q", got.Digest, e.Digest)
	}
	if got.Rendered.HTML != e.Rendered.HTML {
		t.Errorf("HTML = %q, want %q", got.Rendered.HTML, e.Rendered.HTML)
	}
	if len(got.Rendered.Metadata.Headings) != 1 || got.Rendered.Metadata.Headings[0].Slug != "hello-world" {
		t.Errorf("Headings = %+v", got.Rendered.Metadata.Headings)
	}
	if len(got.Data.Tags) != 2 || got.Data.Tags[0] != "Go" {
		t.Errorf("Tags = %v, want [Go Web]", got.Data.Tags)
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestRewriteReplacesSource(t *testing.T) {
	s := setupTestStore(t)
	putAll(t, s, SourceWebiny, testEntry("old", "Old", day(1)))
	putAll(t, s, SourceLocal, testEntry("local", "Local", day(1)))
	putAll(t, s, SourceWebiny, testEntry("new", "New", day(2)))

	ctx := context.Background()
	if _, err := s.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old entry survived rewrite: %v", err)
	}
	if _, err := s.Get(ctx, "new"); err != nil {
		t.Errorf("new entry missing: %v", err)
	}
	if _, err := s.Get(ctx, "local"); err != nil {
		t.Errorf("entry of another source was removed: %v", err)
	}
}

func TestRewriteKeepsEntriesOfOtherSource(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	putAll(t, s, SourceWebiny, testEntry("hello", "From CMS", day(1)))

	err := s.Rewrite(ctx, SourceLocal, func(tx *Tx) error {
		return tx.Put(ctx, testEntry("hello", "From disk", day(2)))
	})
	if !errors.Is(err, ErrSourceConflict) {
		t.Fatalf("Rewrite error = %v, want ErrSourceConflict", err)
	}
	putAll(t, s, SourceLocal)

	got, err := s.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("CMS entry lost after local rewrites: %v", err)
	}
	if got.Data.Title != "From CMS" {
		t.Errorf("Title = %q, want %q", got.Data.Title, "From CMS")
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestUpsertRejectsOtherSource(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	putAll(t, s, SourceLocal, testEntry("notes", "Notes", day(1)))

	if err := s.Upsert(ctx, SourceWebiny, testEntry("notes", "CMS notes", day(2))); !errors.Is(err, ErrSourceConflict) {
		t.Fatalf("Upsert error = %v, want ErrSourceConflict", err)
	}
	got, _ := s.Get(ctx, "notes")
	if got.Data.Title != "Notes" {
		t.Errorf("Title = %q, want %q", got.Data.Title, "Notes")
	}
}

func TestRewriteRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	putAll(t, s, SourceWebiny, testEntry("keep", "Keep", day(1)))

	boom := errors.New("boom")
	err := s.Rewrite(context.Background(), SourceWebiny, func(tx *Tx) error {
		if err := tx.Put(context.Background(), testEntry("partial", "Partial", day(2))); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Rewrite error = %v, want boom", err)
	}

	ctx := context.Background()
	if _, err := s.Get(ctx, "keep"); err != nil {
		t.Errorf("previous entry lost after failed rewrite: %v", err)
	}
	if _, err := s.Get(ctx, "partial"); !errors.Is(err, ErrNotFound) {
		t.Errorf("partial write visible after failed rewrite: %v", err)
	}
}

func TestRewriteDuplicateIDLastWins(t *testing.T) {
	s := setupTestStore(t)
	putAll(t, s, SourceWebiny, testEntry("dup", "First", day(1)), testEntry("dup", "Second", day(1)))

	got, err := s.Get(context.Background(), "dup")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Data.Title != "Second" {
		t.Errorf("Title = %q, want %q", got.Data.Title, "Second")
	}
}

func TestUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	putAll(t, s, SourceWebiny, testEntry("a", "A", day(1)))
	if err := s.Upsert(ctx, SourceWebiny, testEntry("a", "A2", day(1))); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.Upsert(ctx, SourceWebiny, testEntry("b", "B", day(2))); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
	got, _ := s.Get(ctx, "a")
	if got.Data.Title != "A2" {
		t.Errorf("Title = %q, want %q", got.Data.Title, "A2")
	}
}

func TestListOrderAndDrafts(t *testing.T) {
	s := setupTestStore(t)
	draft := testEntry("draft", "Draft", day(9))
	draft.Data.Draft = true
	putAll(t, s, SourceWebiny,
		testEntry("older", "Older", day(1)),
		testEntry("newer", "Newer", day(5)),
		draft,
	)

	entries, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != "newer" || entries[1].ID != "older" {
		t.Errorf("order = [%s %s], want [newer older]", entries[0].ID, entries[1].ID)
	}

	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListAll returned %d entries, want 3", len(all))
	}
	if all[0].ID != "draft" {
		t.Errorf("ListAll first = %q, want %q", all[0].ID, "draft")
	}
}

func TestListByTag(t *testing.T) {
	s := setupTestStore(t)
	putAll(t, s, SourceWebiny,
		testEntry("go-post", "Go", day(1), "Go", "web"),
		testEntry("rust-post", "Rust", day(2), "rust"),
		testEntry("gopher", "Gopher", day(3), "gophers"),
	)

	entries, err := s.List(context.Background(), "go")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "go-post" {
		t.Errorf("List(go) = %v, want [go-post]", entryIDs(entries))
	}
}

func TestListTags(t *testing.T) {
	s := setupTestStore(t)
	draft := testEntry("draft", "Draft", day(1), "secret")
	draft.Data.Draft = true
	putAll(t, s, SourceWebiny,
		testEntry("a", "A", day(1), "Go", "web"),
		testEntry("b", "B", day(2), "go", "rust"),
		draft,
	)

	tags, err := s.ListTags(context.Background())
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	want := []string{"go", "rust", "web"}
	if len(tags) != len(want) {
		t.Fatalf("ListTags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestAuthors(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.SaveAuthors(ctx, []Author{{ID: "2", Name: "Zed"}, {ID: "1", Name: "Ann", Slug: "ann"}}); err != nil {
		t.Fatalf("SaveAuthors failed: %v", err)
	}
	if err := s.SaveAuthors(ctx, []Author{{ID: "1", Name: "Ann", Slug: "ann", Bio: "Writes"}}); err != nil {
		t.Fatalf("SaveAuthors failed: %v", err)
	}
	authors, err := s.ListAuthors(ctx)
	if err != nil {
		t.Fatalf("ListAuthors failed: %v", err)
	}
	if len(authors) != 1 {
		t.Fatalf("ListAuthors returned %d authors, want 1", len(authors))
	}
	if authors[0].Bio != "Writes" {
		t.Errorf("Bio = %q, want %q", authors[0].Bio, "Writes")
	}
}

func TestLoadRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.LastRun(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LastRun on empty store = %v, want ErrNotFound", err)
	}
	runs := []LoadRun{
		{ID: "r1", Source: SourceWebiny, StartedAt: day(1), FinishedAt: day(1).Add(time.Second), Count: 3},
		{ID: "r2", Source: SourceLocal, StartedAt: day(2), FinishedAt: day(2).Add(time.Second), Count: 5},
	}
	for _, r := range runs {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}
	last, err := s.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if last.ID != "r2" || last.Count != 5 || last.Source != SourceLocal {
		t.Errorf("LastRun = %+v, want r2", last)
	}
	if !last.FinishedAt.Equal(day(2).Add(time.Second)) {
		t.Errorf("FinishedAt = %v, want %v", last.FinishedAt, day(2).Add(time.Second))
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{",", nil},
		{",go,", []string{"go"}},
		{",go,web,", []string{"go", "web"}},
		{",go, web ,rust,", []string{"go", "web", "rust"}},
	}

	for _, tt := range tests {
		got := ParseTags(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseTags(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
