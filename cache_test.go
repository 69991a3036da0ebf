package cmsloader

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEntryCacheListAndTags(t *testing.T) {
	s := setupTestStore(t)
	putAll(t, s, SourceWebiny,
		testEntry("a", "A", day(1), "Go"),
		testEntry("b", "B", day(2), "web"),
	)
	c := NewEntryCache(s, time.Minute)

	entries, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if ids := entryIDs(entries); len(ids) != 2 || ids[0] != "b" {
		t.Errorf("List = %v, want [b a]", ids)
	}
	tagged, err := c.List(context.Background(), "go")
	if err != nil {
		t.Fatalf("List(go) failed: %v", err)
	}
	if ids := entryIDs(tagged); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("List(go) = %v, want [a]", ids)
	}
	tags, err := c.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("Tags = %v, want 2 tags", tags)
	}
}

func TestEntryCacheServesStaleUntilInvalidated(t *testing.T) {
	s := setupTestStore(t)
	putAll(t, s, SourceWebiny, testEntry("a", "A", day(1)))
	c := NewEntryCache(s, time.Hour)

	if _, err := c.Get(context.Background(), "a"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	putAll(t, s, SourceWebiny, testEntry("b", "B", day(2)))

	if _, err := c.Get(context.Background(), "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(b) before Invalidate = %v, want ErrNotFound", err)
	}
	c.Invalidate()
	if _, err := c.Get(context.Background(), "b"); err != nil {
		t.Errorf("Get(b) after Invalidate failed: %v", err)
	}
	if _, err := c.Get(context.Background(), "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(a) after Invalidate = %v, want ErrNotFound", err)
	}
}

func TestEntryCacheExpires(t *testing.T) {
	s := setupTestStore(t)
	c := NewEntryCache(s, time.Nanosecond)

	entries, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("List on empty store = %#v, want empty slice", entries)
	}
	putAll(t, s, SourceWebiny, testEntry("a", "A", day(1)))
	time.Sleep(time.Millisecond)
	if _, err := c.Get(context.Background(), "a"); err != nil {
		t.Errorf("Get after expiry failed: %v", err)
	}
}
