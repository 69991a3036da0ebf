package cmsloader

import (
	"context"
	"sync"
	"time"
)

// EntryCache is an in-memory cache of published entries and tags with TTL.
type EntryCache struct {
	mu      sync.RWMutex
	entries []Entry
	tags    []string
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewEntryCache creates an EntryCache backed by the given Store.
func NewEntryCache(s *Store, ttl time.Duration) *EntryCache {
	return &EntryCache{store: s, ttl: ttl}
}

func (c *EntryCache) valid() bool {
	return c.entries != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *EntryCache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *EntryCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	entries, err := c.store.List(ctx, "")
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	c.entries = entries
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached entries and tags after ensuring the cache is
// fresh. It tries a read lock first and only takes the write lock to reload.
func (c *EntryCache) ensureLoaded(ctx context.Context) ([]Entry, []string, error) {
	c.mu.RLock()
	if c.valid() {
		entries, tags := c.entries, c.tags
		c.mu.RUnlock()
		return entries, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.entries, c.tags, nil
}

// List returns published entries, optionally filtered by tag.
func (c *EntryCache) List(ctx context.Context, tag string) ([]Entry, error) {
	entries, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return entries, nil
	}
	normalized := normalizeTag(tag)
	var filtered []Entry
	for _, e := range entries {
		for _, t := range e.Data.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, e)
				break
			}
		}
	}
	return filtered, nil
}

// Tags returns all unique tags of published entries.
func (c *EntryCache) Tags(ctx context.Context) ([]string, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// Get returns a single published entry by ID from the cache.
func (c *EntryCache) Get(ctx context.Context, id string) (Entry, error) {
	entries, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}
