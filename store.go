package cmsloader

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Sources recorded with each entry and load run.
const (
	SourceWebiny = "webiny"
	SourceLocal  = "local"
)

// Store wraps a SQLite database holding content entries, authors and the
// history of load runs.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the preview server read while a load writes; the busy
	// timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("cmsloader: migrate driver: %w", err)
	}
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("cmsloader: migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("cmsloader: migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("cmsloader: run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx writes entries inside a Rewrite transaction.
type Tx struct {
	tx     *sql.Tx
	source string
}

// Put inserts or replaces e. A later Put with the same ID wins. An ID that
// belongs to another source fails with ErrSourceConflict.
func (t *Tx) Put(ctx context.Context, e Entry) error {
	return putEntry(ctx, t.tx, t.source, e)
}

// Rewrite replaces every entry of source with what fn writes, atomically.
// If fn returns an error nothing is changed.
func (s *Store) Rewrite(ctx context.Context, source string, fn func(*Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE source = ?`, source); err != nil {
		return err
	}
	if err := fn(&Tx{tx: tx, source: source}); err != nil {
		return err
	}
	return tx.Commit()
}

// Upsert writes a single entry outside of a rewrite. Like Put it never takes
// over an entry of another source.
func (s *Store) Upsert(ctx context.Context, source string, e Entry) error {
	return putEntry(ctx, s.db, source, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func putEntry(ctx context.Context, db execer, source string, e Entry) error {
	var owner string
	err := db.QueryRowContext(ctx, `SELECT source FROM entries WHERE id = ?`, e.ID).Scan(&owner)
	switch {
	case err == nil && owner != source:
		return fmt.Errorf("%w: %s is a %s entry", ErrSourceConflict, e.ID, owner)
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("cmsloader: look up %s: %w", e.ID, err)
	}

	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("cmsloader: encode data for %s: %w", e.ID, err)
	}
	meta, err := json.Marshal(e.Rendered.Metadata)
	if err != nil {
		return fmt.Errorf("cmsloader: encode metadata for %s: %w", e.ID, err)
	}
	draft := 0
	if e.Data.Draft {
		draft = 1
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO entries (id, source, title, published, draft, tags, data, body, digest, html, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, source, e.Data.Title, formatTime(e.Data.Published), draft, joinTags(e.Data.Tags),
		string(data), e.Body, e.Digest, e.Rendered.HTML, string(meta))
	return err
}

const entryColumns = `id, data, body, digest, html, metadata`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var data, meta string
	if err := row.Scan(&e.ID, &data, &e.Body, &e.Digest, &e.Rendered.HTML, &meta); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
		return Entry{}, fmt.Errorf("cmsloader: decode data for %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &e.Rendered.Metadata); err != nil {
		return Entry{}, fmt.Errorf("cmsloader: decode metadata for %s: %w", e.ID, err)
	}
	return e, nil
}

// Get returns the entry with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// List returns non-draft entries ordered by publish date, newest first. If
// tag is non-empty, results are filtered to entries carrying that tag.
func (s *Store) List(ctx context.Context, tag string) ([]Entry, error) {
	if tag == "" {
		return s.query(ctx, `SELECT `+entryColumns+` FROM entries WHERE draft = 0 ORDER BY published DESC, id`)
	}
	return s.query(ctx, `SELECT `+entryColumns+` FROM entries WHERE draft = 0 AND instr(tags, ',' || ? || ',') > 0 ORDER BY published DESC, id`, normalizeTag(tag))
}

// ListAll returns every entry, drafts included, newest first.
func (s *Store) ListAll(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY published DESC, id`)
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListTags returns a sorted, deduplicated slice of all tags of non-draft entries.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM entries WHERE draft = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// SaveAuthors replaces the author table with authors.
func (s *Store) SaveAuthors(ctx context.Context, authors []Author) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM authors`); err != nil {
		return err
	}
	for _, a := range authors {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO authors (id, name, slug, bio, picture) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.Slug, a.Bio, a.Picture); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAuthors returns all authors ordered by name.
func (s *Store) ListAuthors(ctx context.Context) ([]Author, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug, bio, picture FROM authors ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.Bio, &a.Picture); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// RecordRun stores a completed load run.
func (s *Store) RecordRun(ctx context.Context, run LoadRun) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO load_runs (id, source, started_at, finished_at, count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Count)
	return err
}

// LastRun returns the most recently finished load run, or ErrNotFound.
func (s *Store) LastRun(ctx context.Context) (LoadRun, error) {
	var run LoadRun
	var started, finished string
	err := s.db.QueryRowContext(ctx, `SELECT id, source, started_at, finished_at, count FROM load_runs ORDER BY finished_at DESC LIMIT 1`).
		Scan(&run.ID, &run.Source, &started, &finished, &run.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return LoadRun{}, ErrNotFound
	}
	if err != nil {
		return LoadRun{}, err
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	return run, nil
}

// formatTime renders t in UTC so stored timestamps sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func joinTags(tags []string) string {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = normalizeTag(t); t != "" {
			normalized = append(normalized, t)
		}
	}
	return "," + strings.Join(normalized, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	return FilterEmpty(strings.Split(tagString, ","))
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
