// Package cmsloader loads blog posts from a Webiny headless CMS into a local
// SQLite content store.
//
// Each load fetches every published post over GraphQL, joins its sections
// into one markdown body, resolves cover image dimensions through the file
// manager, validates the result against the entry schema, renders it to
// HTML and writes the entries in a single transaction. A preview server and
// RSS/sitemap output sit on top of the store.
package cmsloader

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/cmsloader/codeblocks"
	"github.com/eringen/cmsloader/markdown"
	"github.com/eringen/cmsloader/webiny"
)

// Loader moves CMS content into a Store.
type Loader struct {
	store      *Store
	logger     Logger
	resolve    func() (Config, error)
	httpClient *http.Client
	now        func() time.Time
	probe      bool
	fixerOpts  []codeblocks.Option
	renderer   *markdown.Renderer

	mu     sync.Mutex
	cfg    Config
	client *webiny.Client
	dims   *DimensionResolver
}

// New creates a Loader writing to store.
func New(store *Store, opts ...Option) *Loader {
	l := &Loader{
		store:      store,
		resolve:    ResolveConfig,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = NewLogger(false)
	}
	fixer := codeblocks.NewFixer(append([]codeblocks.Option{codeblocks.WithLogger(l.logger)}, l.fixerOpts...)...)
	l.renderer = markdown.NewRenderer(markdown.WithPostProcessor(fixer.Fix))
	return l
}

// Store returns the store the loader writes to.
func (l *Loader) Store() *Store {
	return l.store
}

// CheckConfig reports whether the CMS configuration resolves. It returns an
// error wrapping ErrConfig when it does not, which Load itself only logs.
func (l *Loader) CheckConfig() error {
	_, err := l.resolve()
	return err
}

// connect resolves the configuration and returns a client and dimension
// resolver for it, reusing both while the configuration is unchanged.
func (l *Loader) connect() (*webiny.Client, *DimensionResolver, error) {
	cfg, err := l.resolve()
	if err != nil {
		return nil, nil, err
	}
	if l.client == nil || cfg != l.cfg {
		l.cfg = cfg
		l.client = webiny.NewClient(cfg.GraphQLEndpoint, cfg.APIToken,
			webiny.WithHTTPClient(l.httpClient),
			webiny.WithFileManagerEndpoint(cfg.FileManagerEndpoint),
			webiny.WithLogger(l.logger),
		)
		var probe *ImageProbe
		if l.probe {
			probe = NewImageProbe(l.httpClient)
		}
		l.dims = NewDimensionResolver(l.client, probe, l.logger)
	}
	return l.client, l.dims, nil
}

// Load replaces all CMS entries in the store with the current published
// posts. Missing configuration is logged and is not an error; the store is
// left untouched. Any fetch, validation or store failure aborts the load
// without changing the store.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, dims, err := l.connect()
	if err != nil {
		l.logger.Errorf("Missing Webiny configuration. Set WEBINY_GRAPHQL_ENDPOINT and WEBINY_API_TOKEN")
		return nil
	}
	dims.Reset()

	run := LoadRun{ID: uuid.NewString(), Source: SourceWebiny, StartedAt: l.now()}

	l.logger.Infof("Fetching posts from Webiny CMS...")
	posts, err := client.ListPosts(ctx)
	if err != nil {
		l.logger.Errorf("Failed to load posts from Webiny: %v", err)
		return fmt.Errorf("cmsloader: load: %w", err)
	}
	l.logger.Infof("Fetched %d posts from Webiny", len(posts))

	tr := NewTransformer(dims, l.logger, l.now)
	err = l.store.Rewrite(ctx, SourceWebiny, func(tx *Tx) error {
		for _, post := range posts {
			e, err := tr.Transform(ctx, post)
			if err != nil {
				return err
			}
			if err := l.complete(ctx, &e); err != nil {
				return err
			}
			if err := tx.Put(ctx, e); err != nil {
				return fmt.Errorf("cmsloader: store %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		l.logger.Errorf("Failed to load posts from Webiny: %v", err)
		return fmt.Errorf("cmsloader: load: %w", err)
	}

	run.FinishedAt = l.now()
	run.Count = len(posts)
	if err := l.store.RecordRun(ctx, run); err != nil {
		l.logger.Warnf("Failed to record load run %s: %v", run.ID, err)
	}
	l.logger.Infof("Successfully loaded %d posts", len(posts))
	return nil
}

// Refresh reloads the single post with slug and upserts its entry.
func (l *Loader) Refresh(ctx context.Context, slug string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, dims, err := l.connect()
	if err != nil {
		return Entry{}, err
	}
	dims.Reset()

	post, err := client.GetPostBySlug(ctx, slug)
	if err != nil {
		return Entry{}, fmt.Errorf("cmsloader: refresh %s: %w", slug, err)
	}
	if post == nil {
		return Entry{}, fmt.Errorf("cmsloader: refresh %s: %w", slug, ErrNotFound)
	}

	e, err := NewTransformer(dims, l.logger, l.now).Transform(ctx, *post)
	if err != nil {
		return Entry{}, err
	}
	if err := l.complete(ctx, &e); err != nil {
		return Entry{}, err
	}
	if err := l.store.Upsert(ctx, SourceWebiny, e); err != nil {
		return Entry{}, fmt.Errorf("cmsloader: store %s: %w", e.ID, err)
	}
	l.logger.Infof("Refreshed post %s", e.ID)
	return e, nil
}

// complete validates e and fills in its digest and rendered form.
func (l *Loader) complete(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		return &ValidationError{ID: e.Data.Title, Issues: []ValidationIssue{{Location: "#/id", Message: "entry has no slug"}}}
	}
	if !ValidID(e.ID) {
		return &ValidationError{ID: e.ID, Issues: []ValidationIssue{{Location: "#/id", Message: "slug must be a single path segment"}}}
	}
	if err := ValidateData(e.ID, e.Data); err != nil {
		return err
	}
	e.Digest = Digest(e.Body)
	rendered, err := l.renderer.Render(ctx, e.Body)
	if err != nil {
		return fmt.Errorf("cmsloader: render %s: %w", e.ID, err)
	}
	e.Rendered = rendered
	return nil
}
