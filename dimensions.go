package cmsloader

import (
	"context"
	"sync"

	"github.com/eringen/cmsloader/webiny"
)

// FileLookup fetches file manager metadata. *webiny.Client implements it.
type FileLookup interface {
	GetFile(ctx context.Context, id string) (*webiny.File, error)
}

// DimensionResolver resolves image dimensions by file identifier and
// memoizes successful lookups until Reset is called.
type DimensionResolver struct {
	mu     sync.Mutex
	memo   map[string]Dimensions
	files  FileLookup
	probe  *ImageProbe
	logger Logger
}

// NewDimensionResolver returns a resolver backed by files. probe may be nil.
func NewDimensionResolver(files FileLookup, probe *ImageProbe, logger Logger) *DimensionResolver {
	return &DimensionResolver{
		memo:   make(map[string]Dimensions),
		files:  files,
		probe:  probe,
		logger: logger,
	}
}

// Reset drops every memoized entry.
func (r *DimensionResolver) Reset() {
	r.mu.Lock()
	r.memo = make(map[string]Dimensions)
	r.mu.Unlock()
}

// Len returns the number of memoized entries.
func (r *DimensionResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memo)
}

func (r *DimensionResolver) cached(fileID string) (Dimensions, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.memo[fileID]
	return d, ok
}

func (r *DimensionResolver) remember(fileID string, d Dimensions) {
	r.mu.Lock()
	r.memo[fileID] = d
	r.mu.Unlock()
}

// Resolve returns the dimensions of fileID from the memo or the file
// manager. Failures are logged and never cached.
func (r *DimensionResolver) Resolve(ctx context.Context, fileID string) (Dimensions, bool) {
	if d, ok := r.cached(fileID); ok {
		return d, true
	}
	f, err := r.files.GetFile(ctx, fileID)
	if err != nil {
		r.logger.Errorf("Failed to fetch image dimensions for %s: %v", fileID, err)
		return Dimensions{}, false
	}
	if f == nil || f.Meta.Width <= 0 || f.Meta.Height <= 0 {
		return Dimensions{}, false
	}
	d := Dimensions{Width: f.Meta.Width, Height: f.Meta.Height}
	r.remember(fileID, d)
	return d, true
}

// ResolveImage resolves the dimensions of the image at src. URLs without a
// file identifier are not looked up. When the file manager misses and a
// probe is configured, the image header is fetched instead.
func (r *DimensionResolver) ResolveImage(ctx context.Context, src string) (Dimensions, bool) {
	fileID, ok := webiny.FileID(src)
	if !ok {
		return Dimensions{}, false
	}
	if d, ok := r.Resolve(ctx, fileID); ok {
		return d, true
	}
	if r.probe == nil {
		return Dimensions{}, false
	}
	d, err := r.probe.Probe(ctx, src)
	if err != nil {
		r.logger.Warnf("Failed to probe image %s: %v", src, err)
		return Dimensions{}, false
	}
	r.remember(fileID, d)
	return d, true
}
