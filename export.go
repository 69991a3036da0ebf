package cmsloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalMarkdown renders e as a markdown document with a YAML front
// matter header, the format LoadLocal reads back.
func MarshalMarkdown(e Entry) ([]byte, error) {
	header, err := yaml.Marshal(exportHeader{Slug: e.ID, EntryData: e.Data})
	if err != nil {
		return nil, fmt.Errorf("cmsloader: encode front matter for %s: %w", e.ID, err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(e.Body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

type exportHeader struct {
	Slug      string `yaml:"slug"`
	EntryData `yaml:",inline"`
}

// ValidID reports whether id can name a file of its own: non-empty, no path
// separators and not a dot segment.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return false
	}
	return filepath.Base(id) == id
}

// Export writes every stored entry to dir as <id>.md and returns how many
// files were written.
func (s *Store) Export(ctx context.Context, dir string) (int, error) {
	entries, err := s.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	for _, e := range entries {
		if !ValidID(e.ID) {
			return 0, fmt.Errorf("cmsloader: export %q: id is not a file name", e.ID)
		}
	}
	for _, e := range entries {
		out, err := MarshalMarkdown(e)
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(filepath.Join(dir, e.ID+".md"), out, 0o644); err != nil {
			return 0, fmt.Errorf("cmsloader: write %s: %w", e.ID, err)
		}
	}
	return len(entries), nil
}
