// Package content reads the site's page records: markdown files with a YAML
// frontmatter block naming the title, page type, and ordering.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoFrontmatter = errors.New("content: missing frontmatter")
	ErrDuplicateSlug = errors.New("content: duplicate slug")
)

// IndexSlug is the slug served at "/".
const IndexSlug = "index"

// maxReaders bounds concurrent file reads in FSSource.Records.
const maxReaders = 8

var delimiter = []byte("---")

// Record is one page of site content.
type Record struct {
	Slug        string `yaml:"-" json:"slug"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	PageType    string `yaml:"pageType,omitempty" json:"pageType,omitempty"`
	Order       int    `yaml:"order,omitempty" json:"order"`
	Draft       bool   `yaml:"draft,omitempty" json:"draft,omitempty"`
	Body        string `yaml:"-" json:"-"`
}

// Href is the path the record is served at.
func (r Record) Href() string {
	if r.Slug == IndexSlug {
		return "/"
	}
	return "/" + r.Slug
}

// Parse reads a record from a markdown file. name supplies the slug.
func Parse(name string, data []byte) (Record, error) {
	slug := strings.TrimSuffix(path.Base(name), path.Ext(name))

	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, delimiter) {
		return Record{}, fmt.Errorf("%w: %s", ErrNoFrontmatter, name)
	}
	rest := data[len(delimiter):]
	end := bytes.Index(rest, append([]byte("\n"), delimiter...))
	if end < 0 {
		return Record{}, fmt.Errorf("%w: %s: unterminated", ErrNoFrontmatter, name)
	}

	var rec Record
	if err := yaml.Unmarshal(rest[:end], &rec); err != nil {
		return Record{}, fmt.Errorf("content: %s: %w", name, err)
	}
	rec.Slug = slug
	if rec.Title == "" {
		rec.Title = slug
	}

	body := rest[end+1+len(delimiter):]
	rec.Body = strings.TrimSpace(string(body))
	return rec, nil
}

// Source lists the site's published records.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// FSSource reads *.md files from a directory of fsys.
type FSSource struct {
	fsys fs.FS
	dir  string
}

// NewFSSource returns a Source over the markdown files in dir.
func NewFSSource(fsys fs.FS, dir string) *FSSource {
	if dir == "" {
		dir = "."
	}
	return &FSSource{fsys: fsys, dir: dir}
}

// Records parses every markdown file in the directory, drops drafts, and
// sorts by Order then Slug.
func (s *FSSource) Records(ctx context.Context) ([]Record, error) {
	names, err := fs.Glob(s.fsys, path.Join(s.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("content: glob %s: %w", s.dir, err)
	}

	parsed := make([]Record, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxReaders)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(s.fsys, name)
			if err != nil {
				return fmt.Errorf("content: read %s: %w", name, err)
			}
			rec, err := Parse(name, data)
			if err != nil {
				return err
			}
			parsed[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Publish(parsed)
}

// Publish drops drafts, rejects duplicate slugs, and sorts the rest.
func Publish(records []Record) ([]Record, error) {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if seen[r.Slug] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, r.Slug)
		}
		seen[r.Slug] = true
		if r.Draft {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return out, nil
}

// StaticSource serves a fixed record set.
type StaticSource []Record

func (s StaticSource) Records(context.Context) ([]Record, error) {
	return Publish(s)
}
