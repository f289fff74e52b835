package content

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/dusk-indust/marquee/internal/sitedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte("---\ntitle: Talks\npageType: content\norder: 2\n---\n\nSlides and recordings.\n")
	rec, err := Parse("content/talks.md", data)
	require.NoError(t, err)
	assert.Equal(t, "talks", rec.Slug)
	assert.Equal(t, "Talks", rec.Title)
	assert.Equal(t, "content", rec.PageType)
	assert.Equal(t, 2, rec.Order)
	assert.Equal(t, "Slides and recordings.", rec.Body)
	assert.Equal(t, "/talks", rec.Href())
}

func TestParse_TitleDefaultsToSlug(t *testing.T) {
	rec, err := Parse("notes.md", []byte("---\norder: 3\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, "notes", rec.Title)
	assert.Empty(t, rec.Body)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no frontmatter", "# Heading\n"},
		{"unterminated", "---\ntitle: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("x.md", []byte(tt.data))
			assert.ErrorIs(t, err, ErrNoFrontmatter)
		})
	}

	_, err := Parse("x.md", []byte("---\norder: [1\n---\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoFrontmatter)
}

func TestRecord_IndexHref(t *testing.T) {
	assert.Equal(t, "/", Record{Slug: IndexSlug}.Href())
}

func TestFSSource_Records(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/b.md":      {Data: []byte("---\ntitle: B\norder: 1\n---\nb")},
		"pages/a.md":      {Data: []byte("---\ntitle: A\norder: 1\n---\na")},
		"pages/first.md":  {Data: []byte("---\ntitle: First\n---\n")},
		"pages/draft.md":  {Data: []byte("---\ntitle: Draft\ndraft: true\n---\n")},
		"pages/notes.txt": {Data: []byte("ignored")},
	}

	recs, err := NewFSSource(fsys, "pages").Records(context.Background())
	require.NoError(t, err)

	var slugs []string
	for _, r := range recs {
		slugs = append(slugs, r.Slug)
	}
	assert.Equal(t, []string{"first", "a", "b"}, slugs)
}

func TestFSSource_BadFileFails(t *testing.T) {
	fsys := fstest.MapFS{
		"good.md": {Data: []byte("---\ntitle: Good\n---\n")},
		"bad.md":  {Data: []byte("no frontmatter")},
	}
	_, err := NewFSSource(fsys, "").Records(context.Background())
	assert.ErrorIs(t, err, ErrNoFrontmatter)
}

func TestFSSource_Embedded(t *testing.T) {
	recs, err := NewFSSource(sitedata.ContentFS(), ".").Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "index", recs[0].Slug)
	assert.Equal(t, "home", recs[0].PageType)
	for _, r := range recs {
		assert.False(t, r.Draft)
	}
}

func TestPublish_DuplicateSlug(t *testing.T) {
	_, err := StaticSource{{Slug: "a"}, {Slug: "a", Draft: true}}.Records(context.Background())
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}
