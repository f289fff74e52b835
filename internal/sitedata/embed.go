// Package sitedata embeds the default site configuration and a small sample
// content set. `marquee init` writes them into a project and the CLI falls
// back to them when a project has none of its own.
package sitedata

import (
	"embed"
	"io/fs"
)

// DefaultConfig is the default marquee.yml.
//
//go:embed marquee.yml
var DefaultConfig []byte

//go:embed content/*.md
var contentFS embed.FS

// ContentFS returns the sample content rooted at the content directory.
func ContentFS() fs.FS {
	sub, err := fs.Sub(contentFS, "content")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}
