package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dusk-indust/marquee/internal/config"
	"github.com/dusk-indust/marquee/internal/sitedata"
)

// runInit writes the default marquee.yml and the sample content into the
// project directory. Existing files are kept unless -force is given.
func runInit(projectRoot string, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	force := flags.Bool("force", false, "overwrite existing files")
	if err := flags.Parse(args); err != nil {
		return err
	}

	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	write := func(dest string, data []byte) error {
		if !*force {
			if _, err := os.Stat(dest); err == nil {
				fmt.Fprintf(stdout, "  skipped %s (exists, use -force to overwrite)\n", dotRelative(abs, dest))
				return nil
			}
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		fmt.Fprintf(stdout, "  created %s\n", dotRelative(abs, dest))
		return nil
	}

	if err := write(filepath.Join(abs, config.FileNames[0]), sitedata.DefaultConfig); err != nil {
		return err
	}

	contentDir := filepath.Join(abs, config.Default().ContentDir)
	samples := sitedata.ContentFS()
	err = fs.WalkDir(samples, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(samples, path)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", path, err)
		}
		return write(filepath.Join(contentDir, filepath.FromSlash(path)), data)
	})
	if err != nil {
		return fmt.Errorf("copying sample content: %w", err)
	}

	fmt.Fprintln(stdout, "\nSetup complete. Run 'marquee play / /about' to watch the timelines.")
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
