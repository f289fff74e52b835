package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/dusk-indust/marquee/internal/export"
)

func runExport(p *project, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "json", "output format: json or mermaid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch *format {
	case "mermaid":
		cfgs, err := export.Configurations(p.cfg)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, export.GenerateMermaid(cfgs...))
		return err
	case "json":
		data, err := export.ExportTimelines(p.cfg)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = stdout.Write(append(out, '\n'))
		return err
	default:
		return fmt.Errorf("unknown export format %q", *format)
	}
}
