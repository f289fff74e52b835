package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/dusk-indust/marquee/internal/status"
)

func runStatus(ctx context.Context, p *project, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	href := p.records[0].Href()
	if fs.NArg() > 0 {
		href = fs.Arg(0)
	}

	s, err := p.newSite()
	if err != nil {
		return err
	}
	defer s.Close()

	page, err := s.Open(ctx, href)
	if err != nil {
		return err
	}
	if err := waitEntered(ctx, page); err != nil {
		return err
	}

	ps := status.Snapshot(page, s.Navigator().Mode())
	if !*asJSON {
		return status.FormatTable(stdout, ps)
	}
	out, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = stdout.Write(append(out, '\n'))
	return err
}
