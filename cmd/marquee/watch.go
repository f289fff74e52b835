package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dusk-indust/marquee/internal/stream"
	"github.com/dusk-indust/marquee/internal/timeline"
)

// runWatch prints the stage changes streamed by `marquee serve -http`.
func runWatch(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	url := fs.String("url", "http://localhost:8080/events", "events endpoint of a running server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := stream.Watch(ctx, nil, *url)
	if err != nil {
		return err
	}

	var href string
	for ev := range events {
		if ev.Err != nil {
			fmt.Fprintf(stdout, "  ! %v\n", ev.Err)
			continue
		}
		if ev.Href != href {
			href = ev.Href
			fmt.Fprintln(stdout, timeline.FormatPageHeader(ev.Page, ev.Href))
		}
		fmt.Fprintln(stdout, timeline.FormatChange(ev.Change()))
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
