package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/marquee/internal/site"
	"github.com/dusk-indust/marquee/internal/timeline"
)

const feedBuffer = 256

// feedPrinter streams the stage changes of each mounted page. Changes are
// buffered by the page's feed and printed from the calling goroutine once a
// sequence resolves; the store has emitted every change of a run before the
// run's completion resolves.
type feedPrinter struct {
	w    io.Writer
	feed *timeline.Feed
}

func (fp *feedPrinter) attach(p *site.Page) {
	fp.close()
	fmt.Fprintln(fp.w, timeline.FormatPageHeader(p.Controller.Configuration().Page(), p.Href()))
	fp.feed = timeline.NewFeed(p.Controller.Store(), feedBuffer)
}

// drain prints every buffered change without blocking.
func (fp *feedPrinter) drain() {
	if fp.feed == nil {
		return
	}
	for {
		select {
		case ch, ok := <-fp.feed.Changes():
			if !ok {
				return
			}
			fmt.Fprintln(fp.w, timeline.FormatChange(ch))
		default:
			return
		}
	}
}

func (fp *feedPrinter) close() {
	if fp.feed != nil {
		fp.drain()
		fp.feed.Close()
		fp.feed = nil
	}
}

func runPlay(ctx context.Context, p *project, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	hrefs := fs.Args()
	if len(hrefs) == 0 {
		hrefs = []string{p.records[0].Href()}
	}

	s, err := p.newSite()
	if err != nil {
		return err
	}
	defer s.Close()

	fp := &feedPrinter{w: stdout}
	s.OnMount(fp.attach)
	defer fp.close()

	page, err := s.Open(ctx, hrefs[0])
	if err != nil {
		return err
	}
	if err := waitEntered(ctx, page); err != nil {
		return err
	}
	fp.drain()

	for _, href := range hrefs[1:] {
		if err := waitIdle(ctx, s); err != nil {
			return err
		}
		res, err := s.Navigate(ctx, href)
		if err != nil {
			fp.drain()
			return fmt.Errorf("navigate to %s: %w", href, err)
		}
		if err := waitEntered(ctx, s.Current()); err != nil {
			return err
		}
		fp.drain()
		fmt.Fprintf(stdout, "-> %s %s (exit %s)\n", res.Outcome, href, res.Exit)
	}
	return nil
}

// waitEntered blocks until the page's enter sequence resolves. A timed-out
// enter is reported but not fatal; the timeout itself is logged.
func waitEntered(ctx context.Context, page *site.Page) error {
	outcome, err := page.Entered.Wait(ctx)
	if err != nil {
		return err
	}
	if outcome == timeline.OutcomeCancelled {
		return errors.New("enter sequence cancelled")
	}
	return nil
}

// waitIdle waits for the navigation guard's grace delay to pass so the next
// request is not dropped.
func waitIdle(ctx context.Context, s *site.Site) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for s.Navigator().Navigating() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
