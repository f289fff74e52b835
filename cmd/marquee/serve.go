package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/dusk-indust/marquee/internal/logging"
	"github.com/dusk-indust/marquee/internal/mcptools"
	"github.com/dusk-indust/marquee/internal/stream"
)

// recentEvents bounds the log history served by get_events.
const recentEvents = 500

func runServe(ctx context.Context, p *project, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("http", "", "serve streamable HTTP on this address instead of stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	recent := &logging.MemorySink{Max: recentEvents}
	s, err := p.newSite(recent)
	if err != nil {
		return err
	}
	defer s.Close()

	server := mcptools.NewSiteMCPServer(mcptools.NewSiteService(s, recent))
	if *addr == "" {
		return mcptools.RunStdio(ctx, server)
	}

	events := stream.NewBroadcaster(0)
	defer events.Close()
	s.OnMount(events.Attach)

	mux := http.NewServeMux()
	mux.Handle("/events", events)
	mux.Handle("/", mcptools.Handler(server))

	p.logger.Info("serving MCP over HTTP", "addr", *addr, "events", "/events")
	return mcptools.RunHTTP(ctx, mux, *addr)
}
