package mcptools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// version is set by the linker at build time.
var version = "dev"

const shutdownTimeout = 5 * time.Second

// NewSiteMCPServer creates an MCP server with the site tools registered.
func NewSiteMCPServer(svc *SiteService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "marquee",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_pages",
		Description: "List the site's published pages in display order, and the page currently mounted.",
	}, svc.ListPages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "open_page",
		Description: "Load a page fresh, as a first visit would. Its enter sequence plays and history is cleared.",
	}, svc.OpenPage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stage_states",
		Description: "Get the status and direction of every stage on the mounted page, and whether the page has settled.",
	}, svc.GetStageStates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "navigate",
		Description: "Follow an in-app link: the mounted page's stages exit in reverse, then the destination mounts and enters. A request made while another is in flight is skipped.",
	}, svc.Navigate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "advance_stage",
		Description: "Report that a stage's animation finished. Ignored unless the stage is animating; the next stage in its chain starts.",
	}, svc.AdvanceStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_events",
		Description: "Return recent engine log events (stage completions, navigation clicks, skips, timeouts), optionally filtered by scope and outcome.",
	}, svc.GetEvents)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}

// RunHTTP serves handler on addr until ctx is cancelled, then shuts the
// listener down gracefully. handler is usually Handler(server), possibly
// mounted on a mux beside other endpoints.
func RunHTTP(ctx context.Context, handler http.Handler, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcptools: serve %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
