package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/marquee/internal/logging"
	"github.com/dusk-indust/marquee/internal/navigation"
	"github.com/dusk-indust/marquee/internal/site"
	"github.com/dusk-indust/marquee/internal/status"
	"github.com/dusk-indust/marquee/internal/timeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var ErrNoPage = errors.New("no page open; call open_page first")

// SiteService handles MCP tool calls against one Site.
type SiteService struct {
	site   *site.Site
	events *logging.MemorySink
}

// NewSiteService creates a SiteService for s. events is the sink the site
// logs into, read by get_events; it may be nil.
func NewSiteService(s *site.Site, events *logging.MemorySink) *SiteService {
	return &SiteService{site: s, events: events}
}

// ListPages returns the published pages in display order.
func (s *SiteService) ListPages(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListPagesInput,
) (*mcp.CallToolResult, ListPagesOutput, error) {
	out := ListPagesOutput{Pages: []PageSummary{}}
	for _, r := range s.site.Pages() {
		if input.PageType != "" && r.PageType != input.PageType {
			continue
		}
		out.Pages = append(out.Pages, PageSummary{
			Href:        r.Href(),
			Title:       r.Title,
			Description: r.Description,
			PageType:    r.PageType,
			Order:       r.Order,
		})
	}
	if p := s.site.Current(); p != nil {
		out.Current = p.Href()
	}
	return nil, out, nil
}

// OpenPage mounts a page as a fresh load and returns its initial states.
func (s *SiteService) OpenPage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OpenPageInput,
) (*mcp.CallToolResult, StageStatesOutput, error) {
	if input.Href == "" {
		return nil, StageStatesOutput{}, fmt.Errorf("href is required")
	}
	page, err := s.site.Open(ctx, input.Href)
	if err != nil {
		return nil, StageStatesOutput{}, err
	}
	return nil, StageStatesOutput{Status: status.Snapshot(page, s.site.Navigator().Mode())}, nil
}

// GetStageStates reports every stage of the mounted page.
func (s *SiteService) GetStageStates(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetStageStatesInput,
) (*mcp.CallToolResult, StageStatesOutput, error) {
	return nil, StageStatesOutput{Status: status.Snapshot(s.site.Current(), s.site.Navigator().Mode())}, nil
}

// Navigate runs the exit sequence of the mounted page and routes to the
// destination. A failed route is reported in the output, not as an error.
func (s *SiteService) Navigate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NavigateInput,
) (*mcp.CallToolResult, NavigateOutput, error) {
	if s.site.Current() == nil {
		return nil, NavigateOutput{}, ErrNoPage
	}
	if !input.Back && input.Href == "" {
		return nil, NavigateOutput{}, fmt.Errorf("href is required unless back is set")
	}

	var (
		r   navigation.Result
		err error
	)
	if input.Back {
		r, err = s.site.Back(ctx)
	} else {
		r, err = s.site.Navigate(ctx, input.Href)
	}
	out := NavigateOutput{ID: r.ID, Href: r.Href, Outcome: string(r.Outcome), Exit: r.Exit.String()}
	if errors.Is(err, site.ErrNoHistory) {
		return nil, NavigateOutput{}, err
	}
	if err != nil {
		out.Message = err.Error()
	}
	if p := s.site.Current(); p != nil {
		out.Current = p.Href()
	}
	return nil, out, nil
}

// AdvanceStage reports a finished animation for a stage of the mounted page.
func (s *SiteService) AdvanceStage(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AdvanceStageInput,
) (*mcp.CallToolResult, AdvanceStageOutput, error) {
	page := s.site.Current()
	if page == nil {
		return nil, AdvanceStageOutput{}, ErrNoPage
	}
	id := timeline.StageID(input.Stage)
	if !page.Controller.Configuration().Contains(id) {
		return nil, AdvanceStageOutput{}, fmt.Errorf("unknown stage %q on %s", input.Stage, page.Href())
	}

	advanced := page.Controller.AdvanceStage(id)
	st, _ := page.Controller.Store().Get(id)
	return nil, AdvanceStageOutput{
		Stage:     input.Stage,
		Advanced:  advanced,
		Status:    st.Status.String(),
		Direction: st.Direction.String(),
	}, nil
}

// GetEvents returns the most recent engine events, oldest first.
func (s *SiteService) GetEvents(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetEventsInput,
) (*mcp.CallToolResult, GetEventsOutput, error) {
	out := GetEventsOutput{Events: []EventSummary{}}
	if s.events == nil {
		return nil, out, nil
	}
	for _, ev := range s.events.Events() {
		if input.Scope != "" && ev.Scope != input.Scope {
			continue
		}
		if input.Outcome != "" && string(ev.Outcome) != input.Outcome {
			continue
		}
		out.Events = append(out.Events, EventSummary{
			Scope:   ev.Scope,
			Action:  ev.Action,
			Outcome: string(ev.Outcome),
			Detail:  ev.Detail,
		})
	}
	if input.Limit > 0 && len(out.Events) > input.Limit {
		out.Events = out.Events[len(out.Events)-input.Limit:]
	}
	return nil, out, nil
}
