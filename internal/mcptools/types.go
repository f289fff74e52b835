package mcptools

import "github.com/dusk-indust/marquee/internal/status"

// --- MCP tool types for `marquee serve` ---
// These let an agent or a test harness drive a site: open pages, follow
// links, and complete stages by hand.

// ListPagesInput is the input for the list_pages MCP tool.
type ListPagesInput struct {
	PageType string `json:"pageType,omitempty" jsonschema:"only list pages of this page type"`
}

// PageSummary is a brief overview of one page.
type PageSummary struct {
	Href        string `json:"href"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	PageType    string `json:"pageType"`
	Order       int    `json:"order"`
}

// ListPagesOutput is the result of the list_pages MCP tool.
type ListPagesOutput struct {
	Pages   []PageSummary `json:"pages"`
	Current string        `json:"current,omitempty"`
}

// OpenPageInput is the input for the open_page MCP tool.
type OpenPageInput struct {
	Href string `json:"href" jsonschema:"path of the page to load fresh, e.g. / or /about"`
}

// GetStageStatesInput is the input for the get_stage_states MCP tool.
type GetStageStatesInput struct{}

// StageStatesOutput is the result of get_stage_states and open_page.
type StageStatesOutput struct {
	Status status.PageStatus `json:"status"`
}

// NavigateInput is the input for the navigate MCP tool.
type NavigateInput struct {
	Href string `json:"href,omitempty" jsonschema:"destination path; ignored when back is set"`
	Back bool   `json:"back,omitempty" jsonschema:"navigate to the previous history entry instead"`
}

// NavigateOutput is the result of the navigate MCP tool.
type NavigateOutput struct {
	ID      string `json:"id,omitempty"`
	Href    string `json:"href"`
	Outcome string `json:"outcome"` // "navigated", "skipped" or "failed"
	Exit    string `json:"exit"`
	Current string `json:"current,omitempty"`
	Message string `json:"message,omitempty"`
}

// AdvanceStageInput is the input for the advance_stage MCP tool.
type AdvanceStageInput struct {
	Stage string `json:"stage" jsonschema:"id of the stage whose animation finished"`
}

// AdvanceStageOutput is the result of the advance_stage MCP tool.
type AdvanceStageOutput struct {
	Stage     string `json:"stage"`
	Advanced  bool   `json:"advanced"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
}

// GetEventsInput is the input for the get_events MCP tool.
type GetEventsInput struct {
	Scope   string `json:"scope,omitempty" jsonschema:"only events from this scope: timeline, navigation or site"`
	Outcome string `json:"outcome,omitempty" jsonschema:"only events with this outcome, e.g. skip, timeout, error"`
	Limit   int    `json:"limit,omitempty" jsonschema:"return at most this many of the most recent events"`
}

// EventSummary is one engine log event.
type EventSummary struct {
	Scope   string `json:"scope"`
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// GetEventsOutput is the result of the get_events MCP tool.
type GetEventsOutput struct {
	Events []EventSummary `json:"events"`
}
