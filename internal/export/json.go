package export

import (
	"time"

	"github.com/dusk-indust/marquee/internal/config"
	"github.com/dusk-indust/marquee/internal/timeline"
)

// SiteExport is the top-level JSON export structure.
type SiteExport struct {
	ExportedAt   string       `json:"exportedAt"`
	DefaultPage  string       `json:"defaultPage"`
	StageTimeout string       `json:"stageTimeout"`
	GraceDelay   string       `json:"graceDelay"`
	Pages        []PageExport `json:"pages"`
}

// PageExport describes one page type's timeline.
type PageExport struct {
	Type   string        `json:"type"`
	Chains [][]string    `json:"chains"`
	Stages []StageExport `json:"stages"`
}

// StageExport describes one stage and its neighbours in enter order.
type StageExport struct {
	ID       string `json:"id"`
	Duration string `json:"duration"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// ExportTimelines builds a SiteExport from the configuration.
func ExportTimelines(cfg *config.SiteConfig) (*SiteExport, error) {
	timelines, err := cfg.Timelines()
	if err != nil {
		return nil, err
	}

	out := &SiteExport{
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		DefaultPage:  cfg.DefaultPage,
		StageTimeout: cfg.StageTimeout.Std().String(),
		GraceDelay:   cfg.Grace().String(),
	}

	for _, name := range cfg.PageTypes() {
		tl := timelines[name]
		pe := PageExport{Type: name}
		for _, chain := range tl.Chains(timeline.DirectionEnter) {
			ids := make([]string, len(chain))
			for i, id := range chain {
				ids[i] = string(id)
			}
			pe.Chains = append(pe.Chains, ids)
		}
		for _, id := range tl.Stages() {
			se := StageExport{ID: string(id), Duration: cfg.StageDuration(id).String()}
			if next, ok := tl.Next(id, timeline.DirectionEnter); ok {
				se.Next = string(next)
			}
			if prev, ok := tl.Previous(id, timeline.DirectionEnter); ok {
				se.Previous = string(prev)
			}
			pe.Stages = append(pe.Stages, se)
		}
		out.Pages = append(out.Pages, pe)
	}
	return out, nil
}

// Configurations returns the timelines in page-type order, for GenerateMermaid.
func Configurations(cfg *config.SiteConfig) ([]*timeline.Configuration, error) {
	timelines, err := cfg.Timelines()
	if err != nil {
		return nil, err
	}
	out := make([]*timeline.Configuration, 0, len(timelines))
	for _, name := range cfg.PageTypes() {
		out = append(out, timelines[name])
	}
	return out, nil
}
