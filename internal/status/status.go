// Package status summarises a mounted page's stages for the CLI and the MCP
// tools.
package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/marquee/internal/navigation"
	"github.com/dusk-indust/marquee/internal/site"
	"github.com/dusk-indust/marquee/internal/timeline"
)

// StageInfo describes the state of a single stage.
type StageInfo struct {
	ID        string `json:"id"`
	Chain     int    `json:"chain"`
	Position  int    `json:"position"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
}

// PageStatus is a point-in-time view of one page.
type PageStatus struct {
	Href     string      `json:"href"`
	Title    string      `json:"title"`
	PageType string      `json:"pageType"`
	Mode     string      `json:"mode"`
	Stages   []StageInfo `json:"stages"`
	// Settled is true when every stage is complete in the same direction.
	Settled bool `json:"settled"`
	// Direction is the settled direction, or the direction most stages
	// are in while a run is under way.
	Direction string `json:"direction"`
}

// Snapshot reads the page's store. A nil page yields a status with only the
// mode set.
func Snapshot(page *site.Page, mode navigation.Mode) PageStatus {
	ps := PageStatus{Mode: mode.String()}
	if page == nil {
		return ps
	}

	cfg := page.Controller.Configuration()
	ps.Href = page.Href()
	ps.Title = page.Record.Title
	ps.PageType = cfg.Page()

	store := page.Controller.Store()
	counts := map[timeline.Direction]int{}
	complete := 0
	for ci, chain := range cfg.Chains(timeline.DirectionEnter) {
		for pi, id := range chain {
			st, _ := store.Get(id)
			counts[st.Direction]++
			if st.Status == timeline.StatusComplete {
				complete++
			}
			ps.Stages = append(ps.Stages, StageInfo{
				ID:        string(id),
				Chain:     ci,
				Position:  pi,
				Status:    st.Status.String(),
				Direction: st.Direction.String(),
			})
		}
	}

	dir := timeline.DirectionEnter
	if counts[timeline.DirectionExit] > counts[timeline.DirectionEnter] {
		dir = timeline.DirectionExit
	}
	ps.Direction = dir.String()
	ps.Settled = complete == len(ps.Stages) && counts[dir] == len(ps.Stages)
	return ps
}

// Next returns the first stage that is not complete, or "" when settled.
func (ps PageStatus) Next() string {
	for _, si := range ps.Stages {
		if si.Status != timeline.StatusComplete.String() || si.Direction != ps.Direction {
			return si.ID
		}
	}
	return ""
}

// FormatTable writes a human-readable stage table.
func FormatTable(w io.Writer, ps PageStatus) error {
	var sb strings.Builder
	if ps.Href == "" {
		fmt.Fprintf(&sb, "No page mounted (mode %s).\n", ps.Mode)
		_, err := io.WriteString(w, sb.String())
		return err
	}

	fmt.Fprintf(&sb, "Page: %s (%s)  mode: %s\n", ps.Href, ps.PageType, ps.Mode)
	for _, si := range ps.Stages {
		marker := "  "
		if si.Status == timeline.StatusAnimating.String() {
			marker = "->"
		}
		fmt.Fprintf(&sb, "  %s chain %d #%d %-16s [%s/%s]\n", marker, si.Chain, si.Position, si.ID, si.Status, si.Direction)
	}
	if ps.Settled {
		fmt.Fprintf(&sb, "  All stages %s.\n", ps.Direction)
	} else if next := ps.Next(); next != "" {
		fmt.Fprintf(&sb, "  Waiting on %s.\n", next)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
