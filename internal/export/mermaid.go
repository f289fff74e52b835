package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/marquee/internal/timeline"
)

// GenerateMermaid produces a Mermaid graph TD diagram of one or more
// timelines. Each page type becomes a subgraph; chain links become arrows
// in enter order.
func GenerateMermaid(cfgs ...*timeline.Configuration) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for pi, cfg := range cfgs {
		if cfg == nil {
			continue
		}
		nodeID := func(id timeline.StageID) string {
			return fmt.Sprintf("P%dS%d", pi, indexOf(cfg, id))
		}

		sb.WriteString(fmt.Sprintf("  subgraph P%d[\"%.40s\"]\n", pi, cfg.Page()))
		for _, id := range cfg.Stages() {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", nodeID(id), id))
		}
		for _, chain := range cfg.Chains(timeline.DirectionEnter) {
			for i := 1; i < len(chain); i++ {
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(chain[i-1]), nodeID(chain[i])))
			}
		}
		sb.WriteString("  end\n")
	}

	return sb.String()
}

func indexOf(cfg *timeline.Configuration, id timeline.StageID) int {
	for i, s := range cfg.Stages() {
		if s == id {
			return i
		}
	}
	return -1
}
