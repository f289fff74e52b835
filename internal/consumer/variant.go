// Package consumer implements the view-fragment side of the timeline: a
// Consumer watches exactly one stage, asks its Animator to paint the matching
// visual variant, and reports completion back to the controller once per
// animation run.
package consumer

import "github.com/dusk-indust/marquee/internal/timeline"

// Variant is the visual pose a fragment renders.
type Variant int

const (
	VariantEnterHidden Variant = iota
	VariantEnterVisible
	VariantExitVisible
	VariantExitHidden
)

func (v Variant) String() string {
	names := [...]string{"enter-hidden", "enter-visible", "exit-visible", "exit-hidden"}
	if v >= 0 && int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}

// Visible reports whether the variant shows the fragment.
func (v Variant) Visible() bool {
	return v == VariantEnterVisible || v == VariantExitVisible
}

// VariantFor derives the target variant from a stage state. Exit always
// targets the hidden pose because exit animations run toward hidden.
func VariantFor(st timeline.StageState) Variant {
	if st.Direction == timeline.DirectionExit {
		return VariantExitHidden
	}
	if st.Status == timeline.StatusIdle {
		return VariantEnterHidden
	}
	return VariantEnterVisible
}

// startVariant is the pose an animation in dir starts from.
func startVariant(dir timeline.Direction) Variant {
	if dir == timeline.DirectionExit {
		return VariantExitVisible
	}
	return VariantEnterHidden
}
