// Package timeline coordinates multi-stage enter and exit animations for one
// page view. A Configuration names the stages and their dependency chains, a
// Store holds the state of each stage, and a Controller walks the chains,
// releasing stage k+1 only after stage k reports completion.
package timeline

// StageID names a stage. Each stage is owned by one view fragment.
type StageID string

// Status is the progress of a stage within its current direction.
type Status int

const (
	StatusIdle Status = iota
	StatusAnimating
	StatusComplete
)

func (s Status) String() string {
	names := [...]string{"idle", "animating", "complete"}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "idle":
		return StatusIdle, true
	case "animating":
		return StatusAnimating, true
	case "complete":
		return StatusComplete, true
	default:
		return 0, false
	}
}

// Direction controls which way a stage animates.
type Direction int

const (
	DirectionEnter Direction = iota
	DirectionExit
)

func (d Direction) String() string {
	switch d {
	case DirectionEnter:
		return "enter"
	case DirectionExit:
		return "exit"
	default:
		return "unknown"
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "enter":
		return DirectionEnter, true
	case "exit":
		return DirectionExit, true
	default:
		return 0, false
	}
}

// StageState is the observable state of one stage. The zero value, idle/enter,
// is also how an unseeded stage reads: not yet started.
type StageState struct {
	Status    Status
	Direction Direction
}

func (s StageState) String() string {
	return s.Status.String() + "/" + s.Direction.String()
}

// CanTransition reports whether moving from s to next respects the stage
// lifecycle. A direction change must land in idle. Within one direction the
// status only moves idle → animating → complete, plus the complete → idle
// reset that precedes a re-run.
func (s StageState) CanTransition(next StageState) bool {
	if next.Direction != s.Direction {
		return next.Status == StatusIdle
	}
	switch s.Status {
	case StatusIdle:
		return next.Status == StatusIdle || next.Status == StatusAnimating
	case StatusAnimating:
		return next.Status == StatusComplete
	case StatusComplete:
		return next.Status == StatusIdle || next.Status == StatusComplete
	default:
		return false
	}
}
