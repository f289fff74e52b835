// Package navigation gates page-to-page transitions: it records whether the
// current page view came from a fresh load or an in-app transition, holds the
// reentrancy guard that lets only one exit sequence run at a time, and
// delegates the actual route change to a Router once exit animations settle.
package navigation

import "sync/atomic"

// Mode distinguishes a fresh page load from an in-flight in-app transition.
type Mode int32

const (
	ModeIdle Mode = iota
	ModeInApp
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeInApp:
		return "in-app"
	default:
		return "unknown"
	}
}

// ModeState holds the current Mode for one page lifetime. Any number of
// readers may call Load; only the Navigator that owns it writes.
type ModeState struct {
	v atomic.Int32
}

// Load returns the current mode.
func (s *ModeState) Load() Mode { return Mode(s.v.Load()) }

// InApp reports whether an in-app transition is in flight.
func (s *ModeState) InApp() bool { return s.Load() == ModeInApp }

func (s *ModeState) set(m Mode) { s.v.Store(int32(m)) }
