package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/dusk-indust/marquee/internal/timeline"
)

// DefaultDuration is used by TimerAnimator when a stage has no override.
const DefaultDuration = 400 * time.Millisecond

// Transition is a request to paint from one variant to another.
type Transition struct {
	Stage    timeline.StageID
	From     Variant
	To       Variant
	Duration time.Duration
	Easing   string
}

// Animator is the visual-transition primitive. It paints t and calls done
// when the paint finishes. Implementations may call done more than once or
// not at all; the Consumer tolerates both.
type Animator interface {
	Animate(ctx context.Context, t Transition, done func())
}

// AnimatorFunc adapts a function to Animator.
type AnimatorFunc func(ctx context.Context, t Transition, done func())

func (f AnimatorFunc) Animate(ctx context.Context, t Transition, done func()) { f(ctx, t, done) }

// TimerAnimator simulates painting by waiting for the transition's duration.
// It stands in for a real renderer in the CLI and in tests.
type TimerAnimator struct {
	mu      sync.Mutex
	painted []Transition
}

// Animate calls done after t.Duration unless ctx ends first.
func (a *TimerAnimator) Animate(ctx context.Context, t Transition, done func()) {
	a.mu.Lock()
	a.painted = append(a.painted, t)
	a.mu.Unlock()

	if t.Duration <= 0 {
		go done()
		return
	}
	// ctx outlives many runs; each run deregisters its hook when it fires.
	var stop func() bool
	armed := make(chan struct{})
	timer := time.AfterFunc(t.Duration, func() {
		<-armed
		stop()
		done()
	})
	stop = context.AfterFunc(ctx, func() { timer.Stop() })
	close(armed)
}

// Painted returns every transition requested so far.
func (a *TimerAnimator) Painted() []Transition {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Transition, len(a.painted))
	copy(out, a.painted)
	return out
}
