package timeline

import (
	"context"
	"sync"
)

// Outcome is how a Completion resolved.
type Outcome int

const (
	OutcomePending    Outcome = iota
	OutcomeSettled            // every stage reported complete
	OutcomeTimedOut           // the wait bound elapsed first
	OutcomeCancelled          // the caller's context ended or Cancel was called
	OutcomeSkipped            // nothing was played
	OutcomeSuperseded         // a newer PlayDirection replaced this run
)

func (o Outcome) String() string {
	names := [...]string{"pending", "settled", "timed-out", "cancelled", "skipped", "superseded"}
	if o >= 0 && int(o) < len(names) {
		return names[o]
	}
	return "unknown"
}

// Completion is the signal returned by PlayDirection. It resolves exactly once.
type Completion struct {
	dir  Direction
	done chan struct{}

	mu      sync.Mutex
	outcome Outcome
	cleanup []func()
}

func newCompletion(dir Direction) *Completion {
	return &Completion{dir: dir, done: make(chan struct{})}
}

func resolvedCompletion(dir Direction, o Outcome) *Completion {
	c := newCompletion(dir)
	c.resolve(o)
	return c
}

// Direction returns the direction this completion tracks.
func (c *Completion) Direction() Direction { return c.dir }

// Done is closed once the completion resolves.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Outcome returns the resolution, or OutcomePending.
func (c *Completion) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Wait blocks until the completion resolves or ctx ends. ctx ending does not
// cancel the completion itself.
func (c *Completion) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return c.Outcome(), nil
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// Cancel resolves the completion as cancelled if it is still pending.
func (c *Completion) Cancel() { c.resolve(OutcomeCancelled) }

// onResolve registers fn to run once the completion resolves. It runs
// immediately if that has already happened.
func (c *Completion) onResolve(fn func()) {
	c.mu.Lock()
	if c.outcome != OutcomePending {
		c.mu.Unlock()
		fn()
		return
	}
	c.cleanup = append(c.cleanup, fn)
	c.mu.Unlock()
}

// resolve reports whether this call performed the resolution.
func (c *Completion) resolve(o Outcome) bool {
	c.mu.Lock()
	if c.outcome != OutcomePending {
		c.mu.Unlock()
		return false
	}
	c.outcome = o
	cleanup := c.cleanup
	c.cleanup = nil
	close(c.done)
	c.mu.Unlock()

	for _, fn := range cleanup {
		fn()
	}
	return true
}
