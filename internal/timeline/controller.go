package timeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/marquee/internal/logging"
)

// DefaultTimeout bounds how long PlayDirection waits for stages to settle.
const DefaultTimeout = 3 * time.Second

const scope = "timeline"

// ModeReader reports whether the page was reached by an in-app transition.
type ModeReader interface {
	InApp() bool
}

// Options configures a Controller.
type Options struct {
	// Timeout bounds every PlayDirection run. Zero means DefaultTimeout.
	Timeout time.Duration
	// Logger receives stage completions and run outcomes. Nil discards them.
	Logger logging.Sink
	// Store lets callers supply the store; nil creates a new one.
	Store *Store
}

// Controller orchestrates the stages of one page view. It is the only writer
// of its Store; consumers read and subscribe, then report completion through
// AdvanceStage.
type Controller struct {
	cfg     *Configuration
	store   *Store
	log     logging.Sink
	timeout time.Duration
	initial Direction

	mu  sync.Mutex
	run *Completion
}

// NewController seeds the store with every configured stage in idle. The
// seeded direction is enter on a fresh load and exit (the hidden pose, no
// spontaneous entry) when mode reports an in-app transition.
func NewController(cfg *Configuration, mode ModeReader, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Store == nil {
		opts.Store = NewStore()
	}

	initial := DirectionEnter
	if mode != nil && mode.InApp() {
		initial = DirectionExit
	}

	c := &Controller{
		cfg:     cfg,
		store:   opts.Store,
		log:     logging.OrNop(opts.Logger),
		timeout: opts.Timeout,
		initial: initial,
	}
	c.store.Seed(StageState{Status: StatusIdle, Direction: initial}, cfg.Stages()...)
	return c
}

// Store returns the controller's stage store.
func (c *Controller) Store() *Store { return c.store }

// Configuration returns the page's timeline configuration.
func (c *Controller) Configuration() *Configuration { return c.cfg }

// Direction returns the direction the store was seeded with.
func (c *Controller) Direction() Direction { return c.initial }

// Timeout returns the wait bound applied to every run.
func (c *Controller) Timeout() time.Duration { return c.timeout }

// Start plays the enter sequence on a fresh load. After an in-app transition
// it plays nothing and returns a completion already resolved as skipped.
func (c *Controller) Start(ctx context.Context) *Completion {
	if c.initial != DirectionEnter {
		c.log.Log(logging.Event{
			Scope:   scope,
			Action:  "start",
			Outcome: logging.OutcomeSkip,
			Detail:  fmt.Sprintf("page=%s in-app mount, enter not forced", c.cfg.Page()),
		})
		return resolvedCompletion(DirectionEnter, OutcomeSkipped)
	}
	return c.PlayDirection(ctx, DirectionEnter)
}

// AdvanceStage marks id complete if it is animating and releases its chain
// successor in the same direction. Calls for a stage that is not animating
// are ignored, which absorbs duplicate completion callbacks. It reports
// whether the stage advanced.
func (c *Controller) AdvanceStage(id StageID) bool {
	var dir Direction
	advanced := c.store.Update(id, func(cur StageState, seeded bool) (StageState, bool) {
		if !seeded || !c.cfg.Contains(id) || cur.Status != StatusAnimating {
			return cur, false
		}
		dir = cur.Direction
		return StageState{Status: StatusComplete, Direction: cur.Direction}, true
	})
	if !advanced {
		st, _ := c.store.Get(id)
		c.log.Log(logging.Event{
			Scope:   scope,
			Action:  "advance",
			Outcome: logging.OutcomeSkip,
			Detail:  fmt.Sprintf("page=%s stage=%s state=%s", c.cfg.Page(), id, st),
		})
		return false
	}

	c.log.Log(logging.Event{
		Scope:   scope,
		Action:  "stage",
		Outcome: logging.OutcomeComplete,
		Detail:  fmt.Sprintf("page=%s stage=%s dir=%s", c.cfg.Page(), id, dir),
	})

	if next, ok := c.cfg.Next(id, dir); ok {
		c.release(next, dir)
	}
	return true
}

// PlayDirection resets every stage to idle in dir and starts the root of
// each chain. Stages already animating in dir are left running. The returned completion settles once every configured stage
// is complete in dir. It also resolves when the timeout elapses or ctx ends,
// so a stalled stage never blocks the caller for good. A run still pending
// from an earlier call resolves as superseded.
func (c *Controller) PlayDirection(ctx context.Context, dir Direction) *Completion {
	comp := newCompletion(dir)

	c.mu.Lock()
	prev := c.run
	c.run = comp
	c.mu.Unlock()
	if prev != nil && prev.resolve(OutcomeSuperseded) {
		c.logRun(prev.dir, logging.OutcomeSkip, "superseded")
	}

	check := func() {
		if c.settled(dir) && comp.resolve(OutcomeSettled) {
			c.logRun(dir, logging.OutcomeSuccess, "settled")
		}
	}
	unsubscribe := c.store.Subscribe(func(ch Change) {
		if ch.Next.Status == StatusComplete && ch.Next.Direction == dir {
			check()
		}
	})
	timer := time.AfterFunc(c.timeout, func() {
		if comp.resolve(OutcomeTimedOut) {
			c.logRun(dir, logging.OutcomeTimeout, "pending="+strings.Join(c.pending(dir), ","))
		}
	})
	stopCtx := context.AfterFunc(ctx, func() {
		if comp.resolve(OutcomeCancelled) {
			c.logRun(dir, logging.OutcomeSkip, "cancelled: "+context.Cause(ctx).Error())
		}
	})
	comp.onResolve(func() {
		unsubscribe()
		timer.Stop()
		stopCtx()
	})

	c.logRun(dir, logging.OutcomeStart, fmt.Sprintf("stages=%d", c.cfg.Len()))

	// A stage still animating in dir keeps its run; release skips it and
	// its consumer's pending completion advances the chain as usual.
	reset := StageState{Status: StatusIdle, Direction: dir}
	for _, id := range c.cfg.Stages() {
		c.store.Update(id, func(cur StageState, seeded bool) (StageState, bool) {
			return reset, !seeded || cur.CanTransition(reset)
		})
	}
	for _, root := range c.cfg.Roots(dir) {
		c.release(root, dir)
	}

	check()
	return comp
}

// release moves id from idle to animating if it is waiting in dir.
func (c *Controller) release(id StageID, dir Direction) {
	c.store.Update(id, func(cur StageState, seeded bool) (StageState, bool) {
		if !seeded || cur.Direction != dir || cur.Status != StatusIdle {
			return cur, false
		}
		return StageState{Status: StatusAnimating, Direction: dir}, true
	})
}

func (c *Controller) settled(dir Direction) bool {
	for _, id := range c.cfg.Stages() {
		st, ok := c.store.Get(id)
		if !ok || st.Status != StatusComplete || st.Direction != dir {
			return false
		}
	}
	return true
}

func (c *Controller) pending(dir Direction) []string {
	var out []string
	for _, id := range c.cfg.Stages() {
		st, _ := c.store.Get(id)
		if st.Status != StatusComplete || st.Direction != dir {
			out = append(out, string(id)+"="+st.String())
		}
	}
	return out
}

func (c *Controller) logRun(dir Direction, outcome logging.Outcome, detail string) {
	c.log.Log(logging.Event{
		Scope:   scope,
		Action:  "play-" + dir.String(),
		Outcome: outcome,
		Detail:  fmt.Sprintf("page=%s %s", c.cfg.Page(), detail),
	})
}
