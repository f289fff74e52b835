package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/dusk-indust/marquee/internal/timeline"
)

// StateSource is the read side of a stage store.
type StateSource interface {
	Get(id timeline.StageID) (timeline.StageState, bool)
	SubscribeStage(id timeline.StageID, fn timeline.Listener) (unsubscribe func())
}

// Advancer receives completion reports. *timeline.Controller implements it.
type Advancer interface {
	AdvanceStage(id timeline.StageID) bool
}

// Options tunes the transitions a Consumer requests.
type Options struct {
	Duration time.Duration
	Easing   string
}

// Consumer binds one stage to an Animator.
type Consumer struct {
	id   timeline.StageID
	adv  Advancer
	anim Animator
	opts Options

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()

	mu          sync.Mutex
	last        timeline.StageState
	variant     Variant
	run         uint64
	reportedRun uint64
	unmounted   bool
}

// Mount subscribes a consumer to stage id. If the stage is already
// animating, the consumer joins the run immediately.
func Mount(id timeline.StageID, src StateSource, adv Advancer, anim Animator, opts Options) *Consumer {
	if opts.Duration < 0 {
		opts.Duration = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		id:     id,
		adv:    adv,
		anim:   anim,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}

	c.unsubscribe = src.SubscribeStage(id, c.observe)

	// Unseeded stages read as idle/enter, i.e. hidden.
	st, _ := src.Get(id)
	c.mu.Lock()
	join := c.run == 0 && st.Status == timeline.StatusAnimating
	c.last = st
	c.variant = VariantFor(st)
	var run uint64
	if join {
		c.run++
		run = c.run
	}
	c.mu.Unlock()

	if join {
		c.begin(st, run)
	}
	return c
}

// Stage returns the stage this consumer watches.
func (c *Consumer) Stage() timeline.StageID { return c.id }

// Variant returns the variant for the last observed state.
func (c *Consumer) Variant() Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variant
}

// State returns the last observed stage state.
func (c *Consumer) State() timeline.StageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Runs returns how many animation runs this consumer has started.
func (c *Consumer) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.run)
}

// Unmount stops observing the stage and cancels any running animation.
// Completion signals arriving afterwards are dropped.
func (c *Consumer) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	c.mu.Unlock()

	c.unsubscribe()
	c.cancel()
}

func (c *Consumer) observe(ch timeline.Change) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	prev := c.last
	c.last = ch.Next
	c.variant = VariantFor(ch.Next)

	start := ch.Next.Status == timeline.StatusAnimating &&
		(prev.Status != timeline.StatusAnimating || prev.Direction != ch.Next.Direction)
	var run uint64
	if start {
		c.run++
		run = c.run
	}
	c.mu.Unlock()

	if start {
		c.begin(ch.Next, run)
	}
}

func (c *Consumer) begin(st timeline.StageState, run uint64) {
	t := Transition{
		Stage:    c.id,
		From:     startVariant(st.Direction),
		To:       VariantFor(st),
		Duration: c.opts.Duration,
		Easing:   c.opts.Easing,
	}
	c.anim.Animate(c.ctx, t, c.finisher(run, st.Direction))
}

// finisher returns the done callback for one run. It reports at most once,
// and only while that run is still the current one and the stage still
// animates in the run's direction.
func (c *Consumer) finisher(run uint64, dir timeline.Direction) func() {
	return func() {
		c.mu.Lock()
		report := !c.unmounted &&
			c.run == run &&
			c.reportedRun != run &&
			c.last.Status == timeline.StatusAnimating &&
			c.last.Direction == dir
		if report {
			c.reportedRun = run
		}
		c.mu.Unlock()

		if report {
			c.adv.AdvanceStage(c.id)
		}
	}
}
