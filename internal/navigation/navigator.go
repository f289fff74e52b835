package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dusk-indust/marquee/internal/logging"
	"github.com/dusk-indust/marquee/internal/timeline"
	"github.com/google/uuid"
)

// DefaultGraceDelay bridges the gap between the route change and the new
// page mounting. It is a tunable, not a contract.
const DefaultGraceDelay = 500 * time.Millisecond

const scope = "navigation"

// ErrExitCancelled is returned when the exit sequence was cancelled rather
// than settled or timed out.
var ErrExitCancelled = errors.New("navigation: exit sequence cancelled")

// Router is the navigation primitive that performs the route change.
type Router interface {
	Navigate(ctx context.Context, href string) error
}

// RouterFunc adapts a function to Router.
type RouterFunc func(ctx context.Context, href string) error

func (f RouterFunc) Navigate(ctx context.Context, href string) error { return f(ctx, href) }

// Player runs a direction across the current page's stages.
type Player interface {
	PlayDirection(ctx context.Context, dir timeline.Direction) *timeline.Completion
}

// Outcome is what happened to a navigation request.
type Outcome string

const (
	OutcomeNavigated Outcome = "navigated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Result describes one RequestNavigation call.
type Result struct {
	ID      string
	Href    string
	Outcome Outcome
	// Exit is how the exit sequence resolved. It is OutcomePending when
	// the request was skipped or no page was attached.
	Exit timeline.Outcome
}

// Options configures a Navigator.
type Options struct {
	// GraceDelay is how long the guard stays held after a navigation
	// started. Zero means DefaultGraceDelay; negative releases at once.
	GraceDelay time.Duration
	Logger     logging.Sink
}

// Navigator owns the navigation mode and guard for one page lifetime.
// Independent Navigators never share lock state.
type Navigator struct {
	router Router
	log    logging.Sink
	grace  time.Duration

	mode  ModeState
	guard Guard

	mu   sync.Mutex
	page Player
}

// New returns a Navigator that hands route changes to router.
func New(router Router, opts Options) *Navigator {
	if opts.GraceDelay == 0 {
		opts.GraceDelay = DefaultGraceDelay
	}
	return &Navigator{
		router: router,
		log:    logging.OrNop(opts.Logger),
		grace:  opts.GraceDelay,
	}
}

// Attach sets the page whose stages exit on the next navigation.
func (n *Navigator) Attach(p Player) {
	n.mu.Lock()
	n.page = p
	n.mu.Unlock()
}

// Mode returns the current navigation mode.
func (n *Navigator) Mode() Mode { return n.mode.Load() }

// ModeReader exposes the mode read-only, for stage initialisers.
func (n *Navigator) ModeReader() timeline.ModeReader { return &n.mode }

// Navigating reports whether the guard is held.
func (n *Navigator) Navigating() bool { return n.guard.Held() }

// PageMounted acknowledges that the destination page has initialised its
// enter sequence, returning the mode to idle.
func (n *Navigator) PageMounted() {
	n.mode.set(ModeIdle)
}

// RequestNavigation runs the exit sequence of the attached page and then
// performs the route change. A request arriving while another is in flight
// is dropped and reported as skipped with a nil error. A failed route change
// is logged and returned; the guard is released after the grace delay on
// every path that acquired it.
func (n *Navigator) RequestNavigation(ctx context.Context, href string) (Result, error) {
	res := Result{ID: uuid.NewString(), Href: href}

	if !n.guard.TryAcquire() {
		res.Outcome = OutcomeSkipped
		n.logf(logging.OutcomeSkip, "id=%s href=%s navigation already in flight", res.ID, href)
		return res, nil
	}
	defer n.guard.ReleaseAfter(n.grace)

	// Set before any asynchronous work so a stage initialising concurrently
	// already reads in-app.
	n.mode.set(ModeInApp)
	n.logf(logging.OutcomeStart, "id=%s href=%s", res.ID, href)

	n.mu.Lock()
	page := n.page
	n.mu.Unlock()

	if page != nil {
		outcome, err := page.PlayDirection(ctx, timeline.DirectionExit).Wait(ctx)
		res.Exit = outcome
		if err == nil && outcome == timeline.OutcomeCancelled {
			err = ErrExitCancelled
		}
		if err != nil {
			return n.fail(res, fmt.Errorf("navigation: waiting for exit of %s: %w", href, err))
		}
	}

	if err := n.router.Navigate(ctx, href); err != nil {
		return n.fail(res, fmt.Errorf("navigation: route to %s: %w", href, err))
	}

	res.Outcome = OutcomeNavigated
	n.logf(logging.OutcomeSuccess, "id=%s href=%s exit=%s", res.ID, href, res.Exit)
	return res, nil
}

// fail records a failed request. No page will mount, so the mode goes back
// to idle; the user stays on the current page with its exit visuals.
func (n *Navigator) fail(res Result, err error) (Result, error) {
	n.mode.set(ModeIdle)
	res.Outcome = OutcomeFailed
	n.logf(logging.OutcomeError, "id=%s href=%s err=%v", res.ID, res.Href, err)
	return res, err
}

func (n *Navigator) logf(outcome logging.Outcome, format string, args ...any) {
	n.log.Log(logging.Event{
		Scope:   scope,
		Action:  "click",
		Outcome: outcome,
		Detail:  fmt.Sprintf(format, args...),
	})
}
