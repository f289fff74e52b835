package navigation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dusk-indust/marquee/internal/logging"
	"github.com/dusk-indust/marquee/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRouter records every route change.
type countingRouter struct {
	mu    sync.Mutex
	hrefs []string
	err   error
	// onNavigate runs inside Navigate, before returning.
	onNavigate func()
}

func (r *countingRouter) Navigate(_ context.Context, href string) error {
	r.mu.Lock()
	r.hrefs = append(r.hrefs, href)
	r.mu.Unlock()
	if r.onNavigate != nil {
		r.onNavigate()
	}
	return r.err
}

func (r *countingRouter) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.hrefs...)
}

// controllerPlayer wraps a real controller and counts exit runs.
type controllerPlayer struct {
	*timeline.Controller
	plays atomic.Int32
}

func (p *controllerPlayer) PlayDirection(ctx context.Context, dir timeline.Direction) *timeline.Completion {
	p.plays.Add(1)
	return p.Controller.PlayDirection(ctx, dir)
}

func newPage(t *testing.T, n *Navigator, timeout time.Duration, ids ...timeline.StageID) *controllerPlayer {
	t.Helper()
	cfg, err := timeline.Sequence("home", ids...)
	require.NoError(t, err)
	p := &controllerPlayer{Controller: timeline.NewController(cfg, n.ModeReader(), timeline.Options{Timeout: timeout})}
	n.Attach(p)
	return p
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "idle", ModeIdle.String())
	assert.Equal(t, "in-app", ModeInApp.String())
	assert.Equal(t, "unknown", Mode(5).String())
}

func TestGuard(t *testing.T) {
	var g Guard
	require.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())
	assert.True(t, g.Held())

	g.ReleaseAfter(10 * time.Millisecond)
	assert.True(t, g.Held(), "release is delayed")
	assert.Eventually(t, func() bool { return !g.Held() }, time.Second, 2*time.Millisecond)

	require.True(t, g.TryAcquire())
	g.ReleaseAfter(time.Hour)
	g.Release()
	assert.False(t, g.Held())

	require.True(t, g.TryAcquire())
	g.ReleaseAfter(0)
	assert.False(t, g.Held())
}

func TestGuard_LaterReleaseReplacesEarlier(t *testing.T) {
	var g Guard
	require.True(t, g.TryAcquire())
	g.ReleaseAfter(5 * time.Millisecond)
	g.ReleaseAfter(time.Hour)

	time.Sleep(30 * time.Millisecond)
	assert.True(t, g.Held(), "the replaced timer must not release")
	g.Release()
}

func TestNavigators_DoNotShareGuard(t *testing.T) {
	a := New(&countingRouter{}, Options{})
	b := New(&countingRouter{}, Options{})
	require.True(t, a.guard.TryAcquire())
	assert.True(t, a.Navigating())
	assert.False(t, b.Navigating())
}

func TestRequestNavigation_Success(t *testing.T) {
	sink := &logging.MemorySink{}
	router := &countingRouter{}
	n := New(router, Options{GraceDelay: 10 * time.Millisecond, Logger: sink})
	page := newPage(t, n, time.Second, "hero", "nav")

	// Finish every stage the moment it starts.
	page.Store().Subscribe(func(ch timeline.Change) {
		if ch.Next.Status == timeline.StatusAnimating {
			page.AdvanceStage(ch.Stage)
		}
	})

	var modeDuringRoute Mode
	router.onNavigate = func() { modeDuringRoute = n.Mode() }

	res, err := n.RequestNavigation(context.Background(), "/about")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNavigated, res.Outcome)
	assert.Equal(t, timeline.OutcomeSettled, res.Exit)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, []string{"/about"}, router.calls())
	assert.Equal(t, ModeInApp, modeDuringRoute)

	assert.Len(t, sink.Filter("navigation", logging.OutcomeStart), 1)
	assert.Len(t, sink.Filter("navigation", logging.OutcomeSuccess), 1)

	// The guard outlives the request by the grace delay.
	assert.True(t, n.Navigating())
	assert.Eventually(t, func() bool { return !n.Navigating() }, time.Second, 2*time.Millisecond)

	n.PageMounted()
	assert.Equal(t, ModeIdle, n.Mode())
}

func TestRequestNavigation_ModeSetBeforeExit(t *testing.T) {
	router := &countingRouter{}
	n := New(router, Options{GraceDelay: -1})

	var modeAtExit Mode
	n.Attach(playerFunc(func(ctx context.Context, dir timeline.Direction) *timeline.Completion {
		modeAtExit = n.Mode()
		c := timeline.NewController(timeline.MustSequence("p", "a"), nil, timeline.Options{Timeout: time.Millisecond})
		return c.PlayDirection(ctx, dir)
	}))

	_, err := n.RequestNavigation(context.Background(), "/x")
	require.NoError(t, err)
	assert.Equal(t, ModeInApp, modeAtExit)
}

func TestRequestNavigation_SecondClickIsDropped(t *testing.T) {
	sink := &logging.MemorySink{}
	router := &countingRouter{}
	n := New(router, Options{GraceDelay: 10 * time.Millisecond, Logger: sink})
	page := newPage(t, n, 5*time.Second, "hero", "nav")

	first := make(chan Result, 1)
	go func() {
		res, _ := n.RequestNavigation(context.Background(), "/about")
		first <- res
	}()

	require.Eventually(t, func() bool {
		st, _ := page.Store().Get("nav")
		return st == timeline.StageState{Status: timeline.StatusAnimating, Direction: timeline.DirectionExit}
	}, time.Second, time.Millisecond)

	before := page.Store().Snapshot()
	res, err := n.RequestNavigation(context.Background(), "/blog")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, before, page.Store().Snapshot(), "a dropped click leaves the store alone")

	skips := sink.Filter("navigation", logging.OutcomeSkip)
	require.Len(t, skips, 1)
	assert.Contains(t, skips[0].Detail, "/blog")

	// Let the first exit finish.
	require.True(t, page.AdvanceStage("nav"))
	require.True(t, page.AdvanceStage("hero"))

	select {
	case res := <-first:
		assert.Equal(t, OutcomeNavigated, res.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("first navigation never finished")
	}

	assert.Equal(t, []string{"/about"}, router.calls())
	assert.Equal(t, int32(1), page.plays.Load())
}

func TestRequestNavigation_StalledExitStillNavigates(t *testing.T) {
	sink := &logging.MemorySink{}
	router := &countingRouter{}
	n := New(router, Options{GraceDelay: -1, Logger: sink})
	newPage(t, n, 20*time.Millisecond, "hero")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := n.RequestNavigation(ctx, "/about")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNavigated, res.Outcome)
	assert.Equal(t, timeline.OutcomeTimedOut, res.Exit)
	assert.Equal(t, []string{"/about"}, router.calls())
}

func TestRequestNavigation_NoPageAttached(t *testing.T) {
	router := &countingRouter{}
	n := New(router, Options{GraceDelay: -1})

	res, err := n.RequestNavigation(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNavigated, res.Outcome)
	assert.Equal(t, timeline.OutcomePending, res.Exit)
	assert.False(t, n.Navigating())
}

func TestRequestNavigation_RouteFailureReleasesGuard(t *testing.T) {
	sink := &logging.MemorySink{}
	boom := errors.New("boom")
	router := &countingRouter{err: boom}
	n := New(router, Options{GraceDelay: 10 * time.Millisecond, Logger: sink})
	newPage(t, n, 20*time.Millisecond, "hero")

	res, err := n.RequestNavigation(context.Background(), "/broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, ModeIdle, n.Mode())

	errs := sink.Filter("navigation", logging.OutcomeError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Detail, "boom")

	assert.Eventually(t, func() bool { return !n.Navigating() }, time.Second, 2*time.Millisecond)

	// The next click goes through.
	router.err = nil
	res, err = n.RequestNavigation(context.Background(), "/ok")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNavigated, res.Outcome)
}

func TestRequestNavigation_CancelledWhileWaiting(t *testing.T) {
	router := &countingRouter{}
	n := New(router, Options{GraceDelay: -1})
	newPage(t, n, time.Minute, "hero")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	res, err := n.RequestNavigation(ctx, "/about")
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, router.calls())
	assert.False(t, n.Navigating())
}

type playerFunc func(ctx context.Context, dir timeline.Direction) *timeline.Completion

func (f playerFunc) PlayDirection(ctx context.Context, dir timeline.Direction) *timeline.Completion {
	return f(ctx, dir)
}
