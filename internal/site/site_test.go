package site

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dusk-indust/marquee/internal/config"
	"github.com/dusk-indust/marquee/internal/consumer"
	"github.com/dusk-indust/marquee/internal/content"
	"github.com/dusk-indust/marquee/internal/logging"
	"github.com/dusk-indust/marquee/internal/navigation"
	"github.com/dusk-indust/marquee/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
stageTimeout: 2s
graceDelay: 5ms
animation:
  duration: 1ms
defaultPage: content
pages:
  home:
    stages: [hero, headline]
  content:
    stages: [header, body, footer]
`

var testRecords = []content.Record{
	{Slug: "index", Title: "Home", PageType: "home"},
	{Slug: "about", Title: "About", PageType: "content", Order: 1},
	{Slug: "talks", Title: "Talks", PageType: "content", Order: 2},
	{Slug: "gallery", Title: "Gallery", PageType: "gallery", Order: 3},
}

// instant finishes every transition on its own goroutine.
var instant = consumer.AnimatorFunc(func(_ context.Context, _ consumer.Transition, done func()) { go done() })

func newSite(t *testing.T, anim consumer.Animator) (*Site, *logging.MemorySink) {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	sink := &logging.MemorySink{}
	s, err := New(cfg, testRecords, anim, sink)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, sink
}

func waitEntered(t *testing.T, p *Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := p.Entered.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, timeline.OutcomeSettled, outcome)
}

func assertAll(t *testing.T, p *Page, want timeline.StageState) {
	t.Helper()
	for id, st := range p.Controller.Store().Snapshot() {
		assert.Equal(t, want, st, "stage %s", id)
	}
}

func TestSite_OpenPlaysEnter(t *testing.T) {
	s, sink := newSite(t, instant)

	page, err := s.Open(context.Background(), "/")
	require.NoError(t, err)
	waitEntered(t, page)

	assert.Same(t, page, s.Current())
	assert.Equal(t, "home", page.Controller.Configuration().Page())
	assert.Equal(t, timeline.DirectionEnter, page.Controller.Direction())
	assertAll(t, page, timeline.StageState{Status: timeline.StatusComplete, Direction: timeline.DirectionEnter})
	for _, c := range page.Consumers {
		assert.Equal(t, consumer.VariantEnterVisible, c.Variant())
	}
	assert.Empty(t, s.History())
	assert.Len(t, sink.Filter(scope, logging.OutcomeSuccess), 1)
}

func TestSite_OpenErrors(t *testing.T) {
	s, _ := newSite(t, instant)

	_, err := s.Open(context.Background(), "/missing")
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = s.Navigate(context.Background(), "/about")
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestSite_NavigateExitsThenEnters(t *testing.T) {
	s, _ := newSite(t, instant)
	home, err := s.Open(context.Background(), "/")
	require.NoError(t, err)
	waitEntered(t, home)

	res, err := s.Navigate(context.Background(), "/about")
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeNavigated, res.Outcome)
	assert.Equal(t, timeline.OutcomeSettled, res.Exit)
	assertAll(t, home, timeline.StageState{Status: timeline.StatusComplete, Direction: timeline.DirectionExit})

	about := s.Current()
	require.NotSame(t, home, about)
	assert.Equal(t, "/about", about.Href())
	assert.Equal(t, timeline.DirectionExit, about.Controller.Direction(), "in-app mount seeds the hidden pose")
	waitEntered(t, about)
	assertAll(t, about, timeline.StageState{Status: timeline.StatusComplete, Direction: timeline.DirectionEnter})

	assert.Equal(t, navigation.ModeIdle, s.Navigator().Mode())
	assert.Equal(t, []string{"/"}, s.History())
}

func TestSite_Back(t *testing.T) {
	s, _ := newSite(t, instant)
	_, err := s.Open(context.Background(), "/")
	require.NoError(t, err)

	_, err = s.Back(context.Background())
	assert.ErrorIs(t, err, ErrNoHistory)

	_, err = s.Navigate(context.Background(), "/about")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !s.Navigator().Navigating() }, time.Second, time.Millisecond)
	_, err = s.Navigate(context.Background(), "/talks")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/about"}, s.History())
	assert.Eventually(t, func() bool { return !s.Navigator().Navigating() }, time.Second, time.Millisecond)

	res, err := s.Back(context.Background())
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeNavigated, res.Outcome)
	assert.Equal(t, "/about", s.Current().Href())
	assert.Equal(t, []string{"/"}, s.History())
}

func TestSite_UnknownHrefFailsAfterExit(t *testing.T) {
	s, _ := newSite(t, instant)
	home, err := s.Open(context.Background(), "/")
	require.NoError(t, err)
	waitEntered(t, home)

	res, err := s.Navigate(context.Background(), "/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.Equal(t, navigation.OutcomeFailed, res.Outcome)
	assert.Same(t, home, s.Current())
	assert.Equal(t, navigation.ModeIdle, s.Navigator().Mode())
	assert.Empty(t, s.History())
}

func TestSite_UnknownPageTypeUsesDefault(t *testing.T) {
	s, _ := newSite(t, instant)
	page, err := s.Open(context.Background(), "/gallery")
	require.NoError(t, err)
	assert.Equal(t, "content", page.Controller.Configuration().Page())
	assert.Len(t, page.Consumers, 3)
}

func TestSite_SecondNavigationWhileInFlightIsSkipped(t *testing.T) {
	var exits atomic.Int32
	slowExit := consumer.AnimatorFunc(func(_ context.Context, tr consumer.Transition, done func()) {
		if tr.To == consumer.VariantExitHidden {
			exits.Add(1)
			time.AfterFunc(30*time.Millisecond, done)
			return
		}
		go done()
	})
	s, _ := newSite(t, slowExit)
	home, err := s.Open(context.Background(), "/")
	require.NoError(t, err)
	waitEntered(t, home)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Navigate(context.Background(), "/about")
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return s.Navigator().Navigating() }, time.Second, time.Millisecond)

	res, err := s.Navigate(context.Background(), "/talks")
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeSkipped, res.Outcome)

	wg.Wait()
	assert.Equal(t, "/about", s.Current().Href())
	assert.Equal(t, int32(2), exits.Load(), "one exit run over the two home stages")
}

func TestSite_RetryAfterStalledExitKeepsStageLifecycle(t *testing.T) {
	cfg, err := config.Parse([]byte(`
stageTimeout: 40ms
graceDelay: 5ms
pages:
  home:
    stages: [hero, headline]
`))
	require.NoError(t, err)
	stallHeadlineExit := consumer.AnimatorFunc(func(_ context.Context, tr consumer.Transition, done func()) {
		if tr.Stage == "headline" && tr.To == consumer.VariantExitHidden {
			return
		}
		go done()
	})
	s, err := New(cfg, testRecords[:1], stallHeadlineExit, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	home, err := s.Open(context.Background(), "/")
	require.NoError(t, err)
	waitEntered(t, home)

	var mu sync.Mutex
	var invalid []string
	home.Controller.Store().Subscribe(func(ch timeline.Change) {
		if !ch.Prev.CanTransition(ch.Next) {
			mu.Lock()
			invalid = append(invalid, string(ch.Stage)+": "+ch.Prev.String()+" -> "+ch.Next.String())
			mu.Unlock()
		}
	})

	for range 2 {
		res, err := s.Navigate(context.Background(), "/missing")
		require.ErrorIs(t, err, ErrPageNotFound)
		assert.Equal(t, navigation.OutcomeFailed, res.Outcome)
		assert.Equal(t, timeline.OutcomeTimedOut, res.Exit)
		require.Eventually(t, func() bool { return !s.Navigator().Navigating() }, time.Second, time.Millisecond)
	}

	st, _ := home.Controller.Store().Get("headline")
	assert.Equal(t, timeline.StageState{Status: timeline.StatusAnimating, Direction: timeline.DirectionExit}, st)
	assert.Same(t, home, s.Current())
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, invalid)
}

func TestSite_ZeroGraceDelayReleasesGuardAtOnce(t *testing.T) {
	cfg, err := config.Parse([]byte("graceDelay: 0\nanimation:\n  duration: 1ms\n"))
	require.NoError(t, err)
	s, err := New(cfg, testRecords, instant, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Open(context.Background(), "/about")
	require.NoError(t, err)
	res, err := s.Navigate(context.Background(), "/talks")
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeNavigated, res.Outcome)
	assert.False(t, s.Navigator().Navigating(), "no grace delay configured")
}

func TestSite_OnMountSeesEnterSequence(t *testing.T) {
	s, _ := newSite(t, instant)

	var mu sync.Mutex
	var feeds []*timeline.Feed
	s.OnMount(func(p *Page) {
		mu.Lock()
		defer mu.Unlock()
		feeds = append(feeds, timeline.NewFeed(p.Controller.Store(), 64))
	})

	page, err := s.Open(context.Background(), "/about")
	require.NoError(t, err)
	waitEntered(t, page)

	mu.Lock()
	require.Len(t, feeds, 1)
	feed := feeds[0]
	mu.Unlock()
	feed.Close()

	var first timeline.Change
	for ch := range feed.Changes() {
		if ch.Next.Status == timeline.StatusAnimating {
			first = ch
			break
		}
	}
	assert.Equal(t, timeline.StageID("header"), first.Stage)
}

func TestNew_RejectsDuplicateHref(t *testing.T) {
	_, err := New(config.Default(), []content.Record{{Slug: "a"}, {Slug: "a"}}, nil, nil)
	assert.ErrorIs(t, err, content.ErrDuplicateSlug)
}
