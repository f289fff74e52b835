// Package site mounts content pages onto timelines. It owns the in-process
// router: each route change builds the destination page's controller and
// consumers, retires the previous page, and starts the new enter sequence.
package site

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dusk-indust/marquee/internal/config"
	"github.com/dusk-indust/marquee/internal/consumer"
	"github.com/dusk-indust/marquee/internal/content"
	"github.com/dusk-indust/marquee/internal/logging"
	"github.com/dusk-indust/marquee/internal/navigation"
	"github.com/dusk-indust/marquee/internal/timeline"
)

var (
	ErrPageNotFound = errors.New("site: page not found")
	ErrNoHistory    = errors.New("site: no history")
	ErrNoPage       = errors.New("site: no page open")
)

const scope = "site"

// Page is one mounted page view.
type Page struct {
	Record     content.Record
	Controller *timeline.Controller
	Consumers  []*consumer.Consumer
	// Entered resolves when the page's enter sequence settles. On an
	// in-app mount it is the explicit enter run started after PageMounted.
	Entered *timeline.Completion

	cancel context.CancelFunc
}

// Href is the path the page is served at.
func (p *Page) Href() string { return p.Record.Href() }

// PlayDirection runs dir over the page's stages for as long as the page stays
// mounted or ctx lasts.
func (p *Page) PlayDirection(ctx context.Context, dir timeline.Direction) *timeline.Completion {
	return p.Controller.PlayDirection(ctx, dir)
}

func (p *Page) unmount() {
	for _, c := range p.Consumers {
		c.Unmount()
	}
	p.cancel()
}

type backKey struct{}

// Site serves a fixed record set with one page mounted at a time.
type Site struct {
	cfg       *config.SiteConfig
	timelines map[string]*timeline.Configuration
	records   []content.Record
	byHref    map[string]content.Record
	anim      consumer.Animator
	log       logging.Sink
	nav       *navigation.Navigator

	mu      sync.Mutex
	current *Page
	history []string
	onMount []func(*Page)
}

// New builds a site over records. Records whose page type has no timeline use
// the configured default page type.
func New(cfg *config.SiteConfig, records []content.Record, anim consumer.Animator, sink logging.Sink) (*Site, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	timelines, err := cfg.Timelines()
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	if _, ok := timelines[cfg.DefaultPage]; !ok {
		return nil, fmt.Errorf("site: %w: %q", config.ErrUnknownDefaultPage, cfg.DefaultPage)
	}
	if anim == nil {
		anim = &consumer.TimerAnimator{}
	}

	s := &Site{
		cfg:       cfg,
		timelines: timelines,
		records:   slices.Clone(records),
		byHref:    make(map[string]content.Record, len(records)),
		anim:      anim,
		log:       logging.OrNop(sink),
	}
	for _, r := range records {
		if _, dup := s.byHref[r.Href()]; dup {
			return nil, fmt.Errorf("site: %w: %s", content.ErrDuplicateSlug, r.Slug)
		}
		s.byHref[r.Href()] = r
	}
	grace := cfg.Grace()
	if cfg.GraceDelay != nil && grace == 0 {
		// The navigator reads zero as "use the default".
		grace = -1
	}
	s.nav = navigation.New(navigation.RouterFunc(s.route), navigation.Options{
		GraceDelay: grace,
		Logger:     s.log,
	})
	return s, nil
}

// Navigator returns the site's navigator.
func (s *Site) Navigator() *navigation.Navigator { return s.nav }

// Pages returns the published records in display order.
func (s *Site) Pages() []content.Record { return slices.Clone(s.records) }

// Timeline returns the timeline configuration used for page type pageType.
func (s *Site) Timeline(pageType string) *timeline.Configuration {
	if tl, ok := s.timelines[pageType]; ok {
		return tl
	}
	return s.timelines[s.cfg.DefaultPage]
}

// Current returns the mounted page, or nil before Open.
func (s *Site) Current() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns the hrefs Back would visit, most recent last.
func (s *Site) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// OnMount registers fn to run for every page after its stages are seeded
// and consumers mounted, before its enter sequence starts.
func (s *Site) OnMount(fn func(*Page)) {
	s.mu.Lock()
	s.onMount = append(s.onMount, fn)
	s.mu.Unlock()
}

// Open mounts href as a fresh load: history is cleared and the enter
// sequence plays unconditionally.
func (s *Site) Open(ctx context.Context, href string) (*Page, error) {
	page, err := s.mount(ctx, href, nil)
	if err != nil {
		s.logf(logging.OutcomeError, "open", "href=%s err=%v", href, err)
		return nil, err
	}
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	s.logf(logging.OutcomeSuccess, "open", "href=%s page=%s", href, page.Controller.Configuration().Page())
	return page, nil
}

// Navigate runs the current page's exit sequence and then routes to href.
func (s *Site) Navigate(ctx context.Context, href string) (navigation.Result, error) {
	if s.Current() == nil {
		return navigation.Result{Href: href, Outcome: navigation.OutcomeFailed}, ErrNoPage
	}
	return s.nav.RequestNavigation(ctx, href)
}

// Back navigates to the most recent history entry.
func (s *Site) Back(ctx context.Context) (navigation.Result, error) {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return navigation.Result{Outcome: navigation.OutcomeFailed}, ErrNoHistory
	}
	href := s.history[len(s.history)-1]
	s.mu.Unlock()

	return s.nav.RequestNavigation(context.WithValue(ctx, backKey{}, true), href)
}

// Close unmounts the current page.
func (s *Site) Close() {
	s.mu.Lock()
	page := s.current
	s.current = nil
	s.mu.Unlock()
	if page != nil {
		page.unmount()
	}
}

// route is the router primitive handed to the Navigator. It runs after the
// exit sequence has resolved, while the navigation mode is still in-app.
func (s *Site) route(ctx context.Context, href string) error {
	_, err := s.mount(ctx, href, s.nav.ModeReader())
	return err
}

func (s *Site) mount(ctx context.Context, href string, mode timeline.ModeReader) (*Page, error) {
	rec, ok := s.byHref[href]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, href)
	}

	tl := s.Timeline(rec.PageType)
	pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ctrl := timeline.NewController(tl, mode, timeline.Options{
		Timeout: s.cfg.StageTimeout.Std(),
		Logger:  s.log,
	})
	page := &Page{
		Record:     rec,
		Controller: ctrl,
		cancel:     cancel,
	}
	for _, id := range tl.Stages() {
		page.Consumers = append(page.Consumers, consumer.Mount(id, ctrl.Store(), ctrl, s.anim, consumer.Options{
			Duration: s.cfg.StageDuration(id),
			Easing:   s.cfg.Animation.Easing,
		}))
	}

	s.mu.Lock()
	hooks := slices.Clone(s.onMount)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(page)
	}

	page.Entered = ctrl.Start(pctx)
	if page.Entered.Outcome() == timeline.OutcomeSkipped {
		// In-app mount: the stages sit in the hidden exit pose until the
		// mode is acknowledged and enter is played explicitly.
		s.nav.PageMounted()
		page.Entered = ctrl.PlayDirection(pctx, timeline.DirectionEnter)
	}

	s.mu.Lock()
	prev := s.current
	s.current = page
	if prev != nil && mode != nil {
		if back, _ := ctx.Value(backKey{}).(bool); back && len(s.history) > 0 {
			s.history = s.history[:len(s.history)-1]
		} else {
			s.history = append(s.history, prev.Href())
		}
	}
	s.mu.Unlock()

	if prev != nil {
		prev.unmount()
	}
	s.nav.Attach(page)
	return page, nil
}

func (s *Site) logf(outcome logging.Outcome, action, format string, args ...any) {
	s.log.Log(logging.Event{
		Scope:   scope,
		Action:  action,
		Outcome: outcome,
		Detail:  fmt.Sprintf(format, args...),
	})
}
