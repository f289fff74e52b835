package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/dusk-indust/marquee/internal/site"
	"github.com/dusk-indust/marquee/internal/timeline"
)

// DefaultBuffer is the per-subscriber channel size.
const DefaultBuffer = 128

// Event is one stage change as sent over the wire.
type Event struct {
	Seq       uint64 `json:"-"` // carried as the SSE id
	Page      string `json:"page"`
	Href      string `json:"href"`
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Direction string `json:"direction"`

	// Err is set by ReadEvents when a frame could not be decoded.
	Err error `json:"-"`
}

// Change converts the event back to a timeline change. Prev is not carried
// on the wire and stays zero. ReadEvents has already rejected unknown
// status and direction names.
func (e Event) Change() timeline.Change {
	st, _ := timeline.ParseStatus(e.Status)
	dir, _ := timeline.ParseDirection(e.Direction)
	return timeline.Change{
		Seq:   e.Seq,
		Stage: timeline.StageID(e.Stage),
		Next:  timeline.StageState{Status: st, Direction: dir},
	}
}

// Broadcaster fans the changes of whichever page is mounted out to any
// number of subscribers. Slow subscribers miss events rather than stall the
// store.
type Broadcaster struct {
	size int

	mu     sync.Mutex
	subs   map[chan Event]struct{}
	detach func()
	closed bool
}

// NewBroadcaster returns a Broadcaster whose subscribers buffer size events.
// Values below 1 use DefaultBuffer.
func NewBroadcaster(size int) *Broadcaster {
	if size < 1 {
		size = DefaultBuffer
	}
	return &Broadcaster{size: size, subs: make(map[chan Event]struct{})}
}

// Attach follows page p, dropping the previously attached page. Register it
// with site.OnMount.
func (b *Broadcaster) Attach(p *site.Page) {
	page, href := p.Controller.Configuration().Page(), p.Href()
	unsubscribe := p.Controller.Store().Subscribe(func(ch timeline.Change) {
		b.publish(Event{
			Seq:       ch.Seq,
			Page:      page,
			Href:      href,
			Stage:     string(ch.Stage),
			Status:    ch.Next.Status.String(),
			Direction: ch.Next.Direction.String(),
		})
	})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		unsubscribe()
		return
	}
	prev := b.detach
	b.detach = unsubscribe
	b.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Subscribe returns a channel of events and a function that cancels the
// subscription. The channel is closed on cancel or Close.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close detaches from the page and closes every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	detach := b.detach
	b.detach = nil
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// ServeHTTP streams events to the client until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events, cancel := b.Subscribe()
	defer cancel()

	sw := NewSSEWriter(w)
	sw.Init()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sw.WriteEvent(ev); err != nil {
				return
			}
		}
	}
}

// Watch connects to an events endpoint and returns its event stream.
func Watch(ctx context.Context, client *http.Client, url string) (<-chan Event, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream: connect %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream: connect %s: unexpected status %s", url, resp.Status)
	}
	return ReadEvents(ctx, resp.Body), nil
}
