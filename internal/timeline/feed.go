package timeline

import (
	"fmt"
	"sync"
)

// Feed bridges store notifications onto a buffered channel for goroutine
// readers such as the CLI's live view.
type Feed struct {
	ch          chan Change
	unsubscribe func()
	once        sync.Once
	mu          sync.RWMutex
	closed      bool
}

// NewFeed subscribes to every change in store. size is the channel buffer;
// values below 1 use 64.
func NewFeed(store *Store, size int) *Feed {
	if size < 1 {
		size = 64
	}
	f := &Feed{ch: make(chan Change, size)}
	f.unsubscribe = store.Subscribe(f.emit)
	return f
}

// emit sends a change without blocking. If the buffer is full the change is
// dropped.
func (f *Feed) emit(ch Change) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.ch <- ch:
	default:
	}
}

// Changes returns the receive side of the feed.
func (f *Feed) Changes() <-chan Change {
	return f.ch
}

// Close unsubscribes and closes the channel. It is safe to call twice.
func (f *Feed) Close() {
	f.once.Do(func() {
		f.unsubscribe()
		f.mu.Lock()
		f.closed = true
		close(f.ch)
		f.mu.Unlock()
	})
}

// FormatChange renders a change as a one-line status.
func FormatChange(ch Change) string {
	st := ch.Next
	switch st.Status {
	case StatusIdle:
		return fmt.Sprintf("  ○ %s (%s, idle)", ch.Stage, st.Direction)
	case StatusAnimating:
		return fmt.Sprintf("  ● %s %s...", ch.Stage, st.Direction)
	case StatusComplete:
		return fmt.Sprintf("  ✓ %s %s complete", ch.Stage, st.Direction)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", ch.Stage)
	}
}

// FormatPageHeader formats the header printed before a page's changes.
func FormatPageHeader(page, href string) string {
	return fmt.Sprintf("[%s] %s", page, href)
}
