package navigation

import (
	"sync"
	"sync/atomic"
	"time"
)

// Guard is a reentrancy lock: at most one holder at a time. Acquisition never
// blocks; a contended TryAcquire simply fails.
type Guard struct {
	held atomic.Bool

	mu    sync.Mutex
	timer *time.Timer
}

// TryAcquire takes the guard if it is free.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Held reports whether the guard is taken.
func (g *Guard) Held() bool { return g.held.Load() }

// Release frees the guard immediately and cancels any pending timed release.
func (g *Guard) Release() {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.mu.Unlock()
	g.held.Store(false)
}

// ReleaseAfter frees the guard once d has elapsed. A later call replaces an
// earlier pending one. d <= 0 releases immediately.
func (g *Guard) ReleaseAfter(d time.Duration) {
	if d <= 0 {
		g.Release()
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.timer != t {
			return
		}
		g.timer = nil
		g.held.Store(false)
	})
	g.timer = t
}
