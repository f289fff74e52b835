package timeline

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Change describes one store mutation as seen by listeners.
type Change struct {
	Seq   uint64 // 1-based, strictly increasing per store
	Stage StageID
	Prev  StageState
	Next  StageState
}

// Listener is notified after a mutation.
type Listener func(Change)

// Patch is a partial StageState. Nil fields keep their current value.
type Patch struct {
	Status    *Status
	Direction *Direction
}

// SetStatus returns a Patch that only changes the status.
func SetStatus(s Status) Patch { return Patch{Status: &s} }

// SetDirection returns a Patch that only changes the direction.
func SetDirection(d Direction) Patch { return Patch{Direction: &d} }

// Replace returns a Patch that overwrites both fields.
func Replace(st StageState) Patch {
	return Patch{Status: &st.Status, Direction: &st.Direction}
}

func (p Patch) apply(cur StageState) StageState {
	if p.Status != nil {
		cur.Status = *p.Status
	}
	if p.Direction != nil {
		cur.Direction = *p.Direction
	}
	return cur
}

type subscription struct {
	stage   StageID
	all     bool
	fn      Listener
	removed atomic.Bool
}

// Store maps stage IDs to their state and notifies subscribers of every
// mutation. Stages are kept in insertion order, which is the default
// dependency order when no Configuration says otherwise.
//
// Notifications are delivered synchronously by the goroutine that made the
// mutation, one change at a time, in mutation order. A mutation made from
// inside a listener is queued and delivered by the outer dispatch loop once
// the current listener returns, so listeners never nest.
type Store struct {
	mu     sync.Mutex
	states map[StageID]StageState
	order  []StageID
	subs   []*subscription
	seq    uint64

	pending     []Change
	dispatching bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		states: make(map[StageID]StageState),
	}
}

// Seed sets every id to state, inserting unknown ids at the end of the
// insertion order. Each seeded stage produces one notification.
func (s *Store) Seed(state StageState, ids ...StageID) {
	s.mu.Lock()
	for _, id := range ids {
		prev, ok := s.states[id]
		if !ok {
			s.order = append(s.order, id)
		}
		s.states[id] = state
		s.enqueue(id, prev, state)
	}
	s.mu.Unlock()
	s.dispatch()
}

// Get returns the state of id. An unseeded stage yields the zero state
// (idle/enter) and false.
func (s *Store) Get(id StageID) (StageState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return st, ok
}

// Set merges p into the state of id and notifies listeners exactly once.
// It returns the merged state.
func (s *Store) Set(id StageID, p Patch) StageState {
	s.mu.Lock()
	prev, ok := s.states[id]
	if !ok {
		s.order = append(s.order, id)
	}
	next := p.apply(prev)
	s.states[id] = next
	s.enqueue(id, prev, next)
	s.mu.Unlock()
	s.dispatch()
	return next
}

// Update applies fn to the state of id atomically with respect to other
// mutations. fn receives the current state and whether the stage is seeded;
// when it returns false nothing is written and nobody is notified.
func (s *Store) Update(id StageID, fn func(cur StageState, seeded bool) (StageState, bool)) bool {
	s.mu.Lock()
	prev, ok := s.states[id]
	next, apply := fn(prev, ok)
	if !apply {
		s.mu.Unlock()
		return false
	}
	if !ok {
		s.order = append(s.order, id)
	}
	s.states[id] = next
	s.enqueue(id, prev, next)
	s.mu.Unlock()
	s.dispatch()
	return true
}

// Subscribe registers fn for every mutation of every stage.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	return s.subscribe(&subscription{all: true, fn: fn})
}

// SubscribeStage registers fn for mutations of one stage only.
func (s *Store) SubscribeStage(id StageID, fn Listener) (unsubscribe func()) {
	return s.subscribe(&subscription{stage: id, fn: fn})
}

func (s *Store) subscribe(sub *subscription) func() {
	s.mu.Lock()
	// Clip forces a copy so a dispatch in progress keeps its own snapshot.
	s.subs = append(slices.Clip(s.subs), sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.removed.Store(true)
			s.mu.Lock()
			s.subs = slices.DeleteFunc(slices.Clone(s.subs), func(x *subscription) bool { return x == sub })
			s.mu.Unlock()
		})
	}
}

// Stages returns the seeded stage IDs in insertion order.
func (s *Store) Stages() []StageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Snapshot returns a copy of every stage state.
func (s *Store) Snapshot() map[StageID]StageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[StageID]StageState, len(s.states))
	for id, st := range s.states {
		out[id] = st
	}
	return out
}

// enqueue must be called with mu held.
func (s *Store) enqueue(id StageID, prev, next StageState) {
	s.seq++
	s.pending = append(s.pending, Change{Seq: s.seq, Stage: id, Prev: prev, Next: next})
}

// dispatch drains the pending queue unless another call is already doing so.
func (s *Store) dispatch() {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	s.mu.Unlock()

	finished := false
	defer func() {
		if !finished {
			// A listener panicked; let the next mutation dispatch again.
			s.mu.Lock()
			s.dispatching = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.pending = nil
			s.dispatching = false
			s.mu.Unlock()
			finished = true
			return
		}
		ch := s.pending[0]
		s.pending = s.pending[1:]
		subs := s.subs
		s.mu.Unlock()

		for _, sub := range subs {
			if sub.removed.Load() {
				continue
			}
			if sub.all || sub.stage == ch.Stage {
				sub.fn(ch)
			}
		}
	}
}
