// Package signal provides a minimal last-value signal used to republish
// store state to presenters. A signal remembers its most recent value,
// deduplicates redundant Set calls through a pluggable equality function,
// and delivers emissions synchronously to subscribers in subscription
// order. All delivery happens on the caller's goroutine; the pipeline as a
// whole runs on a single event timeline.
package signal

import "sync"

// Signal holds a current value of type T and notifies subscribers on change.
type Signal[T any] struct {
	mu     sync.Mutex
	value  T
	seeded bool
	eq     func(a, b T) bool
	subs   map[int]func(T)
	nextID int
}

// New creates a signal with no initial value. eq may be nil, in which case
// every Set emits (no deduplication).
func New[T any](eq func(a, b T) bool) *Signal[T] {
	return &Signal[T]{eq: eq, subs: make(map[int]func(T))}
}

// NewWith creates a signal seeded with an initial value. The initial value
// is not delivered to later subscribers automatically; use Get or
// SubscribeNow for replay semantics.
func NewWith[T any](initial T, eq func(a, b T) bool) *Signal[T] {
	s := New[T](eq)
	s.value = initial
	s.seeded = true
	return s
}

// Set updates the value and notifies subscribers. A value equal to the
// current one (per the signal's equality function) is suppressed.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	if s.seeded && s.eq != nil && s.eq(s.value, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	s.seeded = true
	fns := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Get returns the current value and whether one has been set.
func (s *Signal[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.seeded
}

// Subscription detaches a subscriber when canceled.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Cancel removes the subscriber. Safe to call more than once.
func (sub *Subscription) Cancel() {
	sub.once.Do(sub.cancel)
}

// Subscribe registers fn for future emissions. It does not replay the
// current value.
func (s *Signal[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return &Subscription{cancel: func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}}
}

// SubscribeNow registers fn and, if the signal already holds a value,
// delivers it immediately on the caller's goroutine.
func (s *Signal[T]) SubscribeNow(fn func(T)) *Subscription {
	sub := s.Subscribe(fn)
	if v, ok := s.Get(); ok {
		fn(v)
	}
	return sub
}

// snapshotSubs returns subscriber callbacks in registration order.
// Caller must hold s.mu.
func (s *Signal[T]) snapshotSubs() []func(T) {
	fns := make([]func(T), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}
