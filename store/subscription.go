package store

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/burrow/notify"
)

// Listener receives the post-dispatch state.
type Listener func(State)

// Subscription is a handle for one registered listener.
// Cancel removes the listener; further notifications stop. Cancel is
// idempotent.
type Subscription struct {
	id    ulid.ULID
	store *Store
	once  sync.Once
}

// ID returns the subscription token.
func (s *Subscription) ID() string {
	if s == nil {
		return ""
	}
	return s.id.String()
}

// Cancel removes the listener from the registry.
// A listener may cancel subscriptions during fan-out; the in-flight
// notification batch is unaffected.
func (s *Subscription) Cancel() {
	if s == nil || s.store == nil {
		return
	}
	s.once.Do(func() {
		s.store.removeListener(s.id)
	})
}

type listenerEntry struct {
	id    ulid.ULID
	fn    Listener
	sched notify.Scheduler
}

// Subscribe appends fn to the listener registry and returns its handle.
// Listeners are notified in registration order; subscribe parents before
// children so an ancestor never observes state after its descendants.
func (s *Store) Subscribe(fn Listener) *Subscription {
	return s.SubscribeWith(nil, fn)
}

// SubscribeWith registers fn and routes its notifications through scheduler.
// A nil scheduler notifies synchronously during dispatch. A
// notify.KeyedScheduler coalesces per subscription, so only the latest state
// of a burst is delivered.
func (s *Store) SubscribeWith(scheduler notify.Scheduler, fn Listener) *Subscription {
	if s == nil || fn == nil {
		return nil
	}
	sub := &Subscription{id: ulid.Make(), store: s}
	s.lmu.Lock()
	s.listeners = append(s.listeners, listenerEntry{id: sub.id, fn: fn, sched: scheduler})
	s.lmu.Unlock()
	return sub
}

// Listeners returns the number of registered listeners.
func (s *Store) Listeners() int {
	if s == nil {
		return 0
	}
	s.lmu.Lock()
	n := len(s.listeners)
	s.lmu.Unlock()
	return n
}

func (s *Store) removeListener(id ulid.ULID) {
	s.lmu.Lock()
	for i, entry := range s.listeners {
		if entry.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			break
		}
	}
	s.lmu.Unlock()
}

// notifyAll invokes every current listener with state, in registration
// order, and returns the listener count. Fan-out iterates a snapshot of the
// registry so listeners may cancel subscriptions mid-notification.
func (s *Store) notifyAll(state State) int {
	s.lmu.Lock()
	var entries []listenerEntry
	if len(s.listeners) > 0 {
		entries = make([]listenerEntry, len(s.listeners))
		copy(entries, s.listeners)
	}
	s.lmu.Unlock()

	for _, entry := range entries {
		fn := entry.fn
		if fn == nil {
			continue
		}
		switch sched := entry.sched.(type) {
		case nil:
			fn(state)
		case notify.KeyedScheduler:
			sched.ScheduleKeyed(entry.id, func() { fn(state) })
		default:
			sched.Schedule(func() { fn(state) })
		}
	}
	return len(entries)
}
