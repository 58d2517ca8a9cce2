package slice

import (
	"sync"

	"github.com/odvcencio/burrow/notify"
	"github.com/odvcencio/burrow/store"
)

// Derived computes a value from whole-state snapshots.
// It recomputes on every notification; with an equality func set,
// subscribers are only called when the result changes.
type Derived[T any] struct {
	store   *store.Store
	compute func(store.State) T

	mu    sync.Mutex
	equal EqualFunc[T]
}

// NewDerived creates a derived value over st.
func NewDerived[T any](st *store.Store, compute func(store.State) T) *Derived[T] {
	if compute == nil {
		compute = func(store.State) T {
			var zero T
			return zero
		}
	}
	return &Derived[T]{store: st, compute: compute}
}

// SetEqualFunc configures the equality check used to suppress redundant
// notifications.
func (d *Derived[T]) SetEqualFunc(fn EqualFunc[T]) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.equal = fn
	d.mu.Unlock()
}

// Get computes the current value.
func (d *Derived[T]) Get() T {
	if d == nil {
		var zero T
		return zero
	}
	return d.compute(d.store.Snapshot())
}

// Subscribe registers fn to receive the derived value after each dispatch.
func (d *Derived[T]) Subscribe(fn func(T)) *store.Subscription {
	return d.SubscribeWith(nil, fn)
}

// SubscribeWith registers fn routed through scheduler.
func (d *Derived[T]) SubscribeWith(scheduler notify.Scheduler, fn func(T)) *store.Subscription {
	if d == nil || d.store == nil || fn == nil {
		return nil
	}
	var prev T
	seen := false
	return d.store.SubscribeWith(scheduler, func(s store.State) {
		value := d.compute(s)
		d.mu.Lock()
		equal := d.equal
		d.mu.Unlock()
		if equal != nil && seen && equal(prev, value) {
			return
		}
		prev = value
		seen = true
		fn(value)
	})
}
