// Package slice provides typed read-only views over store state, the layer
// a subscribing unit reads through.
package slice

import (
	"sync"

	"github.com/odvcencio/burrow/notify"
	"github.com/odvcencio/burrow/store"
)

// EqualFunc compares two values for equality.
type EqualFunc[T any] func(a, b T) bool

// EqualComparable compares comparable values with ==.
func EqualComparable[T comparable](a, b T) bool {
	return a == b
}

// View is a typed window onto one state key.
type View[T any] struct {
	store *store.Store
	key   string

	mu    sync.Mutex
	equal EqualFunc[T]
}

// NewView creates a view of the slice stored under key.
func NewView[T any](st *store.Store, key string) *View[T] {
	return &View[T]{store: st, key: key}
}

// Key returns the state key the view reads.
func (v *View[T]) Key() string {
	if v == nil {
		return ""
	}
	return v.key
}

// SetEqualFunc configures the equality check used to suppress redundant
// notifications.
func (v *View[T]) SetEqualFunc(fn EqualFunc[T]) {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.equal = fn
	v.mu.Unlock()
}

// Get returns the current value of the slice, or the zero value when the
// key is absent or holds another type.
func (v *View[T]) Get() T {
	value, _ := v.Lookup()
	return value
}

// Lookup returns the current value and whether the key held a T.
func (v *View[T]) Lookup() (T, bool) {
	if v == nil {
		var zero T
		return zero, false
	}
	return store.Value[T](v.store.Snapshot(), v.key)
}

// Subscribe registers fn to receive the slice value after each dispatch.
// With an equality func set, notifications for an unchanged value are
// suppressed.
func (v *View[T]) Subscribe(fn func(T)) *store.Subscription {
	return v.SubscribeWith(nil, fn)
}

// SubscribeWith registers fn routed through scheduler.
func (v *View[T]) SubscribeWith(scheduler notify.Scheduler, fn func(T)) *store.Subscription {
	if v == nil || v.store == nil || fn == nil {
		return nil
	}
	return v.store.SubscribeWith(scheduler, v.listener(fn))
}

func (v *View[T]) listener(fn func(T)) store.Listener {
	var prev T
	seen := false
	return func(s store.State) {
		value, _ := store.Value[T](s, v.key)
		v.mu.Lock()
		equal := v.equal
		v.mu.Unlock()
		if equal != nil && seen && equal(prev, value) {
			return
		}
		prev = value
		seen = true
		fn(value)
	}
}
