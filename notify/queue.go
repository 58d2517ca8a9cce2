package notify

import "sync"

type queued struct {
	key any
	fn  func()
}

// Queue batches notification callbacks for explicit flushing.
//
// Keyed entries coalesce: scheduling a second callback under the same key
// replaces the pending one while keeping its position, so a burst of
// dispatches collapses to one callback per subscriber carrying the latest
// state.
type Queue struct {
	mu      sync.Mutex
	pending []queued
	index   map[any]int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule enqueues a callback for later flushing.
func (q *Queue) Schedule(fn func()) {
	if q == nil || fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, queued{fn: fn})
	q.mu.Unlock()
}

// ScheduleKeyed enqueues fn under key, replacing any pending callback for
// the same key.
func (q *Queue) ScheduleKeyed(key any, fn func()) {
	if q == nil || fn == nil {
		return
	}
	if key == nil {
		q.Schedule(fn)
		return
	}
	q.mu.Lock()
	if q.index == nil {
		q.index = make(map[any]int)
	}
	if i, ok := q.index[key]; ok {
		q.pending[i].fn = fn
	} else {
		q.index[key] = len(q.pending)
		q.pending = append(q.pending, queued{key: key, fn: fn})
	}
	q.mu.Unlock()
}

// Len returns the number of pending callbacks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	n := len(q.pending)
	q.mu.Unlock()
	return n
}

// Flush executes pending callbacks in schedule order and returns the count.
// Callbacks scheduled during a flush land in the next batch.
func (q *Queue) Flush() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.index = nil
	q.mu.Unlock()
	for _, entry := range pending {
		entry.fn()
	}
	return len(pending)
}
