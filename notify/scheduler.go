// Package notify decides where and when store notifications run.
package notify

// Scheduler dispatches notification callbacks.
type Scheduler interface {
	Schedule(fn func())
}

// KeyedScheduler coalesces callbacks sharing a key, keeping the latest.
type KeyedScheduler interface {
	Scheduler
	ScheduleKeyed(key any, fn func())
}

// SchedulerFunc adapts a function into a Scheduler.
type SchedulerFunc func(func())

// Schedule dispatches fn using the wrapped function.
func (f SchedulerFunc) Schedule(fn func()) {
	if f == nil || fn == nil {
		return
	}
	f(fn)
}

// Direct runs callbacks immediately in the caller goroutine.
var Direct Scheduler = SchedulerFunc(func(fn func()) {
	if fn != nil {
		fn()
	}
})

// Async runs callbacks in a new goroutine.
type Async struct{}

// Schedule dispatches fn asynchronously.
func (Async) Schedule(fn func()) {
	if fn == nil {
		return
	}
	go fn()
}
