package store

import "time"

// DispatchStats describes one dispatch for observation.
type DispatchStats struct {
	ActionID      string
	Depth         int
	HadAction     bool
	HadSideEffect bool

	Started            time.Time
	SideEffectDuration time.Duration
	ApplyDuration      time.Duration
	NotifyDuration     time.Duration
	TotalDuration      time.Duration

	// ChangedKeys counts the keys in the merged partial state.
	ChangedKeys int
	// Listeners counts the listeners notified (zero on aborted dispatch).
	Listeners int
	// Err is set when a side effect aborted the dispatch.
	Err error
}

// DispatchObserver receives stats after each dispatch, including aborted
// ones. Observers run on the dispatching goroutine and should return
// quickly.
type DispatchObserver interface {
	ObserveDispatch(stats DispatchStats)
}

// ObserverFunc adapts a function into a DispatchObserver.
type ObserverFunc func(DispatchStats)

// ObserveDispatch calls the wrapped function.
func (f ObserverFunc) ObserveDispatch(stats DispatchStats) {
	if f != nil {
		f(stats)
	}
}
