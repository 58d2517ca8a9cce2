package notify

import "sync"

// Canceler is anything holding a cancelable subscription.
type Canceler interface {
	Cancel()
}

// Subscriptions tracks subscriptions owned by one subscribing unit so they
// can be torn down together on unmount.
type Subscriptions struct {
	mu      sync.Mutex
	cancels []func()
	sched   Scheduler
}

// NewSubscriptions creates a Subscriptions with a default scheduler.
func NewSubscriptions(scheduler Scheduler) *Subscriptions {
	return &Subscriptions{sched: scheduler}
}

// SetScheduler updates the default scheduler.
func (s *Subscriptions) SetScheduler(scheduler Scheduler) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
}

// Scheduler returns the default scheduler.
func (s *Subscriptions) Scheduler() Scheduler {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	scheduler := s.sched
	s.mu.Unlock()
	return scheduler
}

// Add registers a cancel callback.
func (s *Subscriptions) Add(cancel func()) {
	if s == nil || cancel == nil {
		return
	}
	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()
}

// Track registers a subscription handle for teardown.
func (s *Subscriptions) Track(sub Canceler) {
	if s == nil || sub == nil {
		return
	}
	s.Add(sub.Cancel)
}

// Clear cancels all tracked subscriptions.
func (s *Subscriptions) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, cancel := range cancels {
		if cancel != nil {
			cancel()
		}
	}
}
