package loop

import "time"

// Message is an event flowing into the dispatch loop.
type Message interface {
	isMessage()
}

// DispatchMsg asks the loop to dispatch an action.
type DispatchMsg struct {
	ActionID string
	Payload  any
}

func (DispatchMsg) isMessage() {}

// FlushMsg asks the loop to flush the notification queue.
type FlushMsg struct{}

func (FlushMsg) isMessage() {}

// TickMsg is delivered on each tick when a tick rate is configured.
type TickMsg struct {
	Time time.Time
}

func (TickMsg) isMessage() {}

// StopMsg asks the loop to exit.
type StopMsg struct{}

func (StopMsg) isMessage() {}
