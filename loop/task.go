package loop

import (
	"context"
	"time"
)

// PostFunc posts a dispatch into the loop.
// It returns false when the message queue is full or the loop is gone.
type PostFunc func(actionID string, payload any) bool

// Task is a background routine dispatching actions through the loop.
// Run must return when ctx is done.
type Task struct {
	Run func(ctx context.Context, post PostFunc)
}

// After posts a dispatch after a delay.
func After(delay time.Duration, actionID string, payload any) Task {
	return Task{
		Run: func(ctx context.Context, post PostFunc) {
			if post == nil {
				return
			}
			if delay <= 0 {
				post(actionID, payload)
				return
			}
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				post(actionID, payload)
			}
		},
	}
}

// Every posts dispatches on a fixed interval.
// Returning ok=false from fn skips the post.
func Every(interval time.Duration, fn func(time.Time) (actionID string, payload any, ok bool)) Task {
	return Task{
		Run: func(ctx context.Context, post PostFunc) {
			if interval <= 0 || fn == nil || post == nil {
				return
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					if actionID, payload, ok := fn(now); ok {
						post(actionID, payload)
					}
				}
			}
		},
	}
}
