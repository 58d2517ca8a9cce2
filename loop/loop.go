// Package loop runs store dispatches on a single goroutine.
//
// A Loop serializes dispatches posted from any goroutine, drains a
// notification queue under a configurable flush policy, and owns the task
// context for background dispatchers. It is the explicit task-queue
// alternative to calling Store.Dispatch re-entrantly.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/odvcencio/burrow/notify"
	"github.com/odvcencio/burrow/store"
)

// FlushPolicy configures when the loop flushes the notification queue.
type FlushPolicy int

const (
	// FlushOnMessageAndTick flushes on any message or tick.
	FlushOnMessageAndTick FlushPolicy = iota
	// FlushOnMessage flushes on messages except TickMsg.
	FlushOnMessage
	// FlushOnTick flushes only on TickMsg.
	FlushOnTick
	// FlushManual flushes only on FlushMsg.
	FlushManual
)

// Config configures a Loop.
type Config struct {
	Store *store.Store
	// Queue receives scheduled notifications; nil creates one.
	Queue         *notify.Queue
	FlushPolicy   FlushPolicy
	TickRate      time.Duration
	MessageBuffer int
	// OnError receives dispatch errors. Nil discards them.
	OnError func(actionID string, err error)
}

// Loop serializes store dispatches and queue flushes on one goroutine.
type Loop struct {
	store    *store.Store
	queue    *notify.Queue
	policy   FlushPolicy
	tickRate time.Duration
	msgs     chan Message
	onError  func(string, error)

	flushPending atomic.Bool

	taskCtx    context.Context
	taskCancel context.CancelFunc
	pendingMu  sync.Mutex
	pending    []Task

	running bool
}

// New creates a Loop from config.
func New(cfg Config) *Loop {
	bufferSize := cfg.MessageBuffer
	if bufferSize <= 0 {
		bufferSize = 128
	}
	queue := cfg.Queue
	if queue == nil {
		queue = notify.NewQueue()
	}
	return &Loop{
		store:    cfg.Store,
		queue:    queue,
		policy:   cfg.FlushPolicy,
		tickRate: cfg.TickRate,
		msgs:     make(chan Message, bufferSize),
		onError:  cfg.OnError,
	}
}

// Store returns the loop's store.
func (l *Loop) Store() *store.Store {
	if l == nil {
		return nil
	}
	return l.store
}

// Queue returns the loop's notification queue.
func (l *Loop) Queue() *notify.Queue {
	if l == nil {
		return nil
	}
	return l.queue
}

// Scheduler returns a scheduler that enqueues notifications and wakes the
// loop to flush them. Use it with Store.SubscribeWith so listeners run on
// the loop goroutine.
func (l *Loop) Scheduler() notify.Scheduler {
	if l == nil {
		return nil
	}
	return wakeScheduler{loop: l}
}

// Post sends a dispatch into the loop without blocking.
func (l *Loop) Post(actionID string, payload any) bool {
	return l.PostMessage(DispatchMsg{ActionID: actionID, Payload: payload})
}

// PostMessage sends a message into the loop without blocking.
func (l *Loop) PostMessage(msg Message) bool {
	if l == nil || l.msgs == nil || msg == nil {
		return false
	}
	select {
	case l.msgs <- msg:
		return true
	default:
		return false
	}
}

// Stop asks the loop to exit after the current message.
func (l *Loop) Stop() {
	l.PostMessage(StopMsg{})
}

// Spawn starts a task under the loop task context.
// Before Run, the task is held until the loop starts.
func (l *Loop) Spawn(task Task) {
	if l == nil || task.Run == nil {
		return
	}
	if l.taskCtx == nil {
		l.pendingMu.Lock()
		l.pending = append(l.pending, task)
		l.pendingMu.Unlock()
		return
	}
	l.runTask(task)
}

// After schedules a delayed dispatch under the loop task context.
func (l *Loop) After(delay time.Duration, actionID string, payload any) {
	l.Spawn(After(delay, actionID, payload))
}

// Every schedules a recurring dispatch under the loop task context.
func (l *Loop) Every(interval time.Duration, fn func(time.Time) (string, any, bool)) {
	l.Spawn(Every(interval, fn))
}

// Run processes messages until Stop or context cancellation.
// Dispatch errors go to OnError; they do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx, taskCancel := context.WithCancel(ctx)
	l.taskCtx = taskCtx
	l.taskCancel = taskCancel
	defer func() {
		taskCancel()
		l.taskCtx = nil
		l.taskCancel = nil
	}()

	l.running = true
	l.startPendingTasks()

	var ticks <-chan time.Time
	if l.tickRate > 0 {
		ticker := time.NewTicker(l.tickRate)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for l.running {
		var msg Message
		select {
		case <-ctx.Done():
			l.running = false
		case msg = <-l.msgs:
			l.handle(ctx, msg)
		case now := <-ticks:
			msg = TickMsg{Time: now}
			l.handle(ctx, msg)
		}

		if !l.running {
			continue
		}
		if msg != nil {
			l.flushIfNeeded(msg)
		}
	}

	return ctx.Err()
}

func (l *Loop) handle(ctx context.Context, msg Message) {
	switch m := msg.(type) {
	case DispatchMsg:
		if l.store == nil {
			return
		}
		if err := l.store.Dispatch(ctx, m.ActionID, m.Payload); err != nil && l.onError != nil {
			l.onError(m.ActionID, err)
		}
	case StopMsg:
		l.running = false
	}
}

func (l *Loop) flushIfNeeded(msg Message) {
	if l.queue == nil || !shouldFlush(l.policy, msg) {
		return
	}
	l.flushPending.Store(false)
	l.queue.Flush()
}

func shouldFlush(policy FlushPolicy, msg Message) bool {
	if _, ok := msg.(FlushMsg); ok {
		return true
	}
	if policy == FlushManual {
		return false
	}
	_, isTick := msg.(TickMsg)
	switch policy {
	case FlushOnMessage:
		return !isTick
	case FlushOnTick:
		return isTick
	default:
		return true
	}
}

func (l *Loop) runTask(task Task) {
	ctx := l.taskCtx
	if ctx == nil {
		ctx = context.Background()
	}
	go task.Run(ctx, l.Post)
}

func (l *Loop) startPendingTasks() {
	l.pendingMu.Lock()
	tasks := l.pending
	l.pending = nil
	l.pendingMu.Unlock()
	for _, task := range tasks {
		l.runTask(task)
	}
}

// wake posts a flush message with coalescing, so a burst of scheduled
// notifications produces a single wake-up.
func (l *Loop) wake() {
	if l == nil {
		return
	}
	if l.flushPending.CompareAndSwap(false, true) {
		if !l.PostMessage(FlushMsg{}) {
			l.flushPending.Store(false)
		}
	}
}

type wakeScheduler struct {
	loop *Loop
}

func (s wakeScheduler) Schedule(fn func()) {
	if s.loop == nil || s.loop.queue == nil || fn == nil {
		return
	}
	s.loop.queue.Schedule(fn)
	s.loop.wake()
}

func (s wakeScheduler) ScheduleKeyed(key any, fn func()) {
	if s.loop == nil || s.loop.queue == nil || fn == nil {
		return
	}
	s.loop.queue.ScheduleKeyed(key, fn)
	s.loop.wake()
}
