// Package store provides an observable state store: a single state snapshot,
// registries of actions and side effects, and an ordered listener registry
// notified after every dispatch.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxDepth bounds recursive dispatch from actions and side effects.
const DefaultMaxDepth = 64

// ErrDepthExceeded reports a dispatch chain deeper than the configured limit.
var ErrDepthExceeded = errors.New("dispatch depth exceeded")

// DispatchFunc dispatches an action by identifier.
type DispatchFunc func(ctx context.Context, actionID string, payload any) error

// Action is a pure state transition. It receives the pre-dispatch snapshot
// and returns a partial state to shallow-merge; nil means no change. The
// supplied dispatch may be called recursively.
type Action func(state State, dispatch DispatchFunc, payload any) State

// SideEffect runs before the action registered under the same identifier.
// It may dispatch other actions. An error aborts the dispatch with state
// unchanged.
type SideEffect func(ctx context.Context, state State, dispatch DispatchFunc, payload any) error

// Config configures a Store.
type Config struct {
	Initial     State
	Actions     map[string]Action
	SideEffects map[string]SideEffect
	// MaxDepth bounds recursive dispatch. Zero means DefaultMaxDepth.
	MaxDepth int
	Observer DispatchObserver
}

// Store holds application state and fans out post-dispatch notifications.
// All methods are safe for concurrent use; dispatches interleave only at a
// side effect's blocking boundary.
type Store struct {
	mu       sync.Mutex
	state    State
	actions  map[string]Action
	effects  map[string]SideEffect
	maxDepth int
	observer DispatchObserver

	lmu       sync.Mutex
	listeners []listenerEntry
}

// New creates a Store from config.
func New(cfg Config) *Store {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	s := &Store{
		maxDepth: maxDepth,
		observer: cfg.Observer,
	}
	s.state = cfg.Initial.Clone()
	s.actions = make(map[string]Action, len(cfg.Actions))
	s.effects = make(map[string]SideEffect, len(cfg.SideEffects))
	s.Configure(cfg.Actions, cfg.SideEffects, nil)
	return s
}

// Configure merges actions and side effects into the registries and
// shallow-merges initial into state. Later calls add to existing entries;
// a same-key entry overwrites. Listeners are not notified.
func (s *Store) Configure(actions map[string]Action, sideEffects map[string]SideEffect, initial State) {
	if s == nil {
		return
	}
	s.mu.Lock()
	for id, action := range actions {
		if action != nil {
			s.actions[id] = action
		}
	}
	for id, effect := range sideEffects {
		if effect != nil {
			s.effects[id] = effect
		}
	}
	if len(initial) > 0 {
		s.state = s.state.merge(initial)
	}
	s.mu.Unlock()
}

// Snapshot returns the current state. The returned map is shared and must
// be treated as read-only.
func (s *Store) Snapshot() State {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	return state
}

// Dispatch runs the side effect registered for actionID (awaiting it), then
// the action, shallow-merges the resulting partial state, and notifies every
// current listener with the new state in registration order.
//
// An actionID with neither action nor side effect is a no-op merge: state is
// unchanged but listeners are still notified. A side-effect error aborts the
// dispatch before the action runs, leaving state unchanged.
func (s *Store) Dispatch(ctx context.Context, actionID string, payload any) error {
	return s.dispatch(ctx, actionID, payload, 0)
}

func (s *Store) dispatch(ctx context.Context, actionID string, payload any, depth int) error {
	if s == nil {
		return nil
	}
	if depth >= s.maxDepth {
		return fmt.Errorf("dispatch %q: %w", actionID, ErrDepthExceeded)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	observer := s.observer
	var stats DispatchStats
	if observer != nil {
		stats.ActionID = actionID
		stats.Depth = depth
		stats.Started = time.Now()
	}

	next := func(ctx context.Context, id string, payload any) error {
		return s.dispatch(ctx, id, payload, depth+1)
	}

	s.mu.Lock()
	effect := s.effects[actionID]
	action := s.actions[actionID]
	s.mu.Unlock()

	if effect != nil {
		start := time.Now()
		err := effect(ctx, s.Snapshot(), next, payload)
		if observer != nil {
			stats.HadSideEffect = true
			stats.SideEffectDuration = time.Since(start)
		}
		if err != nil {
			err = fmt.Errorf("side effect %q: %w", actionID, err)
			if observer != nil {
				stats.Err = err
				stats.TotalDuration = time.Since(stats.Started)
				observer.ObserveDispatch(stats)
			}
			return err
		}
		// The effect may have dispatched; re-read the action registry so a
		// Configure call made during the effect is honored.
		s.mu.Lock()
		action = s.actions[actionID]
		s.mu.Unlock()
	}

	var partial State
	if action != nil {
		partial = action(s.Snapshot(), next, payload)
		if observer != nil {
			stats.HadAction = true
		}
	}

	applyStart := time.Now()
	s.mu.Lock()
	newState := s.state.merge(partial)
	s.state = newState
	s.mu.Unlock()
	if observer != nil {
		stats.ApplyDuration = time.Since(applyStart)
		stats.ChangedKeys = len(partial)
	}

	notifyStart := time.Now()
	stats.Listeners = s.notifyAll(newState)
	if observer != nil {
		stats.NotifyDuration = time.Since(notifyStart)
		stats.TotalDuration = time.Since(stats.Started)
		observer.ObserveDispatch(stats)
	}
	return nil
}
