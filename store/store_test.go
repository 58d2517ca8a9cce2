package store

import (
	"context"
	"errors"
	"testing"
)

func increment(s State, _ DispatchFunc, _ any) State {
	count, _ := Value[int](s, "count")
	return State{"count": count + 1}
}

func newCounterStore() *Store {
	return New(Config{
		Initial: State{"count": 0},
		Actions: map[string]Action{"INCREMENT": increment},
	})
}

func TestStore_DispatchIncrementTwice(t *testing.T) {
	st := newCounterStore()
	notifications := 0
	st.Subscribe(func(State) {
		notifications++
	})

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if count, _ := Value[int](st.Snapshot(), "count"); count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if notifications != 2 {
		t.Fatalf("expected 2 notifications, got %d", notifications)
	}
}

func TestStore_EveryListenerNotifiedOnce(t *testing.T) {
	st := newCounterStore()
	calls := make([]int, 3)
	for i := range calls {
		st.Subscribe(func(State) {
			calls[i]++
		})
	}

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	for i, n := range calls {
		if n != 1 {
			t.Fatalf("expected listener %d called once, got %d", i, n)
		}
	}
}

func TestStore_CancelStopsNotifications(t *testing.T) {
	st := newCounterStore()
	calls := 0
	sub := st.Subscribe(func(State) {
		calls++
	})

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	sub.Cancel()
	sub.Cancel()
	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected no calls after cancel, got %d", calls)
	}
	if st.Listeners() != 0 {
		t.Fatalf("expected empty registry, got %d", st.Listeners())
	}
}

func TestStore_UnknownActionNotifiesUnchanged(t *testing.T) {
	st := New(Config{
		Initial: State{"products": []string{"p1"}},
	})
	var seen State
	calls := 0
	st.Subscribe(func(s State) {
		calls++
		seen = s
	})

	if err := st.Dispatch(context.Background(), "TOGGLE_FAV", "p1"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	products, ok := Value[[]string](seen, "products")
	if !ok || len(products) != 1 || products[0] != "p1" {
		t.Fatalf("expected products unchanged, got %v", seen["products"])
	}
}

func TestStore_NotificationOrderMatchesRegistration(t *testing.T) {
	st := newCounterStore()
	var order []string
	st.Subscribe(func(State) { order = append(order, "parent") })
	st.Subscribe(func(State) { order = append(order, "child") })

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(order) != 2 || order[0] != "parent" || order[1] != "child" {
		t.Fatalf("expected parent before child, got %v", order)
	}
}

func TestStore_SideEffectRunsBeforeAction(t *testing.T) {
	var order []string
	st := New(Config{
		Initial: State{"count": 0},
		Actions: map[string]Action{
			"INCREMENT": func(s State, d DispatchFunc, p any) State {
				order = append(order, "action")
				return increment(s, d, p)
			},
		},
		SideEffects: map[string]SideEffect{
			"INCREMENT": func(ctx context.Context, s State, d DispatchFunc, p any) error {
				order = append(order, "effect")
				return nil
			},
		},
	})

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(order) != 2 || order[0] != "effect" || order[1] != "action" {
		t.Fatalf("expected effect before action, got %v", order)
	}
}

func TestStore_SideEffectDispatchMergesFirst(t *testing.T) {
	var merges []string
	st := New(Config{
		Initial: State{"log": "", "count": 0},
		Actions: map[string]Action{
			"FIRST": func(s State, _ DispatchFunc, _ any) State {
				merges = append(merges, "first")
				return State{"log": "first"}
			},
			"SECOND": func(s State, _ DispatchFunc, _ any) State {
				merges = append(merges, "second")
				return State{"count": 41}
			},
		},
		SideEffects: map[string]SideEffect{
			"FIRST": func(ctx context.Context, s State, dispatch DispatchFunc, _ any) error {
				return dispatch(ctx, "SECOND", nil)
			},
		},
	})

	if err := st.Dispatch(context.Background(), "FIRST", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(merges) != 2 || merges[0] != "second" || merges[1] != "first" {
		t.Fatalf("expected nested merge first, got %v", merges)
	}
	snap := st.Snapshot()
	if count, _ := Value[int](snap, "count"); count != 41 {
		t.Fatalf("expected nested merge applied, got %v", snap["count"])
	}
	if log, _ := Value[string](snap, "log"); log != "first" {
		t.Fatalf("expected outer merge applied, got %v", snap["log"])
	}
}

func TestStore_SideEffectErrorAbortsDispatch(t *testing.T) {
	boom := errors.New("boom")
	actionRan := false
	st := New(Config{
		Initial: State{"count": 0},
		Actions: map[string]Action{
			"INCREMENT": func(s State, d DispatchFunc, p any) State {
				actionRan = true
				return increment(s, d, p)
			},
		},
		SideEffects: map[string]SideEffect{
			"INCREMENT": func(context.Context, State, DispatchFunc, any) error {
				return boom
			},
		},
	})
	calls := 0
	st.Subscribe(func(State) {
		calls++
	})

	err := st.Dispatch(context.Background(), "INCREMENT", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped side-effect error, got %v", err)
	}
	if actionRan {
		t.Fatalf("expected action skipped after side-effect error")
	}
	if calls != 0 {
		t.Fatalf("expected no notifications after aborted dispatch, got %d", calls)
	}
	if count, _ := Value[int](st.Snapshot(), "count"); count != 0 {
		t.Fatalf("expected state unchanged, got %d", count)
	}
}

func TestStore_RecursiveDispatchDepthGuard(t *testing.T) {
	st := New(Config{MaxDepth: 8})
	st.Configure(map[string]Action{
		"LOOP": func(s State, dispatch DispatchFunc, _ any) State {
			_ = dispatch(context.Background(), "LOOP", nil)
			return nil
		},
	}, nil, nil)

	if err := st.Dispatch(context.Background(), "LOOP", nil); err != nil {
		t.Fatalf("expected outer dispatch to succeed, got %v", err)
	}

	bounced := false
	st.Configure(map[string]Action{
		"BOUNCE": func(s State, dispatch DispatchFunc, _ any) State {
			if err := dispatch(context.Background(), "BOUNCE", nil); errors.Is(err, ErrDepthExceeded) {
				bounced = true
			}
			return nil
		},
	}, nil, nil)
	if err := st.Dispatch(context.Background(), "BOUNCE", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !bounced {
		t.Fatalf("expected ErrDepthExceeded from nested dispatch")
	}
}

func TestStore_ConfigureIsAdditive(t *testing.T) {
	st := newCounterStore()
	st.Configure(map[string]Action{
		"RESET": func(State, DispatchFunc, any) State {
			return State{"count": 0}
		},
	}, nil, State{"label": "counter"})

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := st.Dispatch(context.Background(), "RESET", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	snap := st.Snapshot()
	if count, _ := Value[int](snap, "count"); count != 0 {
		t.Fatalf("expected reset count, got %d", count)
	}
	if label, _ := Value[string](snap, "label"); label != "counter" {
		t.Fatalf("expected merged initial state, got %v", snap["label"])
	}
}

func TestStore_SnapshotsAreImmutable(t *testing.T) {
	st := newCounterStore()
	before := st.Snapshot()

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if count, _ := Value[int](before, "count"); count != 0 {
		t.Fatalf("expected prior snapshot untouched, got %d", count)
	}
	if count, _ := Value[int](st.Snapshot(), "count"); count != 1 {
		t.Fatalf("expected new snapshot updated, got %d", count)
	}
}

func TestStore_CancelDuringFanOut(t *testing.T) {
	st := newCounterStore()
	secondCalls := 0
	var second *Subscription
	st.Subscribe(func(State) {
		second.Cancel()
	})
	second = st.Subscribe(func(State) {
		secondCalls++
	})

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	// The in-flight batch still includes the cancelled listener.
	if secondCalls != 1 {
		t.Fatalf("expected in-flight notification, got %d", secondCalls)
	}

	if err := st.Dispatch(context.Background(), "INCREMENT", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if secondCalls != 1 {
		t.Fatalf("expected no calls after cancel, got %d", secondCalls)
	}
}
