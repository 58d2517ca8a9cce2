package store

// State is a snapshot of store state keyed by slice name.
//
// Snapshots handed to actions, side effects, and listeners are shared
// read-only values; every merge produces a fresh map, so a snapshot never
// changes after it is observed.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	next := make(State, len(s))
	for key, value := range s {
		next[key] = value
	}
	return next
}

// merge returns a fresh state with partial shallow-merged over s.
// A nil or empty partial still produces a copy.
func (s State) merge(partial State) State {
	next := s.Clone()
	for key, value := range partial {
		next[key] = value
	}
	return next
}

// Value reads the slice stored under key as a T.
// The second return is false when the key is absent or holds another type.
func Value[T any](s State, key string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	raw, ok := s[key]
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return value, true
}
