package loop

import "github.com/odvcencio/burrow/store"

// Unit is a subscribing unit with a store-bound lifecycle.
// Mount should subscribe; Unmount should cancel those subscriptions.
type Unit interface {
	Mount(st *store.Store)
	Unmount()
}

// ChildProvider exposes nested units.
type ChildProvider interface {
	ChildUnits() []Unit
}

// MountTree mounts root and its descendants, parents first, so listener
// registration order matches the unit hierarchy and an ancestor is always
// notified before its descendants.
func MountTree(st *store.Store, root Unit) {
	mountUnit(st, root)
}

// UnmountTree unmounts root and its descendants, children first.
func UnmountTree(root Unit) {
	unmountUnit(root)
}

func mountUnit(st *store.Store, u Unit) {
	if u == nil {
		return
	}
	u.Mount(st)
	if children, ok := u.(ChildProvider); ok {
		for _, child := range children.ChildUnits() {
			mountUnit(st, child)
		}
	}
}

func unmountUnit(u Unit) {
	if u == nil {
		return
	}
	if children, ok := u.(ChildProvider); ok {
		for _, child := range children.ChildUnits() {
			unmountUnit(child)
		}
	}
	u.Unmount()
}
