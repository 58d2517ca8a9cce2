// Package persist saves and restores store state as JSON snapshots.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/odvcencio/burrow/store"
)

// Snapshotter reads and writes one JSON snapshot file.
type Snapshotter struct {
	path string
}

// NewSnapshotter creates a Snapshotter, ensuring the parent directory
// exists.
func NewSnapshotter(path string) (*Snapshotter, error) {
	if path == "" {
		return nil, errors.New("snapshot path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return &Snapshotter{path: path}, nil
}

// Path returns the snapshot file path.
func (p *Snapshotter) Path() string {
	if p == nil {
		return ""
	}
	return p.path
}

// Save writes state to the snapshot file.
func (p *Snapshotter) Save(state store.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return nil
}

// Load reads the snapshot file. A missing file reports os.ErrNotExist.
func (p *Snapshotter) Load() (store.State, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("snapshot %s: %w", p.path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	var state store.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("json unmarshal %s: %w", p.path, err)
	}
	return state, nil
}

// AutoSave subscribes to st and writes every post-dispatch state.
// Write errors go to onErr; nil discards them. Cancel the returned
// subscription to stop saving.
func (p *Snapshotter) AutoSave(st *store.Store, onErr func(error)) *store.Subscription {
	if p == nil || st == nil {
		return nil
	}
	return st.Subscribe(func(state store.State) {
		if err := p.Save(state); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

// Watch blocks until ctx is done, invoking onChange with the freshly loaded
// snapshot whenever the file is written. Load failures during watching are
// skipped; a partially written file is picked up on its next event.
func (p *Snapshotter) Watch(ctx context.Context, onChange func(store.State)) error {
	if p == nil || onChange == nil {
		return errors.New("snapshotter and onChange are required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic writers replace the file,
	// which would drop a watch on the file itself.
	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != p.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			state, err := p.Load()
			if err != nil {
				continue
			}
			onChange(state)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
}
