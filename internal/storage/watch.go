package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 50 * time.Millisecond

// Watcher turns writes made by other processes to the same database file into
// Changes. They go to the store's feed and to the watcher's own feed, which carries
// nothing this process wrote. Only the keys it was created with are compared.
type Watcher struct {
	store    *SQLiteStore
	keys     []string
	watcher  *fsnotify.Watcher
	external *feed

	mu     sync.Mutex
	last   map[string][]byte
	stamps map[string]time.Time

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	errs     chan error
}

func NewWatcher(store *SQLiteStore, keys ...string) (*Watcher, error) {
	if store == nil || store.Path() == "" {
		return nil, errors.New("storage: watcher needs a file-backed store")
	}
	if len(keys) == 0 {
		return nil, errors.New("storage: watcher needs at least one key")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		store:   store,
		keys:    append([]string(nil), keys...),
		watcher:  fw,
		external: newFeed(),
		last:     make(map[string][]byte, len(keys)),
		stamps:   make(map[string]time.Time, len(keys)),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		errs:    make(chan error, 8),
	}, nil
}

// Errors reports read failures hit while reconciling. Sends never block; excess errors are dropped.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Subscribe returns only the changes made by other processes.
func (w *Watcher) Subscribe(buffer int) (<-chan Change, func()) {
	return w.external.subscribe(buffer)
}

func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		_ = w.watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.snapshot(ctx)

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	own, cancel := w.store.Subscribe(32)
	go func() {
		defer close(w.doneCh)
		defer cancel()
		w.loop(ctx, own)
	}()
	return nil
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.doneCh
	}
	w.external.close()
}

func (w *Watcher) loop(ctx context.Context, own <-chan Change) {
	var debounce *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case c, ok := <-own:
			if !ok {
				return
			}
			w.remember(c.Key, c.NewValue)
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-fire:
			fire = nil
			w.reconcile(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(w.store.Path())
	name := filepath.Base(ev.Name)
	return name == base || strings.HasPrefix(name, base+"-")
}

func (w *Watcher) snapshot(ctx context.Context) {
	for _, key := range w.keys {
		w.touched(ctx, key)
		v, err := w.store.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			w.report(err)
			continue
		}
		w.remember(key, v)
	}
}

func (w *Watcher) reconcile(ctx context.Context) {
	changes := make([]Change, 0, len(w.keys))
	for _, key := range w.keys {
		if !w.touched(ctx, key) {
			continue
		}
		v, err := w.store.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			w.report(err)
			continue
		}
		if w.remember(key, v) {
			changes = append(changes, Change{Key: key, NewValue: v})
		}
	}
	if len(changes) > 0 {
		w.store.feed.publish(changes...)
		w.external.publish(changes...)
	}
}

// touched reports whether key's updated_at moved since the last look. A missing key
// or an unreadable stamp counts as touched so the value is compared directly.
func (w *Watcher) touched(ctx context.Context, key string) bool {
	at, err := w.store.UpdatedAt(ctx, key)
	if err != nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.stamps[key]; ok && prev.Equal(at) {
		return false
	}
	w.stamps[key] = at
	return true
}

// remember stores v as the last seen value for key and reports whether it differed.
func (w *Watcher) remember(key string, v []byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, seen := w.last[key]
	if seen && bytes.Equal(prev, v) {
		return false
	}
	w.last[key] = append([]byte(nil), v...)
	return seen || v != nil
}

func (w *Watcher) report(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
