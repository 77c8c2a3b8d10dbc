package badge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/sandeepkv93/tabdo/internal/storage"
	"github.com/sandeepkv93/tabdo/internal/tasks"
	"go.uber.org/zap"
)

// Renderer owns the badge label. It runs in its own goroutine and reacts both to
// direct messages and to storage changes, so writes from other processes show up too.
type Renderer struct {
	log      *zap.Logger
	inbox    chan Message
	onRender func(string)
	running  atomic.Bool

	mu      sync.Mutex
	text    string
	count   *int
	enabled bool
}

type Option func(*Renderer)

// WithOnRender is called with every new label, including the empty one.
func WithOnRender(fn func(string)) Option {
	return func(r *Renderer) { r.onRender = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

func NewRenderer(buffer int, opts ...Option) *Renderer {
	if buffer <= 0 {
		buffer = 1
	}
	r := &Renderer{
		log:     zap.NewNop(),
		inbox:   make(chan Message, buffer),
		enabled: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sender returns the handle the UI uses to reach this renderer.
func (r *Renderer) Sender() Sender {
	return rendererSender{r: r}
}

type rendererSender struct {
	r *Renderer
}

func (s rendererSender) Send(msg Message) bool {
	if !s.r.running.Load() {
		return false
	}
	select {
	case s.r.inbox <- msg:
		return true
	default:
		return false
	}
}

// Prime loads the current task count and badgeEnabled flag before Run starts.
func (r *Renderer) Prime(ctx context.Context, kv storage.Store) error {
	enabled, err := kv.Get(ctx, storage.KeyBadgeEnabled)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("prime badge flag: %w", err)
	}
	raw, err := kv.Get(ctx, storage.KeyTasks)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("prime badge count: %w", err)
	}
	remaining := tasks.Decode(raw, r.log).Remaining()

	r.mu.Lock()
	r.enabled = DecodeEnabled(enabled)
	r.count = &remaining
	text := r.renderLocked()
	r.mu.Unlock()
	r.emit(text)
	return nil
}

// Run consumes messages and storage changes until ctx ends or changes closes.
func (r *Renderer) Run(ctx context.Context, changes <-chan storage.Change) {
	r.running.Store(true)
	defer r.running.Store(false)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.inbox:
			r.apply(msg)
		case c, ok := <-changes:
			if !ok {
				return
			}
			r.applyChange(c)
		}
	}
}

func (r *Renderer) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

func (r *Renderer) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *Renderer) apply(msg Message) {
	if msg.Type != TypeUpdateBadge {
		r.log.Debug("ignoring badge message", zap.String("type", msg.Type))
		return
	}
	r.mu.Lock()
	if msg.Count == nil {
		r.count = nil
	} else {
		n := *msg.Count
		r.count = &n
	}
	text := r.renderLocked()
	r.mu.Unlock()
	r.emit(text)
}

func (r *Renderer) applyChange(c storage.Change) {
	switch c.Key {
	case storage.KeyTasks:
		remaining := tasks.Decode(c.NewValue, r.log).Remaining()
		r.apply(Update(remaining))
	case storage.KeyBadgeEnabled:
		r.mu.Lock()
		r.enabled = DecodeEnabled(c.NewValue)
		text := r.renderLocked()
		r.mu.Unlock()
		r.emit(text)
	}
}

func (r *Renderer) renderLocked() string {
	if r.enabled {
		r.text = Text(r.count)
	} else {
		r.text = ""
	}
	return r.text
}

func (r *Renderer) emit(text string) {
	if r.onRender != nil {
		r.onRender(text)
	}
}

// FileSink returns an OnRender callback that mirrors the label into path, for status
// bars that poll a file. Write failures are logged and otherwise ignored.
func FileSink(path string, log *zap.Logger) func(string) {
	if log == nil {
		log = zap.NewNop()
	}
	return func(text string) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Warn("badge file dir", zap.String("path", path), zap.Error(err))
			return
		}
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, []byte(text+"\n"), 0o644); err != nil {
			log.Warn("badge file write", zap.String("path", path), zap.Error(err))
			return
		}
		if err := os.Rename(tmp, path); err != nil {
			log.Warn("badge file rename", zap.String("path", path), zap.Error(err))
		}
	}
}
