package update

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/sandeepkv93/tabdo/internal/storage"
)

// ownWriteMemory is how many recent values per key are remembered as this session's own.
const ownWriteMemory = 16

// ownWrites remembers digests of values this session saved. Copies of them that come
// back on a change feed are echoes and must not replace newer in-memory state.
type ownWrites struct {
	mu    sync.Mutex
	byKey map[string][][sha256.Size]byte
}

func newOwnWrites() *ownWrites {
	return &ownWrites{byKey: make(map[string][][sha256.Size]byte)}
}

func (w *ownWrites) note(key string, v []byte) {
	sum := sha256.Sum256(v)
	w.mu.Lock()
	defer w.mu.Unlock()
	recent := append(w.byKey[key], sum)
	if len(recent) > ownWriteMemory {
		recent = recent[len(recent)-ownWriteMemory:]
	}
	w.byKey[key] = recent
}

func (w *ownWrites) seen(key string, v []byte) bool {
	sum := sha256.Sum256(v)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.byKey[key] {
		if s == sum {
			return true
		}
	}
	return false
}

// recordingStore notes every value before handing the write to the wrapped store.
type recordingStore struct {
	storage.Store
	writes *ownWrites
}

func (s recordingStore) Set(ctx context.Context, values map[string][]byte) error {
	for k, v := range values {
		if v == nil {
			v = []byte{}
		}
		s.writes.note(k, v)
	}
	return s.Store.Set(ctx, values)
}
