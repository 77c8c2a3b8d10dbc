package storage

import (
	"sync"
	"sync/atomic"
)

// feed fans changes out to subscribers without ever blocking the writer.
type feed struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan Change
	closed  bool
	dropped uint64
}

func newFeed() *feed {
	return &feed{subs: make(map[int]chan Change)}
}

func (f *feed) subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if sub, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(sub)
			}
		})
	}
}

func (f *feed) publish(changes ...Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, c := range changes {
		for _, sub := range f.subs {
			select {
			case sub <- c:
			default:
				atomic.AddUint64(&f.dropped, 1)
			}
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, sub := range f.subs {
		delete(f.subs, id)
		close(sub)
	}
}

func (f *feed) droppedCount() uint64 {
	return atomic.LoadUint64(&f.dropped)
}
