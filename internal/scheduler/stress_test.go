package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestEngineStressStatusEventsWithRolloverChurn(t *testing.T) {
	engine := NewEngine(4096)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const perWorker = 200
	total := workers * perWorker

	now := time.Now()
	var wg sync.WaitGroup
	wg.Add(workers + 1)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				delay := time.Duration((w+i)%50+10) * time.Millisecond
				ev := Event{
					ID:   fmt.Sprintf("w%d-%d", w, i),
					Kind: KindClearStatus,
					At:   now.Add(delay),
				}
				if err := engine.Schedule(ev); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if _, err := engine.ScheduleRollover(now); err != nil {
				t.Errorf("rollover failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	deadline := time.After(5 * time.Second)
	received := 0
	for received < total {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting events: received=%d total=%d dropped=%d", received, total, engine.Dropped())
		case ev := <-engine.C():
			if ev.Kind == KindRollover {
				t.Fatalf("rollover fired early: %+v", ev)
			}
			received++
		}
	}

	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected a single pending rollover, got %d", engine.Pending())
	}
}
