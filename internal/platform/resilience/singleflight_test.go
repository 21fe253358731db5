package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFlight_DoCollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var f Flight[string]
	var runs atomic.Int32
	var sharedCount atomic.Int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			<-start
			v, shared, err := f.Do(context.Background(), "season:1", func() (string, error) {
				runs.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("flight call failed: %v", err)
			}
			if v != "ok" {
				t.Errorf("unexpected value: got=%q want=ok", v)
			}
			if shared {
				sharedCount.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Fatalf("expected one run, got %d", got)
	}
	if got := sharedCount.Load(); got != workers-1 {
		t.Fatalf("unexpected shared results: got=%d want=%d", got, workers-1)
	}
	if f.InFlight() != 0 {
		t.Fatalf("expected no keys in flight after completion")
	}
}

func TestFlight_WaiterHonoursContext(t *testing.T) {
	t.Parallel()

	var f Flight[int]
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _, _ = f.Do(context.Background(), "slow", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, shared, err := f.Do(ctx, "slow", func() (int, error) { return 2, nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !shared {
		t.Fatalf("expected waiter to be reported as shared")
	}
	close(release)
}

func TestFlight_DoPropagatesError(t *testing.T) {
	t.Parallel()

	var f Flight[int]
	boom := errors.New("boom")
	_, _, err := f.Do(context.Background(), "k", func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
