package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_SharesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "season-1", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for range workers {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "season:id:1", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "season-1" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
	if got := store.Stats().Loads; got != 1 {
		t.Fatalf("unexpected load count: got=%d want=1", got)
	}
}

func TestStore_GetOrLoad_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	for range 2 {
		if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
			t.Fatalf("GetOrLoad error: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times before expiry, want 1", got)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("GetOrLoad after expiry error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times after expiry, want 2", got)
	}

	stats := store.Stats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	boom := errors.New("db down")
	if _, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected failed load to leave the store empty")
	}
}

func TestLoadAndPeek_Typed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	var calls int
	loader := func(context.Context) (Lookup[string], error) {
		calls++
		return Lookup[string]{}, nil
	}
	for range 2 {
		got, err := Load(ctx, store, "participant:id:404", loader)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.Found {
			t.Fatalf("expected cached miss, got %+v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected not-found to be cached, loader ran %d times", calls)
	}

	if _, ok := Peek[Lookup[string]](ctx, store, "participant:id:404"); !ok {
		t.Fatalf("expected peek hit")
	}
	if _, ok := Peek[int](ctx, store, "participant:id:404"); ok {
		t.Fatalf("expected peek with the wrong type to miss")
	}
}

func TestStore_DeleteAndDeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "season:list", 1)
	store.Set(ctx, "season:id:1", 2)
	store.Set(ctx, "participant:id:1", 3)

	store.DeletePrefix(ctx, "season:")
	if _, ok := store.Get(ctx, "season:id:1"); ok {
		t.Fatalf("expected season keys to be removed")
	}
	if _, ok := store.Get(ctx, "participant:id:1"); !ok {
		t.Fatalf("expected participant key to survive")
	}

	store.Delete(ctx, "participant:id:1")
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
