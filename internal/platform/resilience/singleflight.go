package resilience

import (
	"context"
	"sync"
)

// Flight collapses concurrent loads of the same key into one call.
// Callers that give up through their context stop waiting; the load itself keeps running
// for the remaining callers.
type Flight[V any] struct {
	mu       sync.Mutex
	inflight map[string]*flightCall[V]
}

type flightCall[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Do runs fn once per key at a time. shared reports whether the result came from another caller's run.
func (f *Flight[V]) Do(ctx context.Context, key string, fn func() (V, error)) (v V, shared bool, err error) {
	f.mu.Lock()
	if f.inflight == nil {
		f.inflight = make(map[string]*flightCall[V])
	}
	if c, ok := f.inflight[key]; ok {
		f.mu.Unlock()
		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero V
			return zero, true, ctx.Err()
		}
	}

	c := &flightCall[V]{done: make(chan struct{})}
	f.inflight[key] = c
	f.mu.Unlock()

	c.val, c.err = fn()

	f.mu.Lock()
	delete(f.inflight, key)
	f.mu.Unlock()
	close(c.done)

	return c.val, false, c.err
}

// InFlight returns the number of keys currently loading.
func (f *Flight[V]) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inflight)
}
