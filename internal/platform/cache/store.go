package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
)

var errNilLoader = errors.New("cache loader is required")

// Stats are cumulative counters since the store was created.
type Stats struct {
	Hits   uint64
	Misses uint64
	Loads  uint64
}

type item struct {
	value    any
	deadline time.Time // zero means no expiry
}

// Store memoizes repository reads in process. Expired items are dropped lazily
// on read, and concurrent misses on one key share a single load.
type Store struct {
	ttl   time.Duration
	now   func() time.Time
	group resilience.Flight[any]

	mu    sync.RWMutex
	items map[string]item

	hits, misses, loads atomic.Uint64
}

// NewStore returns a store whose items live for ttl. A non-positive ttl keeps them until invalidated.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]item),
	}
}

func (s *Store) fresh(key string) (any, bool) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if it.deadline.IsZero() || s.now().Before(it.deadline) {
		return it.value, true
	}

	s.mu.Lock()
	if cur, still := s.items[key]; still && cur.deadline.Equal(it.deadline) {
		delete(s.items, key)
	}
	s.mu.Unlock()
	return nil, false
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	v, ok := s.fresh(key)
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return v, ok
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}
	it := item{value: value}
	if s.ttl > 0 {
		it.deadline = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
}

// Delete drops exact keys.
func (s *Store) Delete(_ context.Context, keys ...string) {
	s.removeWhere(func(key string) bool {
		for _, k := range keys {
			if k == key {
				return true
			}
		}
		return false
	})
}

// DeletePrefix drops every key under a namespace such as "season:".
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}
	s.removeWhere(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

func (s *Store) removeWhere(match func(string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.items {
		if match(key) {
			delete(s.items, key)
		}
	}
}

// GetOrLoad serves key from the store or runs loader once for all concurrent
// callers. Loader errors reach every waiter and are not stored.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, errNilLoader
	}
	if key == "" {
		return loader(ctx)
	}
	if v, ok := s.Get(ctx, key); ok {
		return v, nil
	}

	v, _, err := s.group.Do(ctx, key, func() (any, error) {
		if v, ok := s.fresh(key); ok {
			return v, nil
		}
		s.loads.Add(1)
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	return v, err
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load(), Loads: s.loads.Load()}
}
