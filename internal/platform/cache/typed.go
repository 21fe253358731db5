package cache

import "context"

// Lookup is a cached repository read. Found=false is cached as well, so an
// unknown id does not hit the database on every request.
type Lookup[T any] struct {
	Value T
	Found bool
}

// Load is GetOrLoad with the value typed as T.
func Load[T any](ctx context.Context, s *Store, key string, loader func(context.Context) (T, error)) (T, error) {
	v, err := s.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// Peek reads key without loading. A value of another type counts as a miss.
func Peek[T any](ctx context.Context, s *Store, key string) (T, bool) {
	v, ok := s.Get(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}
