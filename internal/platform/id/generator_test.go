package id

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7_IsVersion7AndOrdered(t *testing.T) {
	gen := UUIDv7()

	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	parsed, err := uuid.Parse(first)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
	if first >= second {
		t.Fatalf("expected increasing ids: %s then %s", first, second)
	}
}

func TestSequence_Concurrent(t *testing.T) {
	gen := Sequence("audit")

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := gen.NewID()
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Fatalf("expected 50 distinct ids, got %d", len(seen))
	}
	if _, ok := seen["audit-50"]; !ok {
		t.Fatalf("expected audit-50 to be issued")
	}
}
