package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/waitlist"
)

type WaitlistRepository struct {
	mu     sync.RWMutex
	items  map[int64]waitlist.Entry
	nextID int64
}

func NewWaitlistRepository() *WaitlistRepository {
	return &WaitlistRepository{items: make(map[int64]waitlist.Entry)}
}

func (r *WaitlistRepository) Add(_ context.Context, entry waitlist.Entry) (waitlist.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	r.items[entry.ID] = entry
	return entry, nil
}

func (r *WaitlistRepository) GetByID(_ context.Context, entryID int64) (waitlist.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[entryID]
	return e, ok, nil
}

func (r *WaitlistRepository) GetByPhone(_ context.Context, phone string) (waitlist.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := participant.NormalizePhone(phone)
	for _, e := range r.items {
		if participant.NormalizePhone(e.Phone) == want {
			return e, true, nil
		}
	}
	return waitlist.Entry{}, false, nil
}

func (r *WaitlistRepository) List(_ context.Context) ([]waitlist.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]waitlist.Entry, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *WaitlistRepository) CountByStatus(_ context.Context, status waitlist.Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.items {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *WaitlistRepository) UpdateStatus(_ context.Context, entryID int64, status waitlist.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[entryID]
	if !ok {
		return fmt.Errorf("waitlist entry %d not found", entryID)
	}
	e.Status = status
	r.items[entryID] = e
	return nil
}
