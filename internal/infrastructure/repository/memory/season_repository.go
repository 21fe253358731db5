package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/season"
)

type SeasonRepository struct {
	mu     sync.RWMutex
	items  map[int64]season.Season
	nextID int64
}

func NewSeasonRepository(seasons []season.Season) *SeasonRepository {
	r := &SeasonRepository{items: make(map[int64]season.Season, len(seasons))}
	for _, s := range seasons {
		r.items[s.ID] = s
		r.nextID = max(r.nextID, s.ID)
	}
	return r
}

func (r *SeasonRepository) List(_ context.Context) ([]season.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]season.Season, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *SeasonRepository) GetByID(_ context.Context, seasonID int64) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[seasonID]
	return s, ok, nil
}

func (r *SeasonRepository) GetActive(_ context.Context) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.items {
		if s.Status == season.StatusActive {
			return s, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (r *SeasonRepository) Create(_ context.Context, s season.Season) (season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	s.ID = r.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.items[s.ID] = s
	return s, nil
}

func (r *SeasonRepository) Activate(_ context.Context, seasonID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.items[seasonID]
	if !ok {
		return fmt.Errorf("season %d not found", seasonID)
	}
	for id, s := range r.items {
		if s.Status == season.StatusActive && id != seasonID {
			s.Status = season.StatusClosed
			r.items[id] = s
		}
	}
	target.Status = season.StatusActive
	r.items[seasonID] = target
	return nil
}

func (r *SeasonRepository) UpdateStatus(_ context.Context, seasonID int64, status season.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[seasonID]
	if !ok {
		return fmt.Errorf("season %d not found", seasonID)
	}
	s.Status = status
	r.items[seasonID] = s
	return nil
}
