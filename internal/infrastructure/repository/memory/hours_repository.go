package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
)

type hoursKey struct {
	participantID int64
	day           time.Time
}

type HoursRepository struct {
	mu     sync.RWMutex
	items  map[hoursKey]hours.Record
	nextID int64
}

func NewHoursRepository(records []hours.Record) *HoursRepository {
	r := &HoursRepository{items: make(map[hoursKey]hours.Record, len(records))}
	_ = r.Upsert(context.Background(), records)
	return r
}

func (r *HoursRepository) ListInRange(_ context.Context, start, end time.Time) ([]hours.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from, to := season.Day(start), season.Day(end)
	out := make([]hours.Record, 0)
	for k, rec := range r.items {
		if k.day.Before(from) || k.day.After(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WorkDate.Equal(out[j].WorkDate) {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

func (r *HoursRepository) Upsert(_ context.Context, records []hours.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		rec.WorkDate = season.Day(rec.WorkDate)
		k := hoursKey{participantID: rec.ParticipantID, day: rec.WorkDate}
		if existing, ok := r.items[k]; ok {
			rec.ID = existing.ID
		} else {
			r.nextID++
			rec.ID = r.nextID
		}
		r.items[k] = rec
	}
	return nil
}
