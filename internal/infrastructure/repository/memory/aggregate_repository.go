package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
)

type dailyKey struct {
	participantID int64
	seasonID      int64
	day           time.Time
}

type seasonKey struct {
	participantID int64
	seasonID      int64
}

type AggregateRepository struct {
	mu     sync.RWMutex
	daily  map[dailyKey]aggregate.Daily
	season map[seasonKey]aggregate.Season
	nextID int64
}

func NewAggregateRepository() *AggregateRepository {
	return &AggregateRepository{
		daily:  make(map[dailyKey]aggregate.Daily),
		season: make(map[seasonKey]aggregate.Season),
	}
}

func (r *AggregateRepository) UpsertDaily(_ context.Context, rows []aggregate.Daily) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		k := dailyKey{participantID: row.ParticipantID, seasonID: row.SeasonID, day: row.WorkDate}
		if existing, ok := r.daily[k]; ok {
			row.ID = existing.ID
		} else {
			r.nextID++
			row.ID = r.nextID
		}
		r.daily[k] = row
	}
	return nil
}

func (r *AggregateRepository) UpsertSeason(_ context.Context, rows []aggregate.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		k := seasonKey{participantID: row.ParticipantID, seasonID: row.SeasonID}
		row.RankInGroup, row.CaptainRank = nil, nil
		if existing, ok := r.season[k]; ok {
			row.ID = existing.ID
			row.RankInGroup = existing.RankInGroup
			row.CaptainRank = existing.CaptainRank
		} else {
			r.nextID++
			row.ID = r.nextID
		}
		r.season[k] = row
	}
	return nil
}

func (r *AggregateRepository) ListBySeason(_ context.Context, seasonID int64) ([]aggregate.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]aggregate.Season, 0)
	for k, row := range r.season {
		if k.seasonID == seasonID {
			out = append(out, cloneSeasonAggregate(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out, nil
}

// ListDaily returns a participant's daily rows in date order.
func (r *AggregateRepository) ListDaily(_ context.Context, seasonID, participantID int64) ([]aggregate.Daily, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]aggregate.Daily, 0)
	for k, row := range r.daily {
		if k.seasonID == seasonID && k.participantID == participantID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })
	return out, nil
}

func (r *AggregateRepository) UpdateRanks(_ context.Context, seasonID int64, updates []aggregate.RankUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range updates {
		k := seasonKey{participantID: u.ParticipantID, seasonID: seasonID}
		row, ok := r.season[k]
		if !ok {
			continue
		}
		row.RankInGroup = cloneInt(u.RankInGroup)
		row.CaptainRank = cloneInt(u.CaptainRank)
		r.season[k] = row
	}
	return nil
}

func (r *AggregateRepository) Prune(_ context.Context, seasonID int64, keep []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	for k := range r.daily {
		if _, ok := kept[k.participantID]; k.seasonID == seasonID && !ok {
			delete(r.daily, k)
		}
	}
	removed := 0
	for k := range r.season {
		if _, ok := kept[k.participantID]; k.seasonID == seasonID && !ok {
			delete(r.season, k)
			removed++
		}
	}
	return removed, nil
}

func cloneSeasonAggregate(row aggregate.Season) aggregate.Season {
	row.RankInGroup = cloneInt(row.RankInGroup)
	row.CaptainRank = cloneInt(row.CaptainRank)
	return row
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
