package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	basecache "github.com/riskibarqy/pyramid-league/internal/platform/cache"
)

const participantKeyPrefix = "participant:"

// ParticipantRepository caches identities by id. ListByIDs serves what it can from the cache
// and fetches the remainder in one call.
type ParticipantRepository struct {
	next  participant.Repository
	cache *basecache.Store
}

func NewParticipantRepository(next participant.Repository, cache *basecache.Store) *ParticipantRepository {
	return &ParticipantRepository{next: next, cache: cache}
}

func participantKey(id int64) string {
	return participantKeyPrefix + "id:" + strconv.FormatInt(id, 10)
}

func (r *ParticipantRepository) GetByID(ctx context.Context, participantID int64) (participant.Participant, bool, error) {
	got, err := basecache.Load(ctx, r.cache, participantKey(participantID), func(ctx context.Context) (cachedParticipant, error) {
		item, exists, err := r.next.GetByID(ctx, participantID)
		return cachedParticipant{Value: item, Found: exists}, err
	})
	if err != nil {
		return participant.Participant{}, false, err
	}
	return got.Value, got.Found, nil
}

func (r *ParticipantRepository) ListByIDs(ctx context.Context, participantIDs []int64) ([]participant.Participant, error) {
	found := make(map[int64]cachedParticipant, len(participantIDs))
	missing := make([]int64, 0)
	for _, id := range participantIDs {
		if _, seen := found[id]; seen {
			continue
		}
		if v, ok := basecache.Peek[cachedParticipant](ctx, r.cache, participantKey(id)); ok {
			found[id] = v
			continue
		}
		found[id] = cachedParticipant{}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		loaded, err := r.next.ListByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			entry := cachedParticipant{Value: p, Found: true}
			found[p.ID] = entry
			r.cache.Set(ctx, participantKey(p.ID), entry)
		}
	}

	out := make([]participant.Participant, 0, len(found))
	emitted := make(map[int64]struct{}, len(found))
	for _, id := range participantIDs {
		if _, dup := emitted[id]; dup {
			continue
		}
		emitted[id] = struct{}{}
		if entry := found[id]; entry.Found {
			out = append(out, entry.Value)
		}
	}
	return out, nil
}

// GetByPhone is not cached; phone lookups only happen on sign-up.
func (r *ParticipantRepository) GetByPhone(ctx context.Context, phone string) (participant.Participant, bool, error) {
	return r.next.GetByPhone(ctx, phone)
}

// List always reads through and refreshes the id entries it returns.
func (r *ParticipantRepository) List(ctx context.Context) ([]participant.Participant, error) {
	items, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range items {
		r.cache.Set(ctx, participantKey(p.ID), cachedParticipant{Value: p, Found: true})
	}
	return items, nil
}

type cachedParticipant = basecache.Lookup[participant.Participant]
