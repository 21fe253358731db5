package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
)

type ParticipantRepository struct {
	mu    sync.RWMutex
	items map[int64]participant.Participant
}

func NewParticipantRepository(items []participant.Participant) *ParticipantRepository {
	r := &ParticipantRepository{items: make(map[int64]participant.Participant, len(items))}
	for _, p := range items {
		r.items[p.ID] = cloneParticipant(p)
	}
	return r
}

func (r *ParticipantRepository) GetByID(_ context.Context, participantID int64) (participant.Participant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[participantID]
	if !ok {
		return participant.Participant{}, false, nil
	}
	return cloneParticipant(p), true, nil
}

// ListByIDs skips unknown ids and keeps the request order.
func (r *ParticipantRepository) ListByIDs(_ context.Context, participantIDs []int64) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]participant.Participant, 0, len(participantIDs))
	seen := make(map[int64]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.items[id]; ok {
			out = append(out, cloneParticipant(p))
		}
	}
	return out, nil
}

func (r *ParticipantRepository) GetByPhone(_ context.Context, phone string) (participant.Participant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := participant.NormalizePhone(phone)
	for _, p := range r.items {
		if participant.NormalizePhone(p.Phone) == want {
			return cloneParticipant(p), true, nil
		}
	}
	return participant.Participant{}, false, nil
}

func (r *ParticipantRepository) List(_ context.Context) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]participant.Participant, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, cloneParticipant(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneParticipant(p participant.Participant) participant.Participant {
	if p.TelegramUserID != nil {
		v := *p.TelegramUserID
		p.TelegramUserID = &v
	}
	return p
}
