package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
)

type AssignmentRepository struct {
	mu    sync.RWMutex
	items map[int64]hierarchy.Assignment
}

func NewAssignmentRepository(items []hierarchy.Assignment) *AssignmentRepository {
	r := &AssignmentRepository{items: make(map[int64]hierarchy.Assignment, len(items))}
	for _, a := range items {
		r.items[a.ID] = a.Clone()
	}
	return r
}

func (r *AssignmentRepository) ListBySeason(_ context.Context, seasonID int64) ([]hierarchy.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]hierarchy.Assignment, 0)
	for _, a := range r.items {
		if a.SeasonID == seasonID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AssignmentRepository) Update(_ context.Context, assignmentID int64, patch hierarchy.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[assignmentID]
	if !ok {
		return fmt.Errorf("assignment %d not found", assignmentID)
	}
	r.items[assignmentID] = patch.Apply(a)
	return nil
}

// ApplyChanges is all or nothing: an unknown or foreign assignment aborts
// before any change is stored.
func (r *AssignmentRepository) ApplyChanges(_ context.Context, seasonID int64, changes []hierarchy.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[int64]hierarchy.Assignment, len(changes))
	for _, c := range changes {
		a, ok := next[c.AssignmentID]
		if !ok {
			a, ok = r.items[c.AssignmentID]
		}
		if !ok || a.SeasonID != seasonID {
			return fmt.Errorf("assignment %d not found in season %d", c.AssignmentID, seasonID)
		}
		next[c.AssignmentID] = c.Patch.Apply(a)
	}
	for id, a := range next {
		r.items[id] = a
	}
	return nil
}
