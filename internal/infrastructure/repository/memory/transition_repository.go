package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
)

// TransitionRepository records season-end passes over an AssignmentRepository.
// Changes are stored only when the record is new, and the record only when the changes stuck.
type TransitionRepository struct {
	mu          sync.Mutex
	assignments *AssignmentRepository
	records     map[int64]transition.Record
}

func NewTransitionRepository(assignments *AssignmentRepository) *TransitionRepository {
	return &TransitionRepository{
		assignments: assignments,
		records:     make(map[int64]transition.Record),
	}
}

func (r *TransitionRepository) Apply(ctx context.Context, record transition.Record, changes []hierarchy.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.SeasonID]; ok {
		return fmt.Errorf("season=%d: %w", record.SeasonID, transition.ErrAlreadyApplied)
	}
	if err := r.assignments.ApplyChanges(ctx, record.SeasonID, changes); err != nil {
		return err
	}
	if record.AppliedAt.IsZero() {
		record.AppliedAt = time.Now().UTC()
	}
	r.records[record.SeasonID] = record
	return nil
}

func (r *TransitionRepository) Get(_ context.Context, seasonID int64) (transition.Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[seasonID]
	return record, ok, nil
}
