package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
)

type TransitionService struct {
	loader  snapshotLoader
	records transition.Repository
	policy  transition.Policy
	locks   *resilience.KeyedMutex
	logger  *logging.Logger
}

func NewTransitionService(
	seasonRepo season.Repository,
	assignmentRepo hierarchy.Repository,
	hoursRepo hours.Repository,
	aggregateRepo aggregate.Repository,
	transitionRepo transition.Repository,
	policy transition.Policy,
	locks *resilience.KeyedMutex,
	logger *logging.Logger,
) *TransitionService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	return &TransitionService{
		loader: snapshotLoader{
			seasons:     seasonRepo,
			assignments: assignmentRepo,
			hours:       hoursRepo,
			aggregates:  aggregateRepo,
		},
		records: transitionRepo,
		policy:  policy,
		locks:   locks,
		logger:  logger,
	}
}

// ApplySeasonEndTransitions runs the season-end role cascade against the
// stored aggregates and writes every role and edge change. A season gets one
// pass; a second call fails with ErrConflict.
func (s *TransitionService) ApplySeasonEndTransitions(ctx context.Context, seasonID int64) (_ transition.Result, err error) {
	ctx, span := startSeasonSpan(ctx, "usecase.TransitionService.ApplySeasonEndTransitions", seasonID)
	defer func() { endSpan(span, err) }()

	unlock := s.locks.Lock(seasonLockKey(seasonID))
	defer unlock()

	return s.apply(ctx, seasonID)
}

func (s *TransitionService) apply(ctx context.Context, seasonID int64) (result transition.Result, err error) {
	defer func(started time.Time) { observability.ObserveEngineRun("transition", started, err) }(time.Now())

	if _, done, err := s.recorded(ctx, seasonID); err != nil {
		return transition.Result{}, err
	} else if done {
		return transition.Result{}, fmt.Errorf("%w: season=%d: %w", ErrConflict, seasonID, transition.ErrAlreadyApplied)
	}

	snap, err := s.loader.load(ctx, seasonID, snapshotParts{aggregates: true})
	if err != nil {
		return transition.Result{}, err
	}

	result, changes, err := transition.Plan(snap.Assignments, snap.Aggregates, s.policy)
	switch {
	case errors.Is(err, transition.ErrNoAssignments):
		return transition.Result{}, notFoundf("season=%d has no assignments", seasonID)
	case errors.Is(err, transition.ErrMultipleLeaders):
		return transition.Result{}, fmt.Errorf("%w: %w", ErrConflict, err)
	case err != nil:
		return transition.Result{}, fmt.Errorf("plan transitions: %w", err)
	}

	err = s.records.Apply(ctx, transition.Record{SeasonID: seasonID, Result: result}, changes)
	switch {
	case errors.Is(err, transition.ErrAlreadyApplied):
		return transition.Result{}, fmt.Errorf("%w: %w", ErrConflict, err)
	case err != nil:
		return transition.Result{}, fmt.Errorf("apply role changes: %w", err)
	}
	observability.RoleMoves.WithLabelValues("promotion").Add(float64(len(result.Promotions)))
	observability.RoleMoves.WithLabelValues("demotion").Add(float64(len(result.Demotions)))
	observability.EngineRowsWritten.WithLabelValues("transition", "role_assignments").Add(float64(len(changes)))

	s.logger.InfoContext(ctx, "season end transitions applied",
		"season_id", seasonID,
		"mode", result.Mode,
		"promotions", len(result.Promotions),
		"demotions", len(result.Demotions),
		"maintained", len(result.Maintained),
		"writes", len(changes),
	)
	return result, nil
}

// applyOnce returns the stored pass when the season already had one, so a close
// interrupted after its role changes can finish without cascading again.
func (s *TransitionService) applyOnce(ctx context.Context, seasonID int64) (transition.Result, bool, error) {
	record, done, err := s.recorded(ctx, seasonID)
	if err != nil {
		return transition.Result{}, false, err
	}
	if done {
		return record.Result, true, nil
	}
	result, err := s.apply(ctx, seasonID)
	return result, false, err
}

func (s *TransitionService) recorded(ctx context.Context, seasonID int64) (transition.Record, bool, error) {
	record, done, err := s.records.Get(ctx, seasonID)
	if err != nil {
		return transition.Record{}, false, fmt.Errorf("get season transition record: %w", err)
	}
	return record, done, nil
}
