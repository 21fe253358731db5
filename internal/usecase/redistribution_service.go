package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
)

type RedistributeResult struct {
	SeasonID int64 `json:"seasonId"`
	Moved    int   `json:"moved"`
}

type RedistributionService struct {
	loader      snapshotLoader
	assignments hierarchy.Repository
	auditor     *AuditService
	locks       *resilience.KeyedMutex
	logger      *logging.Logger
	newRand     func() hierarchy.RandomSource
}

func NewRedistributionService(
	seasonRepo season.Repository,
	assignmentRepo hierarchy.Repository,
	hoursRepo hours.Repository,
	aggregateRepo aggregate.Repository,
	auditSvc *AuditService,
	locks *resilience.KeyedMutex,
	logger *logging.Logger,
) *RedistributionService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	return &RedistributionService{
		loader: snapshotLoader{
			seasons:     seasonRepo,
			assignments: assignmentRepo,
			hours:       hoursRepo,
			aggregates:  aggregateRepo,
		},
		assignments: assignmentRepo,
		auditor:     auditSvc,
		locks:       locks,
		logger:      logger,
		newRand: func() hierarchy.RandomSource {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

// WithRandom replaces the shuffle source, for reproducible runs.
func (s *RedistributionService) WithRandom(fn func() hierarchy.RandomSource) *RedistributionService {
	if fn != nil {
		s.newRand = fn
	}
	return s
}

// RedistributeGroups shuffles subcaptains across captains and members across
// subcaptains into balanced groups.
func (s *RedistributionService) RedistributeGroups(ctx context.Context, seasonID int64) (out RedistributeResult, err error) {
	ctx, span := startSeasonSpan(ctx, "usecase.RedistributionService.RedistributeGroups", seasonID)
	defer func() { endSpan(span, err) }()

	unlock := s.locks.Lock(seasonLockKey(seasonID))
	defer unlock()
	defer func(started time.Time) { observability.ObserveEngineRun("redistribution", started, err) }(time.Now())

	snap, err := s.loader.load(ctx, seasonID, snapshotParts{})
	if err != nil {
		return RedistributeResult{}, err
	}

	changes := hierarchy.Redistribute(snap.Assignments, s.newRand())
	if len(changes) > 0 {
		if err := s.assignments.ApplyChanges(ctx, seasonID, changes); err != nil {
			return RedistributeResult{}, fmt.Errorf("apply group changes: %w", err)
		}
	}
	observability.EngineRowsWritten.WithLabelValues("redistribution", "role_assignments").Add(float64(len(changes)))

	out = RedistributeResult{SeasonID: seasonID, Moved: len(changes)}
	s.auditor.Record(ctx, audit.ActionGroupsRedistributed, audit.EntitySeason, seasonID, out)
	s.logger.InfoContext(ctx, "groups redistributed", "season_id", seasonID, "moved", out.Moved)
	return out, nil
}
