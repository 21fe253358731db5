package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/ranking"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
)

type RankingService struct {
	loader     snapshotLoader
	aggregates aggregate.Repository
	locks      *resilience.KeyedMutex
	logger     *logging.Logger
}

func NewRankingService(
	seasonRepo season.Repository,
	assignmentRepo hierarchy.Repository,
	hoursRepo hours.Repository,
	aggregateRepo aggregate.Repository,
	locks *resilience.KeyedMutex,
	logger *logging.Logger,
) *RankingService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	return &RankingService{
		loader: snapshotLoader{
			seasons:     seasonRepo,
			assignments: assignmentRepo,
			hours:       hoursRepo,
			aggregates:  aggregateRepo,
		},
		aggregates: aggregateRepo,
		locks:      locks,
		logger:     logger,
	}
}

// UpdateRankings recomputes captainRank and rankInGroup from the stored
// season aggregates and returns the number of rows written.
func (s *RankingService) UpdateRankings(ctx context.Context, seasonID int64) (_ int, err error) {
	ctx, span := startSeasonSpan(ctx, "usecase.RankingService.UpdateRankings", seasonID)
	defer func() { endSpan(span, err) }()

	unlock := s.locks.Lock(seasonLockKey(seasonID))
	defer unlock()

	return s.updateRankings(ctx, seasonID)
}

func (s *RankingService) updateRankings(ctx context.Context, seasonID int64) (n int, err error) {
	defer func(started time.Time) { observability.ObserveEngineRun("ranking", started, err) }(time.Now())

	snap, err := s.loader.load(ctx, seasonID, snapshotParts{aggregates: true})
	if err != nil {
		return 0, err
	}

	updates := ranking.Assign(snap.Assignments, snap.Aggregates)
	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.aggregates.UpdateRanks(ctx, seasonID, updates); err != nil {
		return 0, fmt.Errorf("update ranks: %w", err)
	}
	observability.EngineRowsWritten.WithLabelValues("ranking", "aggregates_season").Add(float64(len(updates)))

	s.logger.InfoContext(ctx, "rankings updated", "season_id", seasonID, "rows", len(updates))
	return len(updates), nil
}
