package usecase

import (
	"context"
	"fmt"
	"strconv"
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

// RecalculateResult summarizes one aggregation pass.
type RecalculateResult struct {
	SeasonID    int64 `json:"seasonId"`
	DailyRows   int   `json:"dailyRows"`
	SeasonRows  int   `json:"seasonRows"`
	RankedRows  int   `json:"rankedRows"`
	OrphanCount int   `json:"orphanCount"`
	PrunedRows  int   `json:"prunedRows"`
}

type AggregationService struct {
	loader     snapshotLoader
	aggregates aggregate.Repository
	ranking    *RankingService
	auditor    *AuditService
	locks      *resilience.KeyedMutex
	logger     *logging.Logger
}

func NewAggregationService(
	seasonRepo season.Repository,
	assignmentRepo hierarchy.Repository,
	hoursRepo hours.Repository,
	aggregateRepo aggregate.Repository,
	rankingSvc *RankingService,
	auditSvc *AuditService,
	locks *resilience.KeyedMutex,
	logger *logging.Logger,
) *AggregationService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	return &AggregationService{
		loader: snapshotLoader{
			seasons:     seasonRepo,
			assignments: assignmentRepo,
			hours:       hoursRepo,
			aggregates:  aggregateRepo,
		},
		aggregates: aggregateRepo,
		ranking:    rankingSvc,
		auditor:    auditSvc,
		locks:      locks,
		logger:     logger,
	}
}

// RecalculateAggregates rebuilds daily and season aggregates for one season
// from raw hours and the current hierarchy, then refreshes rankings.
// Existing ranks are left in place until the ranking step rewrites them.
func (s *AggregationService) RecalculateAggregates(ctx context.Context, seasonID int64) (_ RecalculateResult, err error) {
	ctx, span := startSeasonSpan(ctx, "usecase.AggregationService.RecalculateAggregates", seasonID)
	defer func() { endSpan(span, err) }()

	unlock := s.locks.Lock(seasonLockKey(seasonID))
	defer unlock()

	out, err := s.recalculate(ctx, seasonID)
	if err != nil {
		return RecalculateResult{}, err
	}

	if s.ranking != nil && out.SeasonRows > 0 {
		ranked, err := s.ranking.updateRankings(ctx, seasonID)
		if err != nil {
			return RecalculateResult{}, fmt.Errorf("update rankings after recalculation: %w", err)
		}
		out.RankedRows = ranked
	}

	s.auditor.Record(ctx, audit.ActionAggregatesRecalc, audit.EntitySeason, seasonID, out)
	return out, nil
}

func (s *AggregationService) recalculate(ctx context.Context, seasonID int64) (out RecalculateResult, err error) {
	defer func(started time.Time) { observability.ObserveEngineRun("aggregation", started, err) }(time.Now())

	snap, err := s.loader.load(ctx, seasonID, snapshotParts{hours: true})
	if err != nil {
		return RecalculateResult{}, err
	}
	out.SeasonID = seasonID
	if len(snap.Assignments) == 0 {
		s.logger.InfoContext(ctx, "aggregation skipped, season has no assignments", "season_id", seasonID)
		return out, nil
	}

	result := aggregate.Compute(snap.Season, snap.Assignments, snap.Records)
	for _, orphan := range result.Orphans {
		s.logger.WarnContext(ctx, "hierarchy orphan",
			"season_id", seasonID,
			"participant_id", orphan.ParticipantID,
			"role", orphan.Role,
			"parent_id", orphan.ParentID,
			"reason", orphan.Reason,
		)
	}
	observability.HierarchyOrphans.WithLabelValues(strconv.FormatInt(seasonID, 10)).Set(float64(len(result.Orphans)))

	keep := make([]int64, 0, len(result.Season))
	for _, row := range result.Season {
		keep = append(keep, row.ParticipantID)
	}
	pruned, err := s.aggregates.Prune(ctx, seasonID, keep)
	if err != nil {
		return RecalculateResult{}, fmt.Errorf("prune stale aggregates: %w", err)
	}

	if len(result.Daily) > 0 {
		if err := s.aggregates.UpsertDaily(ctx, result.Daily); err != nil {
			return RecalculateResult{}, fmt.Errorf("upsert daily aggregates: %w", err)
		}
		observability.EngineRowsWritten.WithLabelValues("aggregation", "aggregates_daily").Add(float64(len(result.Daily)))
	}
	if err := s.aggregates.UpsertSeason(ctx, result.Season); err != nil {
		return RecalculateResult{}, fmt.Errorf("upsert season aggregates: %w", err)
	}
	observability.EngineRowsWritten.WithLabelValues("aggregation", "aggregates_season").Add(float64(len(result.Season)))

	out.DailyRows = len(result.Daily)
	out.SeasonRows = len(result.Season)
	out.OrphanCount = len(result.Orphans)
	out.PrunedRows = pruned

	s.logger.InfoContext(ctx, "aggregates recalculated",
		"season_id", seasonID,
		"assignments", len(snap.Assignments),
		"hours_records", len(snap.Records),
		"daily_rows", out.DailyRows,
		"season_rows", out.SeasonRows,
		"orphans", out.OrphanCount,
		"pruned", out.PrunedRows,
	)
	return out, nil
}
