package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

type AggregateRepository struct {
	db *sqlx.DB
}

func NewAggregateRepository(db *sqlx.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

func (r *AggregateRepository) UpsertDaily(ctx context.Context, rows []aggregate.Daily) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert daily aggregates: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	models := make([]aggregateDailyInsertModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, aggregateDailyInsertModel{
			ParticipantID: row.ParticipantID,
			SeasonID:      row.SeasonID,
			WorkDate:      season.Day(row.WorkDate),
			Role:          string(row.Role),
			PersonalHours: row.PersonalHours,
			TeamHours:     row.TeamHours,
			TotalHours:    row.TotalHours,
		})
	}

	for start := 0; start < len(models); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(models))
		b, err := qb.InsertModels("aggregates_daily", models[start:end])
		if err != nil {
			return fmt.Errorf("build upsert daily aggregate query: %w", err)
		}
		query, args, err := b.OnConflict("participant_id", "season_id", "work_date").
			DoUpdate("role", "personal_hours", "team_hours", "total_hours").
			DoUpdateExpr("updated_at", "NOW()").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert daily aggregate query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert daily aggregates batch=%d: %w", start/upsertBatchSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert daily aggregates tx: %w", err)
	}
	return nil
}

// UpsertSeason never writes rank_in_group or captain_rank; the ranking pass owns those columns.
func (r *AggregateRepository) UpsertSeason(ctx context.Context, rows []aggregate.Season) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert season aggregates: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	models := make([]aggregateSeasonInsertModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, aggregateSeasonInsertModel{
			ParticipantID: row.ParticipantID,
			SeasonID:      row.SeasonID,
			Role:          string(row.Role),
			PersonalTotal: row.PersonalTotal,
			TeamTotal:     row.TeamTotal,
			Total:         row.Total,
			Target:        row.Target,
			TargetPercent: row.TargetPercent,
		})
	}

	for start := 0; start < len(models); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(models))
		b, err := qb.InsertModels("aggregates_season", models[start:end])
		if err != nil {
			return fmt.Errorf("build upsert season aggregate query: %w", err)
		}
		query, args, err := b.OnConflict("participant_id", "season_id").
			DoUpdate("role", "personal_total", "team_total", "total", "target", "target_percent").
			DoUpdateExpr("updated_at", "NOW()").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert season aggregate query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert season aggregates batch=%d: %w", start/upsertBatchSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert season aggregates tx: %w", err)
	}
	return nil
}

func (r *AggregateRepository) ListBySeason(ctx context.Context, seasonID int64) ([]aggregate.Season, error) {
	query, args, err := qb.Select(
		"id", "participant_id", "season_id", "role", "personal_total", "team_total", "total",
		"target", "target_percent", "rank_in_group", "captain_rank", "updated_at",
	).From("aggregates_season").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("participant_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season aggregates query: %w", err)
	}

	var rows []aggregateSeasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list season aggregates season=%d: %w", seasonID, err)
	}

	out := make([]aggregate.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, aggregate.Season{
			ID:            row.ID,
			ParticipantID: row.ParticipantID,
			SeasonID:      row.SeasonID,
			Role:          hierarchy.Role(row.Role),
			PersonalTotal: row.PersonalTotal,
			TeamTotal:     row.TeamTotal,
			Total:         row.Total,
			Target:        row.Target,
			TargetPercent: row.TargetPercent,
			RankInGroup:   nullInt32ToIntPtr(row.RankInGroup),
			CaptainRank:   nullInt32ToIntPtr(row.CaptainRank),
		})
	}
	return out, nil
}

func (r *AggregateRepository) UpdateRanks(ctx context.Context, seasonID int64, updates []aggregate.RankUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update ranks: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range updates {
		query, args, err := qb.Update("aggregates_season").
			Set("rank_in_group", intPtrToNull(u.RankInGroup)).
			Set("captain_rank", intPtrToNull(u.CaptainRank)).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("season_id", seasonID),
				qb.Eq("participant_id", u.ParticipantID),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update ranks query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update ranks participant=%d season=%d: %w", u.ParticipantID, seasonID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update ranks tx: %w", err)
	}
	return nil
}

// Prune removes rows left behind by participants who are no longer assigned to the season.
func (r *AggregateRepository) Prune(ctx context.Context, seasonID int64, keep []int64) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx prune aggregates: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var removed int64
	for _, table := range []string{"aggregates_daily", "aggregates_season"} {
		query, args, err := qb.DeleteFrom(table).
			Where(qb.Eq("season_id", seasonID), qb.NotAny("participant_id", pq.Array(keep))).
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build prune %s query: %w", table, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("prune %s season=%d: %w", table, seasonID, err)
		}
		if table == "aggregates_season" {
			removed, _ = res.RowsAffected()
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune aggregates tx: %w", err)
	}
	return int(removed), nil
}
