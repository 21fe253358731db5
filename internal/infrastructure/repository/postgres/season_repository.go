package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

var seasonColumns = qb.ColumnsOf(seasonTableModel{})

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").
		OrderBy("start_date DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID int64) (season.Season, bool, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").
		Where(qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season by id query: %w", err)
	}

	return r.getOne(ctx, query, args, "get season by id")
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").
		Where(qb.Eq("status", string(season.StatusActive))).
		OrderBy("start_date DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get active season query: %w", err)
	}

	return r.getOne(ctx, query, args, "get active season")
}

func (r *SeasonRepository) getOne(ctx context.Context, query string, args []any, op string) (season.Season, bool, error) {
	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return row.toDomain(), true, nil
}

func (r *SeasonRepository) Create(ctx context.Context, s season.Season) (season.Season, error) {
	status := s.Status
	if status == "" {
		status = season.StatusPlanned
	}
	insertModel := seasonInsertModel{
		Name:             s.Name,
		StartDate:        season.Day(s.StartDate),
		EndDate:          season.Day(s.EndDate),
		DailyTargetHours: s.DailyTargetHours,
		DaysCount:        s.DaysCount,
		Status:           string(status),
	}
	b, err := qb.InsertModel("seasons", insertModel)
	if err != nil {
		return season.Season{}, fmt.Errorf("build insert season query: %w", err)
	}
	query, args, err := b.Returning("id", "created_at").ToSQL()
	if err != nil {
		return season.Season{}, fmt.Errorf("build insert season query: %w", err)
	}

	out := s
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&out.ID, &out.CreatedAt); err != nil {
		return season.Season{}, fmt.Errorf("insert season: %w", err)
	}

	out.Status = status
	out.StartDate = insertModel.StartDate
	out.EndDate = insertModel.EndDate
	return out, nil
}

func (r *SeasonRepository) Activate(ctx context.Context, seasonID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx activate season: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	closeQuery, closeArgs, err := qb.Update("seasons").
		Set("status", string(season.StatusClosed)).
		Where(
			qb.Eq("status", string(season.StatusActive)),
			qb.Ne("id", seasonID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build close active seasons query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, closeQuery, closeArgs...); err != nil {
		return fmt.Errorf("close active seasons: %w", err)
	}

	activateQuery, activateArgs, err := qb.Update("seasons").
		Set("status", string(season.StatusActive)).
		Where(qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build activate season query: %w", err)
	}
	res, err := tx.ExecContext(ctx, activateQuery, activateArgs...)
	if err != nil {
		return fmt.Errorf("activate season=%d: %w", seasonID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("activate season=%d: season not found", seasonID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate season tx: %w", err)
	}
	return nil
}

func (r *SeasonRepository) UpdateStatus(ctx context.Context, seasonID int64, status season.Status) error {
	query, args, err := qb.Update("seasons").
		Set("status", string(status)).
		Where(qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update season status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update season=%d status: %w", seasonID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update season=%d status: season not found", seasonID)
	}
	return nil
}

func (m seasonTableModel) toDomain() season.Season {
	return season.Season{
		ID:               m.ID,
		Name:             m.Name,
		StartDate:        dateOnly(m.StartDate),
		EndDate:          dateOnly(m.EndDate),
		DailyTargetHours: m.DailyTargetHours,
		DaysCount:        m.DaysCount,
		Status:           season.Status(m.Status),
		CreatedAt:        m.CreatedAt,
	}
}
