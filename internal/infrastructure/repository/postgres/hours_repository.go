package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

// upsertBatchSize keeps multi-row inserts well under the postgres bind parameter limit.
const upsertBatchSize = 500

type HoursRepository struct {
	db *sqlx.DB
}

func NewHoursRepository(db *sqlx.DB) *HoursRepository {
	return &HoursRepository{db: db}
}

func (r *HoursRepository) ListInRange(ctx context.Context, start, end time.Time) ([]hours.Record, error) {
	query, args, err := qb.Select("id", "participant_id", "work_date", "hours", "created_at").From("hours_raw").
		Where(qb.Between("work_date", season.Day(start), season.Day(end))).
		OrderBy("work_date", "participant_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list hours query: %w", err)
	}

	var rows []hoursTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list hours in range: %w", err)
	}

	out := make([]hours.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, hours.Record{
			ID:            row.ID,
			ParticipantID: row.ParticipantID,
			WorkDate:      dateOnly(row.WorkDate),
			Hours:         row.Hours,
		})
	}
	return out, nil
}

func (r *HoursRepository) Upsert(ctx context.Context, records []hours.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert hours: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		b := qb.InsertInto("hours_raw").Columns("participant_id", "work_date", "hours")
		for _, rec := range records[start:end] {
			b = b.Values(rec.ParticipantID, season.Day(rec.WorkDate), rec.Hours)
		}
		query, args, err := b.OnConflict("participant_id", "work_date").DoUpdate("hours").ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert hours query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert hours batch=%d: %w", start/upsertBatchSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert hours tx: %w", err)
	}
	return nil
}
