package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

// TransitionRepository shares role_assignments with AssignmentRepository so the
// season-end marker and the role changes commit together.
type TransitionRepository struct {
	db *sqlx.DB
}

func NewTransitionRepository(db *sqlx.DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

func (r *TransitionRepository) Apply(ctx context.Context, record transition.Record, changes []hierarchy.Change) error {
	query, args, err := buildTransitionInsert(record)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply season transitions: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert season transition season=%d: %w", record.SeasonID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("season=%d: %w", record.SeasonID, transition.ErrAlreadyApplied)
	}
	if err := applyChangesTx(ctx, tx, record.SeasonID, changes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit season transitions tx: %w", err)
	}
	return nil
}

func (r *TransitionRepository) Get(ctx context.Context, seasonID int64) (transition.Record, bool, error) {
	query, args, err := qb.Select(qb.ColumnsOf(transitionTableModel{})...).From("season_transitions").
		Where(qb.Eq("season_id", seasonID)).
		ToSQL()
	if err != nil {
		return transition.Record{}, false, fmt.Errorf("build get season transition query: %w", err)
	}

	var row transitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return transition.Record{}, false, nil
		}
		return transition.Record{}, false, fmt.Errorf("get season transition season=%d: %w", seasonID, err)
	}

	var result transition.Result
	if err := sonic.UnmarshalString(row.Result, &result); err != nil {
		return transition.Record{}, false, fmt.Errorf("decode season transition season=%d: %w", seasonID, err)
	}
	return transition.Record{SeasonID: row.SeasonID, Result: result, AppliedAt: row.AppliedAt}, true, nil
}

// buildTransitionInsert does nothing on a second insert for the same season, which the
// caller reads as zero affected rows.
func buildTransitionInsert(record transition.Record) (string, []any, error) {
	payload, err := sonic.MarshalString(record.Result)
	if err != nil {
		return "", nil, fmt.Errorf("encode season transition season=%d: %w", record.SeasonID, err)
	}
	appliedAt := record.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = time.Now().UTC()
	}

	b, err := qb.InsertModel("season_transitions", transitionTableModel{
		SeasonID:  record.SeasonID,
		Mode:      string(record.Result.Mode),
		Result:    payload,
		AppliedAt: appliedAt,
	})
	if err != nil {
		return "", nil, fmt.Errorf("build insert season transition query: %w", err)
	}
	query, args, err := b.OnConflict("season_id").ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert season transition query: %w", err)
	}
	return query, args, nil
}
