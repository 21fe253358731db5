package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

var assignmentColumns = qb.ColumnsOf(assignmentTableModel{})

type AssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) ListBySeason(ctx context.Context, seasonID int64) ([]hierarchy.Assignment, error) {
	query, args, err := qb.Select(assignmentColumns...).From("role_assignments").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list role assignments query: %w", err)
	}

	var rows []assignmentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list role assignments season=%d: %w", seasonID, err)
	}

	out := make([]hierarchy.Assignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, hierarchy.Assignment{
			ID:                 row.ID,
			SeasonID:           row.SeasonID,
			ParticipantID:      row.ParticipantID,
			Role:               hierarchy.Role(row.Role),
			ParentCaptainID:    nullInt64ToPtr(row.ParentCaptainID),
			ParentSubcaptainID: nullInt64ToPtr(row.ParentSubcaptainID),
			GroupIndex:         nullInt32ToIntPtr(row.GroupIndex),
		})
	}
	return out, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, assignmentID int64, patch hierarchy.Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	query, args, err := buildAssignmentPatch(patch, qb.Eq("id", assignmentID))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update role assignment=%d: %w", assignmentID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update role assignment=%d: assignment not found", assignmentID)
	}
	return nil
}

// ApplyChanges writes every patch of a transition in one transaction.
// A patch addressed to an assignment outside the season rolls the whole batch back.
func (r *AssignmentRepository) ApplyChanges(ctx context.Context, seasonID int64, changes []hierarchy.Change) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply role changes: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := applyChangesTx(ctx, tx, seasonID, changes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply role changes tx: %w", err)
	}
	return nil
}

func applyChangesTx(ctx context.Context, tx *sqlx.Tx, seasonID int64, changes []hierarchy.Change) error {
	for _, change := range changes {
		if change.Patch.IsEmpty() {
			continue
		}
		query, args, err := buildAssignmentPatch(change.Patch, qb.Eq("id", change.AssignmentID), qb.Eq("season_id", seasonID))
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("apply role change assignment=%d: %w", change.AssignmentID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("apply role change assignment=%d: assignment not in season=%d", change.AssignmentID, seasonID)
		}
	}
	return nil
}

func buildAssignmentPatch(patch hierarchy.Patch, where ...qb.Condition) (string, []any, error) {
	b := qb.Update("role_assignments")
	if patch.Role != nil {
		b = b.Set("role", string(*patch.Role))
	}
	if patch.ParentCaptainID.Set {
		b = b.Set("parent_captain_id", int64PtrToNull(patch.ParentCaptainID.Value))
	}
	if patch.ParentSubcaptainID.Set {
		b = b.Set("parent_subcaptain_id", int64PtrToNull(patch.ParentSubcaptainID.Value))
	}
	if patch.GroupIndex.Set {
		b = b.Set("group_index", intPtrToNull(patch.GroupIndex.Value))
	}
	query, args, err := b.SetExpr("updated_at", "NOW()").Where(where...).ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build update role assignment query: %w", err)
	}
	return query, args, nil
}
