package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry audit.Entry) error {
	payload := entry.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query, args, err := qb.InsertInto("audit_logs").
		Columns("id", "actor_id", "action", "entity_type", "entity_id", "payload", "created_at").
		Values(entry.ID, int64PtrToNull(entry.ActorID), entry.Action, entry.EntityType, entry.EntityID, string(payload), createdAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert audit log query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit log action=%s: %w", entry.Action, err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, limit int) ([]audit.Entry, error) {
	b := qb.Select("id", "actor_id", "action", "entity_type", "entity_id", "payload", "created_at").
		From("audit_logs").
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(limit)
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list audit logs query: %w", err)
	}

	var rows []auditTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, audit.Entry{
			ID:         row.ID,
			ActorID:    nullInt64ToPtr(row.ActorID),
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Payload:    row.Payload,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
