package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/waitlist"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

var waitlistColumns = qb.ColumnsOf(waitlistTableModel{})

type WaitlistRepository struct {
	db *sqlx.DB
}

func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) Add(ctx context.Context, entry waitlist.Entry) (waitlist.Entry, error) {
	b, err := qb.InsertModel("waitlist", waitlistInsertModel{
		Phone:    participant.NormalizePhone(entry.Phone),
		FullName: entry.FullName,
		Status:   string(entry.Status),
	})
	if err != nil {
		return waitlist.Entry{}, fmt.Errorf("build insert waitlist query: %w", err)
	}
	query, args, err := b.Returning("id", "added_at").ToSQL()
	if err != nil {
		return waitlist.Entry{}, fmt.Errorf("build insert waitlist query: %w", err)
	}

	out := entry
	out.Phone = participant.NormalizePhone(entry.Phone)
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&out.ID, &out.AddedAt); err != nil {
		return waitlist.Entry{}, fmt.Errorf("insert waitlist entry: %w", err)
	}
	return out, nil
}

func (r *WaitlistRepository) GetByID(ctx context.Context, entryID int64) (waitlist.Entry, bool, error) {
	return r.getOne(ctx, qb.Eq("id", entryID))
}

func (r *WaitlistRepository) GetByPhone(ctx context.Context, phone string) (waitlist.Entry, bool, error) {
	return r.getOne(ctx, qb.Eq("phone", participant.NormalizePhone(phone)))
}

func (r *WaitlistRepository) getOne(ctx context.Context, where qb.Condition) (waitlist.Entry, bool, error) {
	query, args, err := qb.Select(waitlistColumns...).From("waitlist").
		Where(where).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return waitlist.Entry{}, false, fmt.Errorf("build get waitlist entry query: %w", err)
	}

	var row waitlistTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return waitlist.Entry{}, false, nil
		}
		return waitlist.Entry{}, false, fmt.Errorf("get waitlist entry: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *WaitlistRepository) List(ctx context.Context) ([]waitlist.Entry, error) {
	query, args, err := qb.Select(waitlistColumns...).From("waitlist").
		OrderBy("added_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list waitlist query: %w", err)
	}

	var rows []waitlistTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	out := make([]waitlist.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *WaitlistRepository) CountByStatus(ctx context.Context, status waitlist.Status) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("waitlist").
		Where(qb.Eq("status", string(status))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count waitlist query: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count waitlist status=%s: %w", status, err)
	}
	return n, nil
}

func (r *WaitlistRepository) UpdateStatus(ctx context.Context, entryID int64, status waitlist.Status) error {
	query, args, err := qb.Update("waitlist").
		Set("status", string(status)).
		Where(qb.Eq("id", entryID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update waitlist status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update waitlist entry=%d status: %w", entryID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update waitlist entry=%d status: entry not found", entryID)
	}
	return nil
}

func (m waitlistTableModel) toDomain() waitlist.Entry {
	return waitlist.Entry{
		ID:       m.ID,
		Phone:    m.Phone,
		FullName: m.FullName,
		Status:   waitlist.Status(m.Status),
		AddedAt:  m.AddedAt,
	}
}
