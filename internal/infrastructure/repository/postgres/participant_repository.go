package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

var participantColumns = qb.ColumnsOf(participantTableModel{})

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) GetByID(ctx context.Context, participantID int64) (participant.Participant, bool, error) {
	query, args, err := qb.Select(participantColumns...).From("participants").
		Where(qb.Eq("id", participantID)).
		ToSQL()
	if err != nil {
		return participant.Participant{}, false, fmt.Errorf("build get participant by id query: %w", err)
	}

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, fmt.Errorf("get participant by id: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ParticipantRepository) GetByPhone(ctx context.Context, phone string) (participant.Participant, bool, error) {
	query, args, err := qb.Select(participantColumns...).From("participants").
		Where(qb.Eq("phone", participant.NormalizePhone(phone))).
		ToSQL()
	if err != nil {
		return participant.Participant{}, false, fmt.Errorf("build get participant by phone query: %w", err)
	}

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, fmt.Errorf("get participant by phone: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ParticipantRepository) List(ctx context.Context) ([]participant.Participant, error) {
	query, args, err := qb.Select(participantColumns...).From("participants").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	out := make([]participant.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListByIDs returns the known participants in request order. Unknown and repeated ids are skipped.
func (r *ParticipantRepository) ListByIDs(ctx context.Context, participantIDs []int64) ([]participant.Participant, error) {
	if len(participantIDs) == 0 {
		return []participant.Participant{}, nil
	}

	query, args, err := qb.Select(participantColumns...).From("participants").
		Where(qb.Any("id", pq.Array(participantIDs))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants by ids query: %w", err)
	}

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participants by ids: %w", err)
	}

	byID := make(map[int64]participantTableModel, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]participant.Participant, 0, len(rows))
	seen := make(map[int64]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if row, ok := byID[id]; ok {
			out = append(out, row.toDomain())
		}
	}
	return out, nil
}

func (m participantTableModel) toDomain() participant.Participant {
	return participant.Participant{
		ID:             m.ID,
		Phone:          m.Phone,
		FullName:       m.FullName,
		TelegramUserID: nullInt64ToPtr(m.TelegramUserID),
		Status:         participant.Status(m.Status),
	}
}
