package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	qb "github.com/riskibarqy/pyramid-league/internal/platform/querybuilder"
)

var importColumns = qb.ColumnsOf(importTableModel{})

type ImportRepository struct {
	db *sqlx.DB
}

func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

func (r *ImportRepository) CreateImport(ctx context.Context, item hours.Import) (hours.Import, error) {
	query, args, err := buildImportInsert(item)
	if err != nil {
		return hours.Import{}, err
	}

	out := item
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&out.ID, &out.UploadedAt); err != nil {
		return hours.Import{}, fmt.Errorf("insert import: %w", err)
	}
	return out, nil
}

func (r *ImportRepository) ListImports(ctx context.Context, limit int) ([]hours.Import, error) {
	b := qb.Select(importColumns...).From("imports").OrderBy("uploaded_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(limit)
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list imports query: %w", err)
	}

	var rows []importTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}

	out := make([]hours.Import, 0, len(rows))
	for _, row := range rows {
		var errs []string
		if err := sonic.UnmarshalString(row.Errors, &errs); err != nil {
			return nil, fmt.Errorf("decode import=%d errors: %w", row.ID, err)
		}
		out = append(out, hours.Import{
			ID:         row.ID,
			FileName:   row.FileName,
			UploadedBy: nullInt64ToPtr(row.UploadedBy),
			RowsCount:  row.RowsCount,
			Written:    row.Written,
			Status:     hours.ImportStatus(row.Status),
			Errors:     errs,
			UploadedAt: row.UploadedAt,
		})
	}
	return out, nil
}

func buildImportInsert(item hours.Import) (string, []any, error) {
	errs := item.Errors
	if errs == nil {
		errs = []string{}
	}
	payload, err := sonic.MarshalString(errs)
	if err != nil {
		return "", nil, fmt.Errorf("encode import errors: %w", err)
	}

	b, err := qb.InsertModel("imports", importInsertModel{
		FileName:   item.FileName,
		UploadedBy: int64PtrToNull(item.UploadedBy),
		RowsCount:  item.RowsCount,
		Written:    item.Written,
		Status:     string(item.Status),
		Errors:     payload,
	})
	if err != nil {
		return "", nil, fmt.Errorf("build insert import query: %w", err)
	}
	query, args, err := b.Returning("id", "uploaded_at").ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert import query: %w", err)
	}
	return query, args, nil
}
