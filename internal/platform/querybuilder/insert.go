package querybuilder

import (
	"errors"
	"fmt"
	"strings"
)

type InsertBuilder struct {
	table     string
	columns   []string
	rows      [][]any
	conflict  []string
	updates   []string
	returning []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Values appends one row. Call it repeatedly for a multi-row insert.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// OnConflict names the unique key that turns the insert into an upsert.
// Without DoUpdate the conflicting rows are skipped.
func (b *InsertBuilder) OnConflict(target ...string) *InsertBuilder {
	b.conflict = append([]string(nil), target...)
	return b
}

// DoUpdate overwrites the listed columns with the incoming values on conflict.
func (b *InsertBuilder) DoUpdate(columns ...string) *InsertBuilder {
	for _, col := range columns {
		b.updates = append(b.updates, col+" = EXCLUDED."+col)
	}
	return b
}

// DoUpdateExpr sets column to a raw SQL expression on conflict, e.g. NOW().
func (b *InsertBuilder) DoUpdateExpr(column, expr string) *InsertBuilder {
	b.updates = append(b.updates, column+" = "+expr)
	return b
}

func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, errors.New("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, errors.New("insert values are required")
	}
	if len(b.updates) > 0 && len(b.conflict) == 0 {
		return "", nil, errors.New("insert DO UPDATE requires a conflict target")
	}

	var (
		buf  strings.Builder
		args argList
	)
	args.values = make([]any, 0, len(b.rows)*len(b.columns))
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteByte('(')
		for j, value := range row {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(args.bind(value))
		}
		buf.WriteByte(')')
	}

	if len(b.conflict) > 0 {
		buf.WriteString(" ON CONFLICT (")
		buf.WriteString(strings.Join(b.conflict, ", "))
		buf.WriteByte(')')
		if len(b.updates) == 0 {
			buf.WriteString(" DO NOTHING")
		} else {
			buf.WriteString(" DO UPDATE SET ")
			buf.WriteString(strings.Join(b.updates, ", "))
		}
	}
	if len(b.returning) > 0 {
		buf.WriteString(" RETURNING ")
		buf.WriteString(strings.Join(b.returning, ", "))
	}

	return buf.String(), args.values, nil
}
