package querybuilder

import (
	"errors"
	"strings"
)

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses to build a DELETE without a WHERE clause.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, errors.New("delete without where is not allowed")
	}

	var (
		buf  strings.Builder
		args argList
	)
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)
	writeWhere(&buf, b.where, &args)

	return buf.String(), args.values, nil
}
