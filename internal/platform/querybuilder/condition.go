package querybuilder

import "strings"

// Condition is one predicate of a WHERE clause. Predicates are joined with AND.
type Condition interface {
	writeSQL(buf *strings.Builder, args *argList)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func (c compareCondition) writeSQL(buf *strings.Builder, args *argList) {
	buf.WriteString(c.column)
	buf.WriteString(c.op)
	buf.WriteString(args.bind(c.value))
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: " = ", value: value}
}

func Ne(column string, value any) Condition {
	return compareCondition{column: column, op: " <> ", value: value}
}

// Any matches column against a Postgres array value, e.g. pq.Array(ids).
// Passing the array as one parameter keeps the statement text stable for any batch size.
func Any(column string, array any) Condition {
	return Expr(column+" = ANY(?)", array)
}

// NotAny is the negation of Any. An empty array matches every row.
func NotAny(column string, array any) Condition {
	return Expr("NOT ("+column+" = ANY(?))", array)
}

// Between is inclusive on both ends.
func Between(column string, low, high any) Condition {
	return Expr(column+" BETWEEN ? AND ?", low, high)
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw predicate with ? placeholders bound in order.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) writeSQL(buf *strings.Builder, args *argList) {
	buf.WriteString(args.expand(c.expr, c.args))
}

func writeWhere(buf *strings.Builder, conditions []Condition, args *argList) {
	for i, c := range conditions {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		c.writeSQL(buf, args)
	}
}
