package querybuilder

import (
	"strconv"
	"strings"
)

// argList collects bound values and hands out the matching $n placeholders.
type argList struct {
	values []any
}

func (a *argList) bind(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// expand replaces each ? in expr with the next bound placeholder. A ? without
// a matching argument is kept as written.
func (a *argList) expand(expr string, exprArgs []any) string {
	if len(exprArgs) == 0 {
		return expr
	}

	var out strings.Builder
	out.Grow(len(expr) + 2*len(exprArgs))
	next := 0
	for _, r := range expr {
		if r == '?' && next < len(exprArgs) {
			out.WriteString(a.bind(exprArgs[next]))
			next++
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
