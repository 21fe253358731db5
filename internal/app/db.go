package app

import (
	"strconv"
	"strings"

	"github.com/xo/dburl"
)

const maxTracedQueryLength = 512

// dbTarget is the connection string handed to lib/pq plus the database name used on spans.
type dbTarget struct {
	DSN  string
	Name string
}

// parseDBTarget accepts a postgres URL under any dburl alias (pg, postgresql,
// pgsql) or a keyword/value DSN, which is passed through untouched.
func parseDBTarget(raw string, disablePreparedBinaryResult bool) dbTarget {
	raw = strings.TrimSpace(raw)
	parsed, err := dburl.Parse(raw)
	if err != nil || parsed.UnaliasedDriver != "postgres" {
		return dbTarget{DSN: raw, Name: keywordDBName(raw)}
	}

	u := parsed.URL
	u.Scheme = "postgres"
	if disablePreparedBinaryResult {
		query := u.Query()
		if query.Get("disable_prepared_binary_result") == "" {
			query.Set("disable_prepared_binary_result", "yes")
			u.RawQuery = query.Encode()
		}
	}

	return dbTarget{
		DSN:  u.String(),
		Name: strings.TrimPrefix(u.Path, "/"),
	}
}

func keywordDBName(dsn string) string {
	for _, token := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// traceQuery flattens a statement for the db.statement span attribute. Batched
// upserts carry hundreds of VALUES rows, so only the first row is kept.
func traceQuery(query string) string {
	q := foldValueRows(strings.Join(strings.Fields(query), " "))
	if len(q) <= maxTracedQueryLength {
		return q
	}
	return q[:maxTracedQueryLength] + "..."
}

func foldValueRows(q string) string {
	const marker = " VALUES "
	i := strings.Index(q, marker)
	if i < 0 {
		return q
	}
	head, rest := q[:i+len(marker)], q[i+len(marker):]

	var first string
	rows := 0
	for strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return q
		}
		if rows == 0 {
			first = rest[:end+1]
		}
		rows++
		rest = rest[end+1:]
		if !strings.HasPrefix(rest, ", (") {
			break
		}
		rest = rest[len(", "):]
	}
	if rows < 2 {
		return q
	}
	return head + first + " /* " + strconv.Itoa(rows) + " rows */" + rest
}
