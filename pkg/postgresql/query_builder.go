package postgresql

import (
	"fmt"
	"strings"
)

type selectBuilder struct {
	columns   []string
	table     string
	where     []string
	whereArgs []any
	orderBy   []string
	limit     *int
	offset    *int
}

// NewSelectBuilder creates a builder that renders `?` placeholders in Where
// conditions as PostgreSQL positional parameters.
func NewSelectBuilder() SelectBuilder {
	return &selectBuilder{}
}

func (qb *selectBuilder) Select(columns ...string) SelectBuilder {
	qb.columns = append(qb.columns, columns...)
	return qb
}

func (qb *selectBuilder) From(table string) SelectBuilder {
	qb.table = table
	return qb
}

func (qb *selectBuilder) Where(condition string, args ...any) SelectBuilder {
	qb.where = append(qb.where, condition)
	qb.whereArgs = append(qb.whereArgs, args...)
	return qb
}

func (qb *selectBuilder) OrderBy(column string, desc bool) SelectBuilder {
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	qb.orderBy = append(qb.orderBy, fmt.Sprintf("%s %s", column, direction))
	return qb
}

func (qb *selectBuilder) Limit(limit int) SelectBuilder {
	qb.limit = &limit
	return qb
}

func (qb *selectBuilder) Offset(offset int) SelectBuilder {
	qb.offset = &offset
	return qb
}

// Build renders the statement. It does not mutate the builder, so calling it
// twice yields the same output.
func (qb *selectBuilder) Build() (string, []any) {
	var query strings.Builder
	argIndex := 0
	next := func() string {
		argIndex++
		return fmt.Sprintf("$%d", argIndex)
	}

	query.WriteString("SELECT ")
	if len(qb.columns) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(qb.columns, ", "))
	}

	if qb.table != "" {
		query.WriteString(" FROM ")
		query.WriteString(qb.table)
	}

	if len(qb.where) > 0 {
		conditions := make([]string, 0, len(qb.where))
		for _, cond := range qb.where {
			for strings.Contains(cond, "?") {
				cond = strings.Replace(cond, "?", next(), 1)
			}
			conditions = append(conditions, cond)
		}
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(conditions, " AND "))
	}

	if len(qb.orderBy) > 0 {
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(qb.orderBy, ", "))
	}

	args := make([]any, 0, len(qb.whereArgs)+2)
	args = append(args, qb.whereArgs...)

	if qb.limit != nil {
		query.WriteString(" LIMIT ")
		query.WriteString(next())
		args = append(args, *qb.limit)
	}

	if qb.offset != nil {
		query.WriteString(" OFFSET ")
		query.WriteString(next())
		args = append(args, *qb.offset)
	}

	return query.String(), args
}
