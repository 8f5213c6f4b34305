package storage

import (
	"database/sql"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/romangod6/sitemapgen/internal/models"
)

// Condition restricts a Selection. Operator is one of the SQL comparison
// operators accepted by ValidOperator.
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// Selection describes which table and columns back a sitemap collection.
// Empty slug/timestamp columns are left out of the query.
type Selection struct {
	Table         string
	IDColumn      string
	SlugColumn    string
	UpdatedColumn string
	CreatedColumn string
	Where         []Condition
	Limit         int
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var operators = map[string]bool{
	"=": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"like": true, "not like": true,
	"in": true, "not in": true,
	"is null": true, "is not null": true,
}

// NormalizeOperator lowercases and collapses whitespace in op.
func NormalizeOperator(op string) string {
	return strings.Join(strings.Fields(strings.ToLower(op)), " ")
}

func ValidOperator(op string) bool {
	return operators[NormalizeOperator(op)]
}

type dialect struct {
	placeholder func(n int) string
	quote       func(name string) string
}

func quoteIdentifier(d dialect, name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return d.quote(name), nil
}

// buildSelect renders sel into SQL with bound arguments. The returned column
// order is id, then slug, updated and created when configured.
func buildSelect(d dialect, sel Selection) (string, []any, error) {
	idColumn := sel.IDColumn
	if idColumn == "" {
		idColumn = "id"
	}

	table, err := quoteIdentifier(d, sel.Table)
	if err != nil {
		return "", nil, err
	}

	var columns []string
	for _, name := range []string{idColumn, sel.SlugColumn, sel.UpdatedColumn, sel.CreatedColumn} {
		if name == "" {
			continue
		}
		quoted, err := quoteIdentifier(d, name)
		if err != nil {
			return "", nil, err
		}
		columns = append(columns, quoted)
	}

	var (
		clauses []string
		args    []any
	)
	for _, cond := range sel.Where {
		field, err := quoteIdentifier(d, cond.Field)
		if err != nil {
			return "", nil, err
		}

		op := NormalizeOperator(cond.Operator)
		if op == "" {
			op = "="
		}
		if !operators[op] {
			return "", nil, fmt.Errorf("unsupported operator %q on %s", cond.Operator, cond.Field)
		}

		switch op {
		case "is null", "is not null":
			clauses = append(clauses, fmt.Sprintf("%s %s", field, strings.ToUpper(op)))
		case "in", "not in":
			values, err := expandList(cond.Value)
			if err != nil {
				return "", nil, fmt.Errorf("condition on %s: %w", cond.Field, err)
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				args = append(args, v)
				placeholders[i] = d.placeholder(len(args))
			}
			clauses = append(clauses, fmt.Sprintf("%s %s (%s)", field, strings.ToUpper(op), strings.Join(placeholders, ", ")))
		default:
			args = append(args, cond.Value)
			clauses = append(clauses, fmt.Sprintf("%s %s %s", field, strings.ToUpper(op), d.placeholder(len(args))))
		}
	}

	var q strings.Builder
	fmt.Fprintf(&q, "SELECT %s FROM %s", strings.Join(columns, ", "), table)
	if len(clauses) > 0 {
		fmt.Fprintf(&q, " WHERE %s", strings.Join(clauses, " AND "))
	}
	fmt.Fprintf(&q, " ORDER BY %s", columns[0])
	if sel.Limit > 0 {
		args = append(args, sel.Limit)
		fmt.Fprintf(&q, " LIMIT %s", d.placeholder(len(args)))
	}
	return q.String(), args, nil
}

func expandList(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("IN requires a list value, got %T", v)
	}
	if rv.Len() == 0 {
		return nil, fmt.Errorf("IN requires at least one value")
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

// scanRows reads rows produced by buildSelect for sel.
func scanRows(rows *sql.Rows, sel Selection) ([]models.Row, error) {
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		var (
			id      sql.NullString
			slug    sql.NullString
			updated sql.NullTime
			created sql.NullTime
		)
		dest := []any{&id}
		if sel.SlugColumn != "" {
			dest = append(dest, &slug)
		}
		if sel.UpdatedColumn != "" {
			dest = append(dest, &updated)
		}
		if sel.CreatedColumn != "" {
			dest = append(dest, &created)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := models.Row{ID: id.String, Slug: slug.String}
		if updated.Valid {
			t := updated.Time
			row.UpdatedAt = &t
		}
		if created.Valid {
			t := created.Time
			row.CreatedAt = &t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
