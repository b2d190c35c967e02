package querysql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/comboseq/internal/queryir"
)

// Table describes one queryable table.
type Table struct {
	Columns []string
	// OrderBy is the stable default order, used when a Select names none.
	OrderBy []string
	// Text lists columns ordered with COLLATE BINARY.
	Text []string
}

// Schema maps table names to their descriptions.
type Schema map[string]Table

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: every query gets an ORDER BY, so results are deterministic.
// CRITICAL: values are always parameters, never interpolated.
type SQLCompiler struct {
	schema Schema
}

// NewSQLCompiler creates a compiler that accepts only tables and columns
// present in schema.
func NewSQLCompiler(schema Schema) *SQLCompiler {
	return &SQLCompiler{schema: schema}
}

// Compile converts a query to (sql, params).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	table, ok := c.schema[q.From]
	if !ok {
		return "", nil, fmt.Errorf("unknown table %q", q.From)
	}
	for _, col := range q.Columns {
		if err := checkColumn(q.From, table, col); err != nil {
			return "", nil, err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(q.Columns, ", "), q.From)

	var params []any
	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.From, table, q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = whereParams
	}

	order, err := orderClause(q, table)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)

	return b.String(), params, nil
}

func (c *SQLCompiler) compilePredicate(from string, table Table, p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		if err := checkColumn(from, table, pred.Field); err != nil {
			return "", nil, err
		}
		return pred.Field + " = ?", []any{pred.Value}, nil

	case queryir.Range:
		if err := checkColumn(from, table, pred.Field); err != nil {
			return "", nil, err
		}
		var parts []string
		var params []any
		if pred.Min != nil {
			parts = append(parts, pred.Field+" >= ?")
			params = append(params, pred.Min)
		}
		if pred.Max != nil {
			parts = append(parts, pred.Field+" <= ?")
			params = append(params, pred.Max)
		}
		return strings.Join(parts, " AND "), params, nil

	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, subParams, err := c.compilePredicate(from, table, sub)
			if err != nil {
				return "", nil, err
			}
			if _, nested := sub.(queryir.And); nested {
				sql = "(" + sql + ")"
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// orderClause builds the ORDER BY keys, falling back to the table default.
func orderClause(q queryir.Select, table Table) (string, error) {
	keys := q.OrderBy
	if len(keys) == 0 {
		keys = table.OrderBy
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("table %s: no stable order", q.From)
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := checkColumn(q.From, table, k); err != nil {
			return "", err
		}
		if slices.Contains(table.Text, k) {
			parts = append(parts, k+" COLLATE BINARY ASC")
		} else {
			parts = append(parts, k+" ASC")
		}
	}
	return strings.Join(parts, ", "), nil
}

func checkColumn(from string, table Table, col string) error {
	if !slices.Contains(table.Columns, col) {
		return fmt.Errorf("table %s has no column %q", from, col)
	}
	return nil
}
