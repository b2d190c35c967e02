// Package queryir is a small query representation for reading recorded
// sessions back out of the store.
//
// Callers describe what they want (a table, a filter, the columns) and a
// backend compiles it. The only backend is querysql, which targets SQLite.
//
//	[trace filters] → [Query IR] → [querysql] → parameterized SQL
//
// The fragment is deliberately narrow:
//   - Select(from, filter, columns, order) over one table
//   - Predicates: Equals, Range, And
//   - Explicit columns (no SELECT *)
//
// It excludes joins, OR, NULL comparisons, aggregation and subqueries.
//
// SEALED INTERFACES:
//
// Query and Predicate use the marker method pattern. Only types in this
// package implement them, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case Range:
//	case And:
//	default:
//	    // unreachable for well-formed queries
//	}
//
// VALUES:
//
// Literal values are limited to string, int, int64 and bool. Floats are
// rejected so a filter never depends on float formatting.
package queryir
