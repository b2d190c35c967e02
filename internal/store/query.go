package store

import (
	"context"
	"fmt"

	"github.com/roach88/comboseq/internal/queryir"
	"github.com/roach88/comboseq/internal/querysql"
)

// callColumns is the column list scanCall expects, in order.
var callColumns = []string{
	"session_id", "frame_seq", "ord", "phase", "event_class",
	"state_index", "object", "context", "reset_sources",
}

// querySchema lists what QueryCalls may filter on.
var querySchema = querysql.Schema{
	"event_calls": {
		Columns: callColumns,
		OrderBy: []string{"session_id", "frame_seq", "ord"},
		Text:    []string{"session_id"},
	},
}

// CallFilter selects recorded event calls. Zero fields match everything.
type CallFilter struct {
	SessionID string
	Class     string
	Phase     string
	FromFrame int64 // inclusive, 0 = first
	ToFrame   int64 // inclusive, 0 = last
}

// Predicate converts f to a query predicate, nil when f matches all calls.
func (f CallFilter) Predicate() queryir.Predicate {
	var preds []queryir.Predicate
	if f.SessionID != "" {
		preds = append(preds, queryir.Equals{Field: "session_id", Value: f.SessionID})
	}
	if f.Class != "" {
		preds = append(preds, queryir.Equals{Field: "event_class", Value: f.Class})
	}
	if f.Phase != "" {
		preds = append(preds, queryir.Equals{Field: "phase", Value: f.Phase})
	}
	if f.FromFrame > 0 || f.ToFrame > 0 {
		r := queryir.Range{Field: "frame_seq"}
		if f.FromFrame > 0 {
			r.Min = f.FromFrame
		}
		if f.ToFrame > 0 {
			r.Max = f.ToFrame
		}
		preds = append(preds, r)
	}
	return queryir.AllOf(preds...)
}

// QueryCalls returns the calls matching f ordered by
// (session_id, frame_seq, ord).
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryCalls(ctx context.Context, f CallFilter) ([]CallRecord, error) {
	sql, params, err := querysql.NewSQLCompiler(querySchema).Compile(queryir.Select{
		From:    "event_calls",
		Columns: callColumns,
		Filter:  f.Predicate(),
	})
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	return s.queryCalls(ctx, sql, params...)
}
