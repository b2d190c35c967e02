package queryir

// Query is a sealed query node.
type Query interface {
	queryNode()
}

// Predicate is a sealed filter node used in Select.Filter.
type Predicate interface {
	predicateNode()
}

// Select reads rows from one table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order>
//
// Example:
//
//	Select{
//	  From:    "event_calls",
//	  Columns: []string{"session_id", "frame_seq", "ord", "event_class"},
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "session_id", Value: "0190a5c2-..."},
//	    Equals{Field: "phase", Value: "reset"},
//	  }},
//	}
//
// An empty OrderBy means the backend's stable default order for the table.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate // nil = no filter
	OrderBy []string
}

func (Select) queryNode() {}

// Equals matches rows where Field equals Value.
//
//	<field> = <value>
type Equals struct {
	Field string
	Value any // string, int, int64 or bool
}

func (Equals) predicateNode() {}

// Range matches rows where Field lies in [Min, Max]. A nil bound is open.
//
//	<field> >= <min> AND <field> <= <max>
type Range struct {
	Field string
	Min   any
	Max   any
}

func (Range) predicateNode() {}

// And matches rows where every predicate matches. Empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// AllOf builds an And from preds, dropping nils. It returns nil when no
// predicate remains and the single predicate when only one does.
func AllOf(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
