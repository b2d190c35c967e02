package queryir

import (
	"errors"
	"fmt"
	"regexp"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks that q is well formed: identifiers are plain lower-case
// names, columns are explicit and literal values have a supported type.
// It returns every problem found, joined.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addf("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addf("nil query")
	default:
		v.addf("unsupported query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.ident("table", sel.From)
	if len(sel.Columns) == 0 {
		v.addf("select from %s: explicit columns required", sel.From)
	}
	for _, c := range sel.Columns {
		v.ident("column", c)
	}
	for _, c := range sel.OrderBy {
		v.ident("order column", c)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.ident("field", pred.Field)
		if pred.Value == nil {
			v.addf("field %s: compared to NULL", pred.Field)
			return
		}
		v.value(pred.Field, pred.Value)
	case Range:
		v.ident("field", pred.Field)
		if pred.Min == nil && pred.Max == nil {
			v.addf("field %s: range has no bounds", pred.Field)
		}
		if pred.Min != nil {
			v.value(pred.Field, pred.Min)
		}
		if pred.Max != nil {
			v.value(pred.Field, pred.Max)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case nil:
		v.addf("nil predicate")
	default:
		v.addf("unsupported predicate type %T", p)
	}
}

func (v *validator) ident(kind, name string) {
	if !identPattern.MatchString(name) {
		v.addf("invalid %s name %q", kind, name)
	}
}

func (v *validator) value(field string, val any) {
	switch val.(type) {
	case string, int, int64, bool:
	default:
		v.addf("field %s: unsupported value type %T", field, val)
	}
}
