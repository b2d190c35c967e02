package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] frame %d %s %s (state %d)\n", i+1, ev.Frame, ev.Phase, ev.EventClass, ev.Index)
		}
	}

	return buf.String()
}

// assertEventContains checks that some call matches the class and every
// optional narrowing field.
func assertEventContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if string(ev.EventClass) != a.Class {
			continue
		}
		if a.Phase != "" && string(ev.Phase) != a.Phase {
			continue
		}
		if a.Index != nil && ev.Index != *a.Index {
			continue
		}
		if a.Frame != 0 && ev.Frame != a.Frame {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: describeContains(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func describeContains(a Assertion) string {
	desc := "class " + a.Class
	if a.Phase != "" {
		desc += " phase " + a.Phase
	}
	if a.Index != nil {
		desc += fmt.Sprintf(" index %d", *a.Index)
	}
	if a.Frame != 0 {
		desc += fmt.Sprintf(" in frame %d", a.Frame)
	}
	return desc
}

// assertEventOrder checks that classes appear as a subsequence of the trace.
// Each expected class is matched against the first occurrence after the
// previous match, so repeated classes are supported.
func assertEventOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for i, class := range a.Classes {
		found := false
		for pos < len(trace) {
			ev := trace[pos]
			pos++
			if string(ev.EventClass) == class {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("classes in order: %v", a.Classes),
				Actual:   fmt.Sprintf("%s (position %d) not found after %v", class, i+1, a.Classes[:i]),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertEventCount checks if the class appears exactly the specified number of times.
func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if string(ev.EventClass) == a.Class {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Class),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertActiveStates compares the final active set in insertion order.
func assertActiveStates(result *Result, a Assertion) error {
	want := a.States
	if want == nil {
		want = []int{}
	}
	if !slices.Equal(result.Active, want) {
		return &AssertionError{
			Type:     AssertActiveStates,
			Expected: fmt.Sprintf("active states %v", want),
			Actual:   fmt.Sprintf("active states %v", result.Active),
		}
	}
	return nil
}

// ExprEvent is one trace event as seen by expr assertions.
type ExprEvent struct {
	Class   string `expr:"class"`
	Phase   string `expr:"phase"`
	Index   int    `expr:"index"`
	Frame   int64  `expr:"frame"`
	Context string `expr:"context"`
	Resets  int    `expr:"resets"`
}

// ExprEnv is the environment for expr assertions.
type ExprEnv struct {
	Events []ExprEvent `expr:"events"`
	Active []int       `expr:"active"`
	Frames int         `expr:"frames"`
}

// NewExprEnv builds the expr environment for a result.
func NewExprEnv(result *Result) ExprEnv {
	env := ExprEnv{
		Events: make([]ExprEvent, len(result.Trace)),
		Active: result.Active,
		Frames: result.Frames,
	}
	for i, ev := range result.Trace {
		env.Events[i] = ExprEvent{
			Class:   string(ev.EventClass),
			Phase:   string(ev.Phase),
			Index:   ev.Index,
			Frame:   ev.Frame,
			Context: ev.Context,
			Resets:  len(ev.ResetSources),
		}
	}
	return env
}

// assertExpr compiles and runs a boolean expr-lang expression.
func assertExpr(result *Result, a Assertion) error {
	program, err := expr.Compile(a.Expr, expr.Env(ExprEnv{}), expr.AsBool())
	if err != nil {
		return fmt.Errorf("expr %q: compile: %w", a.Expr, err)
	}

	out, err := expr.Run(program, NewExprEnv(result))
	if err != nil {
		return fmt.Errorf("expr %q: run: %w", a.Expr, err)
	}

	if ok, _ := out.(bool); !ok {
		return &AssertionError{
			Type:     AssertExpr,
			Expected: a.Expr,
			Actual:   "false",
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(result.Trace, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		case AssertActiveStates:
			err = assertActiveStates(result, assertion)
		case AssertExpr:
			err = assertExpr(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
