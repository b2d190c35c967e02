package engine

import "github.com/roach88/comboseq/internal/ir"

// makeTransition enters every successor of from, or from's first-layer
// parent when next is empty, then passes from.
//
// Entries happen before the pass so handlers see a target's enter call
// ahead of its predecessor's pass call.
func (e *Engine) makeTransition(from int, next []int) {
	if len(next) > 0 {
		for _, n := range next {
			e.enterNode(n)
		}
	} else if e.validIndex(from) {
		e.enterNode(e.states[from].def.FirstLayerParentIndex)
	}

	e.passNode(from)
}

// enterNode activates i. Entering an active state is a no-op, which also
// bounds recursion through cycles of empty states: every state on the
// recursion stack is already active.
func (e *Engine) enterNode(i int) {
	if !e.validIndex(i) {
		e.logger.Warn("enter skipped: index out of range", "index", i)
		return
	}
	if e.active.Contains(i) {
		return
	}

	st := e.states[i]
	e.emit(ir.PhaseEnter, i, st.def.EnterEvents)
	st.Reset()
	e.active.Add(i)
	e.entered[i] = struct{}{}

	// Empty input states are pass-through hubs.
	if st.def.IsInputNode && st.IsEmpty() {
		e.makeTransition(i, st.def.NextIndice)
	}
}

// passNode fires i's pass events and deactivates it.
func (e *Engine) passNode(i int) {
	if !e.active.Contains(i) {
		return
	}
	e.emit(ir.PhasePass, i, e.states[i].def.PassEvents)
	e.active.Remove(i)
}

func (e *Engine) emit(phase ir.EventPhase, i int, classes []ir.EventClass) {
	def := e.states[i].def
	for _, class := range classes {
		e.calls = append(e.calls, ir.EventCall{
			EventClass: class,
			Phase:      phase,
			Index:      i,
			Object:     def.Object,
			Context:    def.Context,
		})
	}
}
