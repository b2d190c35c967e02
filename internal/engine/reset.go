package engine

import (
	"slices"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/roach88/comboseq/internal/ir"
)

// requestResetWithNode resets state i. First-layer states heal in place:
// their cursors and timer are cleared and they stay active. Deeper states
// are queued as a ResetSource and leave the active set immediately.
func (e *Engine) requestResetWithNode(i int) {
	st := e.states[i]
	if st.def.IsFirstLayer() {
		st.Reset()
		return
	}

	e.resets.Enqueue(ir.ResetSource{SourceIndex: i})
	e.active.Remove(i)
}

// processResetSources drains the queue and resolves it into reset calls
// and branch restarts. Every call emitted this frame gets its own copy of
// the drained sources, and the original slice is returned.
func (e *Engine) processResetSources() []ir.ResetSource {
	sources := e.resets.Drain()
	if len(sources) == 0 {
		return nil
	}

	resetAll := false
	nodeSources := linkedhashset.New()
	hardParents := linkedhashset.New()
	checkParents := linkedhashset.New()

	for _, src := range sources {
		if src.SourceIndex == ir.IndexNone {
			resetAll = true
			continue
		}
		if !e.validIndex(src.SourceIndex) {
			e.logger.Warn("reset source dropped: index out of range", "index", src.SourceIndex)
			continue
		}

		nodeSources.Add(src.SourceIndex)
		def := e.states[src.SourceIndex].def
		if !def.IsInputNode && e.scope == ResetScopeBranch {
			hardParents.Add(def.FirstLayerParentIndex)
		} else {
			checkParents.Add(def.FirstLayerParentIndex)
		}
	}

	for _, i := range toInts(nodeSources) {
		e.emit(ir.PhaseReset, i, e.states[i].def.ResetEvents)
	}

	if resetAll {
		for _, i := range e.ActiveIndices() {
			e.emit(ir.PhaseReset, i, e.states[i].def.ResetEvents)
		}
		e.active.Clear()
	} else {
		for _, i := range e.ActiveIndices() {
			parent := e.states[i].def.FirstLayerParentIndex
			switch {
			case hardParents.Contains(parent):
				e.emit(ir.PhaseReset, i, e.states[i].def.ResetEvents)
				e.active.Remove(i)
				checkParents.Remove(parent)
			case checkParents.Contains(parent):
				// A live sibling keeps the branch going.
				checkParents.Remove(parent)
			}
		}

		if !hardParents.Empty() {
			e.makeTransition(0, toInts(hardParents))
		}
		if !checkParents.Empty() {
			e.makeTransition(0, toInts(checkParents))
		}
	}

	for k := range e.calls {
		e.calls[k].ResetSources = slices.Clone(sources)
	}

	e.logger.Debug("resets resolved",
		"sources", len(sources),
		"reset_all", resetAll,
		"nodes", sortedInts(toInts(nodeSources)),
		"restarted", sortedInts(append(toInts(hardParents), toInts(checkParents)...)))

	return sources
}
