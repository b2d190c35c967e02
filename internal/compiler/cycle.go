package compiler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/roach88/comboseq/internal/ir"
)

// CycleWarning reports a loop made only of empty input states.
//
// Such loops end at runtime, since entering an active state does nothing,
// but they never wait for input and are almost always a graph mistake.
type CycleWarning struct {
	Path    []int  `json:"path"` // e.g. [3, 4, 3]
	Message string `json:"message"`
	Level   string `json:"level"`
}

// AnalyzePassThrough reports every loop in the subgraph of empty input
// states: each strongly connected component with more than one member, and
// each state that lists itself as a target. Warnings are ordered by their
// lowest state index.
func AnalyzePassThrough(asset *ir.Asset) []CycleWarning {
	warnings := []CycleWarning{}
	if asset == nil {
		return warnings
	}

	g := passThroughEdges(asset)
	for _, comp := range components(g) {
		switch {
		case len(comp) > 1:
			path := walkCycle(comp, g)
			warnings = append(warnings, CycleWarning{
				Path:    path,
				Message: "Pass-through loop of empty input states: " + arrowJoin(path),
				Level:   "warning",
			})
		case slices.Contains(targets(g, comp[0]), comp[0]):
			warnings = append(warnings, CycleWarning{
				Path:    []int{comp[0], comp[0]},
				Message: fmt.Sprintf("Empty input state enters itself: %d → %d", comp[0], comp[0]),
				Level:   "warning",
			})
		}
	}

	slices.SortFunc(warnings, func(a, b CycleWarning) int { return a.Path[0] - b.Path[0] })
	return warnings
}

// passThroughEdges maps each empty input state, in index order, to the
// empty input states it targets.
func passThroughEdges(asset *ir.Asset) *treemap.Map {
	empty := func(i int) bool {
		return asset.ValidIndex(i) && asset.States[i].IsInputNode && asset.States[i].IsEmpty()
	}

	g := treemap.NewWithIntComparator()
	for i := range asset.States {
		if !empty(i) {
			continue
		}
		var out []int
		for _, n := range asset.States[i].NextIndice {
			if empty(n) {
				out = append(out, n)
			}
		}
		g.Put(i, out)
	}
	return g
}

func targets(g *treemap.Map, node int) []int {
	out, _ := g.Get(node)
	return out.([]int)
}

// components returns the strongly connected components of g (Tarjan),
// each sorted. Roots are tried in index order, so the result is stable.
func components(g *treemap.Map) [][]int {
	var (
		next    int
		order   = map[int]int{}
		low     = map[int]int{}
		stack   = arraystack.New()
		onStack = hashset.New()
		comps   [][]int
	)

	var visit func(v int)
	visit = func(v int) {
		order[v], low[v] = next, next
		next++
		stack.Push(v)
		onStack.Add(v)

		for _, w := range targets(g, v) {
			if _, seen := order[w]; !seen {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack.Contains(w) {
				low[v] = min(low[v], order[w])
			}
		}

		if low[v] != order[v] {
			return
		}
		var comp []int
		for {
			top, _ := stack.Pop()
			w := top.(int)
			onStack.Remove(w)
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}

	for _, k := range g.Keys() {
		if _, seen := order[k.(int)]; !seen {
			visit(k.(int))
		}
	}
	return comps
}

// walkCycle follows edges inside comp from its lowest member until it gets
// back there, always taking the first unvisited target.
func walkCycle(comp []int, g *treemap.Map) []int {
	start := comp[0]
	path := []int{start}
	visited := hashset.New(start)

	for cur := start; ; {
		step := -1
		for _, n := range targets(g, cur) {
			if n == start || (slices.Contains(comp, n) && !visited.Contains(n)) {
				step = n
				break
			}
		}
		if step < 0 {
			return append(path, start)
		}
		path = append(path, step)
		if step == start {
			return path
		}
		visited.Add(step)
		cur = step
	}
}

func arrowJoin(path []int) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " → ")
}
