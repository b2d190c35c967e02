package compiler

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/comboseq/internal/ir"
)

// GraphFormat selects the text format written by WriteGraph.
type GraphFormat string

const (
	GraphMermaid GraphFormat = "mermaid"
	GraphDot     GraphFormat = "dot"
)

// WriteGraph renders the asset's transition graph. Solid edges are next
// links; dashed edges point from a deeper state to its first-layer parent.
func WriteGraph(w io.Writer, asset *ir.Asset, format GraphFormat) error {
	switch format {
	case GraphMermaid, "":
		return writeMermaid(w, asset)
	case GraphDot:
		return writeDot(w, asset)
	default:
		return fmt.Errorf("unknown graph format %q: must be mermaid or dot", format)
	}
}

func writeMermaid(w io.Writer, asset *ir.Asset) error {
	var b strings.Builder
	b.WriteString("graph TB\n")

	for i := range asset.States {
		s := &asset.States[i]
		label := strings.ReplaceAll(stateLabel(i, s), `"`, "'")
		if s.IsInputNode {
			fmt.Fprintf(&b, "  n%d[\"%s\"]\n", i, label)
		} else {
			fmt.Fprintf(&b, "  n%d(\"%s\")\n", i, label)
		}
	}
	for i := range asset.States {
		s := &asset.States[i]
		for _, n := range s.NextIndice {
			if asset.ValidIndex(n) {
				fmt.Fprintf(&b, "  n%d --> n%d\n", i, n)
			}
		}
		if p := s.FirstLayerParentIndex; i > 0 && p > 0 && asset.ValidIndex(p) {
			fmt.Fprintf(&b, "  n%d -.-> n%d\n", i, p)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDot(w io.Writer, asset *ir.Asset) error {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", asset.Name)
	b.WriteString("  node [shape=\"box\"];\n")

	for i := range asset.States {
		s := &asset.States[i]
		shape := "box"
		if !s.IsInputNode {
			shape = "ellipse"
		}
		fmt.Fprintf(&b, "  n%d [label=%q shape=%q];\n", i, stateLabel(i, s), shape)
	}
	for i := range asset.States {
		s := &asset.States[i]
		for _, n := range s.NextIndice {
			if asset.ValidIndex(n) {
				fmt.Fprintf(&b, "  n%d -> n%d;\n", i, n)
			}
		}
		if p := s.FirstLayerParentIndex; i > 0 && p > 0 && asset.ValidIndex(p) {
			fmt.Fprintf(&b, "  n%d -> n%d [style=dashed];\n", i, p)
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// stateLabel is "index: action(events) ..." with actions in name order.
func stateLabel(i int, s *ir.State) string {
	if s.IsEmpty() {
		if s.IsInputNode {
			return fmt.Sprintf("%d: pass", i)
		}
		if i == 0 {
			return "0: root"
		}
		return fmt.Sprintf("%d: jump", i)
	}

	names := make([]string, 0, len(s.InputActions))
	for name := range s.InputActions {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		a := s.InputActions[name]
		switch a.Kind {
		case ir.KindAxis:
			parts = append(parts, fmt.Sprintf("%s[%g,%g]", name, a.Low, a.High))
		case ir.KindAxis2D:
			parts = append(parts, fmt.Sprintf("%s(%s,%s)>%g", name, a.AxisA, a.AxisB, a.Radius))
		default:
			evs := make([]string, len(a.Events))
			for j, ev := range a.Events {
				evs[j] = string(ev)
			}
			parts = append(parts, fmt.Sprintf("%s(%s)", name, strings.Join(evs, ",")))
		}
	}
	label := fmt.Sprintf("%d: %s", i, strings.Join(parts, " "))
	if s.CanBePassedAfterTime {
		label += fmt.Sprintf(" after %gs", s.TimeParam)
	}
	return label
}
