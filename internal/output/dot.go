package output

import (
	"fmt"
	"strings"

	"tangle/internal/graph"
	"tangle/internal/resolver"
)

type DOTGenerator struct {
	graph *graph.Graph
}

func NewDOTGenerator(g *graph.Graph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

func (d *DOTGenerator) Generate(cycles [][]string) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	// Cycle edge set for highlighting.
	cycleEdges := make(map[string]map[string]bool)
	cycleNodes := make(map[string]bool)
	for _, cycle := range cycles {
		for i := 0; i+1 < len(cycle); i++ {
			from, to := cycle[i], cycle[i+1]
			if cycleEdges[from] == nil {
				cycleEdges[from] = make(map[string]bool)
			}
			cycleEdges[from][to] = true
			cycleNodes[from] = true
		}
	}

	buf.WriteString("  subgraph cluster_internal {\n")
	buf.WriteString("    label=\"Repository Files\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
	for _, key := range d.graph.InternalNodes() {
		if cycleNodes[key] {
			buf.WriteString(fmt.Sprintf("    \"%s\" [fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", key))
		} else {
			buf.WriteString(fmt.Sprintf("    \"%s\" [color=\"darkslategrey\"];\n", key))
		}
	}
	buf.WriteString("  }\n\n")

	buf.WriteString("  // External modules\n")
	buf.WriteString("  node [fillcolor=\"gainsboro\", style=\"rounded,filled\", color=\"grey\"];\n")
	for _, key := range d.graph.Nodes() {
		if kind, _ := d.graph.Kind(key); kind == resolver.KindExternal {
			buf.WriteString(fmt.Sprintf("  \"%s\";\n", key))
		}
	}
	buf.WriteString("\n")

	for from, targets := range d.graph.Edges() {
		for _, to := range targets {
			toKind, _ := d.graph.Kind(to)
			switch {
			case cycleEdges[from][to]:
				buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", from, to))
			case toKind == resolver.KindInternal:
				buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"forestgreen\", penwidth=1.8];\n", from, to))
			default:
				buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"grey\", style=dashed];\n", from, to))
			}
		}
	}

	buf.WriteString("}\n")

	return buf.String(), nil
}
