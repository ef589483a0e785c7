package output

import (
	"fmt"
	"strings"

	"tangle/internal/graph"
	"tangle/internal/report"
)

type TSVGenerator struct {
	graph *graph.Graph
}

func NewTSVGenerator(g *graph.Graph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tToKind\n")

	for _, from := range t.graph.Nodes() {
		for _, to := range t.graph.Adjacency(from) {
			kind, _ := t.graph.Kind(to)
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\n", from, to, kind))
		}
	}

	return buf.String(), nil
}

func (t *TSVGenerator) GenerateOccurrences(occs []report.Occurrence) (string, error) {
	var buf strings.Builder

	buf.WriteString("Kind\tFile\tLine\tColumn\tMessage\n")
	for _, o := range occs {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%s\n",
			o.Kind, o.RelPath, o.Line, o.Column, o.Message))
	}

	return buf.String(), nil
}
