package output

import (
	"strings"
	"testing"

	"tangle/internal/graph"
	"tangle/internal/report"
	"tangle/internal/resolver"
)

func sampleGraph() *graph.Graph {
	g := graph.New()
	g.AddEdge(resolver.Internal("src/a.ts"), resolver.Internal("src/b.ts"))
	g.AddEdge(resolver.Internal("src/b.ts"), resolver.Internal("src/a.ts"))
	g.AddEdge(resolver.Internal("src/a.ts"), resolver.External("react"))
	return g
}

func TestDOTGenerate(t *testing.T) {
	g := sampleGraph()
	cycles := [][]string{{"src/a.ts", "src/b.ts", "src/a.ts"}}

	dot, err := NewDOTGenerator(g).Generate(cycles)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{
		"digraph dependencies {",
		"subgraph cluster_internal {",
		`"src/a.ts" [fillcolor="mistyrose"`,
		`label="CYCLE"`,
		`"react";`,
		"style=dashed",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q", want)
		}
	}
}

func TestDOTGenerateNoCycles(t *testing.T) {
	g := graph.New()
	g.AddEdge(resolver.Internal("src/a.ts"), resolver.Internal("src/b.ts"))

	dot, err := NewDOTGenerator(g).Generate(nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(dot, "CYCLE") {
		t.Error("CYCLE label present without cycles")
	}
	if !strings.Contains(dot, "forestgreen") {
		t.Error("internal edge styling missing")
	}
}

func TestTSVGenerate(t *testing.T) {
	tsv, err := NewTSVGenerator(sampleGraph()).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if lines[0] != "From\tTo\tToKind" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("rows = %d, want 3 edges plus header", len(lines)-1)
	}
	if !strings.Contains(tsv, "src/a.ts\treact\texternal") {
		t.Errorf("missing external edge row in %q", tsv)
	}
	if !strings.Contains(tsv, "src/a.ts\tsrc/b.ts\tinternal") {
		t.Errorf("missing internal edge row in %q", tsv)
	}
}

func TestTSVGenerateOccurrences(t *testing.T) {
	occs := []report.Occurrence{
		{Kind: report.KindMissingFile, RelPath: "src/a.ts", Line: 3, Column: 1, Message: "import \"./gone\" resolves to no known file"},
	}

	tsv, err := NewTSVGenerator(graph.New()).GenerateOccurrences(occs)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tsv, "missing_file\tsrc/a.ts\t3\t1\t") {
		t.Errorf("occurrence row missing in %q", tsv)
	}
}
