package builder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"tangle/internal/errors"
	"tangle/internal/graph"
	"tangle/internal/observability"
	"tangle/internal/parser"
	"tangle/internal/report"
	"tangle/internal/resolver"
	"tangle/internal/scanner"
)

// maxRelativeDepth is the number of "../" segments beyond which a relative
// import is reported as a structural smell.
const maxRelativeDepth = 3

// Builder turns a scanned file map into the shared dependency graph.
// Extraction runs concurrently per file but only reads shared state; all
// graph writes happen on the single merge goroutine.
type Builder struct {
	files      scanner.FileMap
	graph      *graph.Graph
	codeParser *parser.Parser
	sink       report.Sink

	mu      sync.RWMutex
	dynamic map[string][]string
}

func New(files scanner.FileMap, sink report.Sink) *Builder {
	if sink == nil {
		sink = report.SlogSink{}
	}
	return &Builder{
		files:      files,
		graph:      graph.New(),
		codeParser: parser.NewParser(),
		sink:       sink,
		dynamic:    make(map[string][]string),
	}
}

func (b *Builder) Graph() *graph.Graph { return b.graph }

// DynamicNames exposes the dynamic-usage registry: imported names for a
// file that appear inside registration call shapes. Read-only; consumed by
// unused-import detectors, never part of the dependency graph.
func (b *Builder) DynamicNames(relPath string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.dynamic[relPath]...)
}

// fileResult is one file's extraction output, produced by a worker and
// applied by the merge loop.
type fileResult struct {
	relPath     string
	node        *resolver.NodeKey
	edges       []edge
	occurrences []report.Occurrence
	dynamic     []string
}

type edge struct {
	from resolver.NodeKey
	to   resolver.NodeKey
}

// Build extracts edges from every supported file in the map. Partition
// then merge: workers parse and resolve (reads only), the current
// goroutine applies all graph and registry writes. Cancellation is honored
// at per-file granularity; remaining files are abandoned and the partial
// graph kept.
func (b *Builder) Build(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 4
	}

	rels := make([]string, 0, len(b.files))
	for rel := range b.files {
		if b.codeParser.IsSupportedPath(rel) {
			rels = append(rels, rel)
		}
	}
	sort.Strings(rels)

	jobs := make(chan string)
	results := make(chan fileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				results <- b.extractFile(rel)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rel := range rels {
			select {
			case jobs <- rel:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		b.apply(res)
	}

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeCancelled, "graph build cancelled")
	}
	return nil
}

func (b *Builder) apply(res fileResult) {
	if res.node != nil {
		b.graph.AddNode(*res.node)
	}
	for _, e := range res.edges {
		b.graph.AddEdge(e.from, e.to)
	}
	for _, occ := range res.occurrences {
		b.sink.Report(occ)
	}
	if len(res.dynamic) > 0 {
		b.mu.Lock()
		b.dynamic[res.relPath] = res.dynamic
		b.mu.Unlock()
	}
}

// extractFile parses one file and resolves its imports. It only reads
// shared state (the file map); all writes happen later in apply.
func (b *Builder) extractFile(rel string) fileResult {
	res := fileResult{relPath: rel}
	entry := b.files[rel]
	if entry == nil || entry.Content == nil {
		return res
	}

	file, err := b.codeParser.ParseFile(rel, entry.Content)
	if err != nil {
		slog.Warn("failed to parse file", "path", rel, "error", err)
		return res
	}

	fromKey := resolver.Internal(rel)
	res.node = &fromKey
	res.dynamic = file.DynamicNames
	fromTyped := parser.IsTypedSource(rel)

	for _, imp := range file.Imports {
		// Type-only imports carry no runtime dependency: no edge, no
		// missing-file diagnostic.
		if imp.TypeOnly {
			continue
		}
		// Dynamically constructed specifiers cannot be resolved.
		if imp.Specifier == "" {
			continue
		}

		resolution := resolver.Resolve(imp.Specifier, rel, b.files)

		if resolution.Key.Kind == resolver.KindExternal {
			res.occurrences = append(res.occurrences, report.Occurrence{
				Kind:    report.KindExternalDependency,
				Message: fmt.Sprintf("external dependency %q", imp.Specifier),
				RelPath: rel,
				Line:    imp.Location.Line,
				Column:  imp.Location.Column,
			})
			res.edges = append(res.edges, edge{from: fromKey, to: resolution.Key})
			continue
		}

		if depth := resolver.RelativeDepth(imp.Specifier); depth > maxRelativeDepth {
			res.occurrences = append(res.occurrences, report.Occurrence{
				Kind:    report.KindDeepRelativeImport,
				Message: fmt.Sprintf("import %q traverses %d parent directories", imp.Specifier, depth),
				RelPath: rel,
				Line:    imp.Location.Line,
				Column:  imp.Location.Column,
			})
		}

		if fromTyped && strings.HasSuffix(strings.ToLower(imp.Specifier), ".js") && !resolution.Typed {
			res.occurrences = append(res.occurrences, report.Occurrence{
				Kind:    report.KindUntypedImport,
				Message: fmt.Sprintf("%q does not resolve to a typed source", imp.Specifier),
				RelPath: rel,
				Line:    imp.Location.Line,
				Column:  imp.Location.Column,
			})
		}

		if !resolution.Exists {
			res.occurrences = append(res.occurrences, report.Occurrence{
				Kind:    report.KindMissingFile,
				Message: fmt.Sprintf("import %q resolves to no known file", imp.Specifier),
				RelPath: rel,
				Line:    imp.Location.Line,
				Column:  imp.Location.Column,
			})
			continue
		}

		if resolution.Key.Name == fromKey.Name {
			res.occurrences = append(res.occurrences, report.Occurrence{
				Kind:    report.KindSelfImport,
				Message: "file imports itself",
				RelPath: rel,
				Line:    imp.Location.Line,
				Column:  imp.Location.Column,
			})
		}

		res.edges = append(res.edges, edge{from: fromKey, to: resolution.Key})
	}

	if file.HasDeclarative && file.HasRuntimeCall {
		res.occurrences = append(res.occurrences, report.Occurrence{
			Kind:    report.KindMixedImportStyles,
			Message: "file mixes declarative and runtime import styles",
			RelPath: rel,
		})
	}

	return res
}

// ReportCycles runs bounded cycle detection from every internal node and
// reports each distinct confirmed cycle once. With strict validation,
// candidates failing re-verification against the file set and edge set are
// silently dropped.
func (b *Builder) ReportCycles(maxDepth int, strict bool) [][]string {
	var cycles [][]string
	seen := make(map[string]bool)

	for _, key := range b.graph.InternalNodes() {
		cycle := b.graph.DetectCycle(key, maxDepth)
		if cycle == nil {
			continue
		}
		if strict && !b.graph.ValidateCycle(cycle, b.files) {
			continue
		}
		sig := cycleSignature(cycle)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		cycles = append(cycles, cycle)

		observability.CyclesDetectedTotal.Inc()
		b.sink.Report(report.Occurrence{
			Kind:    report.KindCycle,
			Message: strings.Join(cycle, " -> "),
			RelPath: cycle[0],
		})
	}

	return cycles
}

// cycleSignature canonicalizes a closed walk so rotations of the same
// cycle dedupe to one report.
func cycleSignature(cycle []string) string {
	nodes := cycle[:len(cycle)-1]
	minIdx := 0
	for i, key := range nodes {
		if key < nodes[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]string, 0, len(nodes))
	for i := range nodes {
		rotated = append(rotated, nodes[(minIdx+i)%len(nodes)])
	}
	return strings.Join(rotated, "\x00")
}
