package graph

import (
	"tangle/internal/resolver"
	"tangle/internal/scanner"
)

// DefaultMaxDepth bounds cycle search; deeper real cycles are simply not
// reported.
const DefaultMaxDepth = 5

// DetectCycle runs a bounded depth-first search from startKey and returns
// the first cycle found as a closed walk (first element repeated last,
// length >= 2), or nil. Nodes tagged external are pruned from traversal by
// tag; edges were classified once at resolution time. Self-loops are
// reported separately via SelfLoops and never enter the search.
func (g *Graph) DetectCycle(startKey string, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if kind, ok := g.kinds[startKey]; !ok || kind == resolver.KindExternal {
		return nil
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var cycle []string

	var dfs func(curr string, depth int) bool
	dfs = func(curr string, depth int) bool {
		if depth > maxDepth {
			return false
		}

		visited[curr] = true
		onStack[curr] = true
		path = append(path, curr)

		for _, next := range g.adjacencyLocked(curr) {
			if next == curr {
				continue
			}
			if kind, ok := g.kinds[next]; !ok || kind == resolver.KindExternal {
				continue
			}
			if onStack[next] {
				start := -1
				for i, key := range path {
					if key == next {
						start = i
						break
					}
				}
				if start >= 0 {
					cycle = make([]string, 0, len(path)-start+1)
					cycle = append(cycle, path[start:]...)
					cycle = append(cycle, next)
					return true
				}
				continue
			}
			if !visited[next] && dfs(next, depth+1) {
				return true
			}
		}

		onStack[curr] = false
		path = path[:len(path)-1]
		return false
	}

	if dfs(startKey, 1) {
		return cycle
	}
	return nil
}

// ValidateCycle confirms a candidate cycle against the current known file
// set and edge set: every node must be a known file and every consecutive
// pair a literal edge. Partial or stale graph state fails validation and
// the candidate must be discarded.
func (g *Graph) ValidateCycle(cycle []string, files scanner.FileMap) bool {
	if len(cycle) < 3 || cycle[0] != cycle[len(cycle)-1] {
		return false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, key := range cycle {
		if !files.Has(key) {
			return false
		}
	}
	for i := 0; i+1 < len(cycle); i++ {
		if !g.edges[cycle[i]][cycle[i+1]] {
			return false
		}
	}
	return true
}
