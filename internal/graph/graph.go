package graph

import (
	"sort"
	"sync"

	"tangle/internal/observability"
	"tangle/internal/resolver"
)

// Graph is the shared module dependency graph for one invocation. It is a
// multigraph collapsed to simple edges; self-edges are permitted but
// flagged separately as degenerate one-node cycles. Writers must hold the
// lock via the exported mutators; readers may run concurrently once the
// write phase for an invocation is complete.
//
// Graphs are plain values owned by their invocation, never package-level
// singletons, so isolated concurrent invocations cannot observe each
// other.
type Graph struct {
	mu    sync.RWMutex
	kinds map[string]resolver.Kind
	edges map[string]map[string]bool
	self  map[string]bool
}

func New() *Graph {
	return &Graph{
		kinds: make(map[string]resolver.Kind),
		edges: make(map[string]map[string]bool),
		self:  make(map[string]bool),
	}
}

// AddEdge records from -> to, collapsing duplicates. A self-edge is
// recorded and additionally flagged as a degenerate cycle.
func (g *Graph) AddEdge(from, to resolver.NodeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.kinds[from.Name] = from.Kind
	g.kinds[to.Name] = to.Kind

	if g.edges[from.Name] == nil {
		g.edges[from.Name] = make(map[string]bool)
	}
	g.edges[from.Name][to.Name] = true

	if from.Name == to.Name {
		g.self[from.Name] = true
	}

	observability.GraphNodes.Set(float64(len(g.kinds)))
	observability.GraphEdges.Set(float64(g.edgeCountLocked()))
}

// AddNode registers a node without edges, so isolated files still appear
// in the graph.
func (g *Graph) AddNode(key resolver.NodeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.kinds[key.Name]; !ok {
		g.kinds[key.Name] = key.Kind
		observability.GraphNodes.Set(float64(len(g.kinds)))
	}
}

func (g *Graph) edgeCountLocked() int {
	n := 0
	for _, targets := range g.edges {
		n += len(targets)
	}
	return n
}

func (g *Graph) HasEdge(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[from][to]
}

// Kind returns the tagged kind recorded for a node key.
func (g *Graph) Kind(key string) (resolver.Kind, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	k, ok := g.kinds[key]
	return k, ok
}

// Adjacency returns the sorted outgoing edge targets of a node.
func (g *Graph) Adjacency(from string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.adjacencyLocked(from)
}

func (g *Graph) adjacencyLocked(from string) []string {
	targets := make([]string, 0, len(g.edges[from]))
	for to := range g.edges[from] {
		targets = append(targets, to)
	}
	sort.Strings(targets)
	return targets
}

// Nodes returns all node keys, sorted.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]string, 0, len(g.kinds))
	for key := range g.kinds {
		nodes = append(nodes, key)
	}
	sort.Strings(nodes)
	return nodes
}

// InternalNodes returns the sorted node keys tagged internal.
func (g *Graph) InternalNodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]string, 0, len(g.kinds))
	for key, kind := range g.kinds {
		if kind == resolver.KindInternal {
			nodes = append(nodes, key)
		}
	}
	sort.Strings(nodes)
	return nodes
}

// SelfLoops returns the sorted keys flagged as degenerate one-node cycles.
func (g *Graph) SelfLoops() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loops := make([]string, 0, len(g.self))
	for key := range g.self {
		loops = append(loops, key)
	}
	sort.Strings(loops)
	return loops
}

func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.kinds)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCountLocked()
}

// Edges returns a copy of the adjacency structure with sorted targets.
func (g *Graph) Edges() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := make(map[string][]string, len(g.edges))
	for from := range g.edges {
		res[from] = g.adjacencyLocked(from)
	}
	return res
}
