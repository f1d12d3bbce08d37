package projectgraph

import (
	"errors"
	"fmt"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// Reverse returns a graph with every edge flipped.
func Reverse(g *ProjectGraph) *ProjectGraph {
	b := NewBuilder(g.Nodes)
	for _, dep := range g.AllDependencies() {
		b.AddDependency(Dependency{Source: dep.Target, Target: dep.Source, Type: dep.Type})
	}
	return b.Build()
}

// FilterNodes returns the subgraph of nodes accepted by keep. Edges touching
// removed nodes are dropped.
func FilterNodes(g *ProjectGraph, keep func(ProjectNode) bool) *ProjectGraph {
	kept := make(NodeRecords)
	for name, node := range g.Nodes {
		if keep(node) {
			kept[name] = node
		}
	}

	b := NewBuilder(kept)
	for _, dep := range g.AllDependencies() {
		b.AddDependency(dep)
	}
	return b.Build()
}

// WithDeps returns the subgraph made of the named projects and everything they
// transitively depend on. Unknown names are ignored.
func WithDeps(g *ProjectGraph, names []string) *ProjectGraph {
	reachable := reachableFrom(g, names)
	return FilterNodes(g, func(node ProjectNode) bool {
		return reachable[node.Name]
	})
}

// Affected returns, in sorted order, the projects that own any of the touched
// files together with every project that transitively depends on them.
func Affected(g *ProjectGraph, touchedFiles []string) []string {
	owners := make(map[string]string)
	for name, node := range g.Nodes {
		for _, f := range node.Files {
			owners[f.File] = name
		}
	}

	var touched []string
	for _, f := range touchedFiles {
		if owner, ok := owners[NormalizePath(f)]; ok {
			touched = append(touched, owner)
		}
	}

	affected := reachableFrom(Reverse(g), touched)
	return sortedKeys(affected)
}

func reachableFrom(g *ProjectGraph, start []string) map[string]bool {
	visited := make(map[string]bool)
	var queue []string
	for _, name := range start {
		if _, ok := g.Nodes[name]; ok && !visited[name] {
			visited[name] = true
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range g.Dependencies[current] {
			if !visited[dep.Target] {
				visited[dep.Target] = true
				queue = append(queue, dep.Target)
			}
		}
	}
	return visited
}

// ErrCyclicGraph is returned by TopologicalOrder when the graph has a cycle.
var ErrCyclicGraph = errors.New("project graph contains a dependency cycle")

// TopologicalOrder returns project names so that every project comes after the
// projects it depends on. Ties are broken by name.
func TopologicalOrder(g *ProjectGraph) ([]string, error) {
	// Edges point from dependency to dependent so the sort yields build order.
	lg, err := toGraphlib(g, true)
	if err != nil {
		return nil, err
	}

	order, err := graphlib.StableTopologicalSort(lg, func(a, b string) bool {
		return a < b
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCyclicGraph, err)
	}
	return order, nil
}

// Cycles returns every dependency cycle as a sorted list of project names.
// The result is ordered by each cycle's first name.
func Cycles(g *ProjectGraph) ([][]string, error) {
	lg, err := toGraphlib(g, false)
	if err != nil {
		return nil, err
	}

	components, err := graphlib.StronglyConnectedComponents(lg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute strongly connected components: %w", err)
	}

	var cycles [][]string
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		sort.Strings(component)
		cycles = append(cycles, component)
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})
	return cycles, nil
}

// InCycle reports, for each edge, whether both endpoints belong to the same cycle.
func InCycle(g *ProjectGraph) (map[Dependency]bool, error) {
	cycles, err := Cycles(g)
	if err != nil {
		return nil, err
	}

	component := make(map[string]int)
	for i, cycle := range cycles {
		for _, name := range cycle {
			component[name] = i + 1
		}
	}

	inCycle := make(map[Dependency]bool)
	for _, dep := range g.AllDependencies() {
		if c := component[dep.Source]; c != 0 && c == component[dep.Target] {
			inCycle[dep] = true
		}
	}
	return inCycle, nil
}

func toGraphlib(g *ProjectGraph, reversed bool) (graphlib.Graph[string, string], error) {
	lg := graphlib.New(graphlib.StringHash, graphlib.Directed())
	for _, name := range g.NodeNames() {
		if err := lg.AddVertex(name); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add project %s: %w", name, err)
		}
	}

	for _, dep := range g.AllDependencies() {
		source, target := dep.Source, dep.Target
		if reversed {
			source, target = target, source
		}
		// Parallel edges of different types collapse into one topological edge.
		if err := lg.AddEdge(source, target); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("failed to add dependency %s -> %s: %w", dep.Source, dep.Target, err)
		}
	}
	return lg, nil
}
