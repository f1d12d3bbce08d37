package projectgraph

import "slices"

// Builder accumulates nodes and edges and emits frozen ProjectGraphs.
//
// Builder is not safe for concurrent use. Plugins return owned edge slices
// which the caller merges sequentially.
type Builder struct {
	nodes NodeRecords
	deps  map[string][]Dependency
	seen  map[Dependency]struct{}
}

// NewBuilder returns a builder seeded with a copy of nodes and no edges.
func NewBuilder(nodes NodeRecords) *Builder {
	b := &Builder{
		nodes: make(NodeRecords, len(nodes)),
		deps:  make(map[string][]Dependency, len(nodes)),
		seen:  make(map[Dependency]struct{}),
	}
	for name, node := range nodes {
		b.nodes[name] = cloneNode(node)
	}
	return b
}

// NewBuilderFromGraph returns a builder seeded with a copy of g's nodes and edges.
func NewBuilderFromGraph(g *ProjectGraph) *Builder {
	b := NewBuilder(g.Nodes)
	for _, dep := range g.AllDependencies() {
		b.AddDependency(dep)
	}
	return b
}

// AddNode inserts or replaces a node.
func (b *Builder) AddNode(node ProjectNode) {
	b.nodes[node.Name] = cloneNode(node)
}

// RemoveNode deletes a node together with every edge that touches it.
func (b *Builder) RemoveNode(name string) {
	delete(b.nodes, name)
	delete(b.deps, name)
	for source, deps := range b.deps {
		b.deps[source] = slices.DeleteFunc(deps, func(dep Dependency) bool {
			return dep.Target == name
		})
	}
	for dep := range b.seen {
		if dep.Source == name || dep.Target == name {
			delete(b.seen, dep)
		}
	}
}

// AddDependency records an edge. It returns false when the edge was dropped:
// the source or target is not a known node, the edge is a self edge, or an
// edge with the same (source, target, type) already exists.
func (b *Builder) AddDependency(dep Dependency) bool {
	if dep.Source == dep.Target {
		return false
	}
	if _, ok := b.nodes[dep.Source]; !ok {
		return false
	}
	if _, ok := b.nodes[dep.Target]; !ok {
		return false
	}
	if _, dup := b.seen[dep]; dup {
		return false
	}

	b.seen[dep] = struct{}{}
	b.deps[dep.Source] = append(b.deps[dep.Source], dep)
	return true
}

// AddDependencies records every edge in order and returns how many were kept.
func (b *Builder) AddDependencies(deps []Dependency) int {
	added := 0
	for _, dep := range deps {
		if b.AddDependency(dep) {
			added++
		}
	}
	return added
}

// Build returns a deep copy of the accumulated graph. Every node has an entry
// in Dependencies, possibly empty.
func (b *Builder) Build() *ProjectGraph {
	g := &ProjectGraph{
		Nodes:        make(NodeRecords, len(b.nodes)),
		Dependencies: make(map[string][]Dependency, len(b.nodes)),
	}
	for name, node := range b.nodes {
		g.Nodes[name] = cloneNode(node)
		deps := b.deps[name]
		copied := make([]Dependency, len(deps))
		copy(copied, deps)
		g.Dependencies[name] = copied
	}
	return g
}

func cloneNode(node ProjectNode) ProjectNode {
	node.Tags = cloneStrings(node.Tags)
	node.ImplicitDependencies = slices.Clone(node.ImplicitDependencies)
	node.Targets = cloneTargets(node.Targets)
	if node.Files == nil {
		node.Files = []FileData{}
	} else {
		node.Files = slices.Clone(node.Files)
	}
	return node
}

// cloneTargets copies targets together with their option values.
func cloneTargets(targets map[string]Target) map[string]Target {
	if targets == nil {
		return nil
	}
	cloned := make(map[string]Target, len(targets))
	for name, target := range targets {
		if target.Options != nil {
			target.Options = cloneValue(target.Options).(map[string]any)
		}
		cloned[name] = target
	}
	return cloned
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		cloned := make(map[string]any, len(v))
		for k, item := range v {
			cloned[k] = cloneValue(item)
		}
		return cloned
	case []any:
		cloned := make([]any, len(v))
		for i, item := range v {
			cloned[i] = cloneValue(item)
		}
		return cloned
	default:
		return v
	}
}
