package graph

import (
	"fmt"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// Focus returns the subgraph of the named projects, everything they depend on
// and everything that depends on them.
func Focus(g *projectgraph.ProjectGraph, names []string) (*projectgraph.ProjectGraph, error) {
	for _, name := range names {
		if _, ok := g.Nodes[name]; !ok {
			return nil, fmt.Errorf("project %q not found in graph", name)
		}
	}

	dependencies := projectgraph.WithDeps(g, names)
	dependents := projectgraph.WithDeps(projectgraph.Reverse(g), names)

	return projectgraph.FilterNodes(g, func(node projectgraph.ProjectNode) bool {
		_, isDependency := dependencies.Nodes[node.Name]
		_, isDependent := dependents.Nodes[node.Name]
		return isDependency || isDependent
	}), nil
}
