package formatters

import (
	"cmp"
	"slices"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// RenderOptions contains optional parameters for rendering project graphs.
type RenderOptions struct {
	// Label is an optional title for the graph
	Label string
}

// Formatter is the interface that all graph formatters must implement.
type Formatter interface {
	// Format converts a project graph to a formatted string representation.
	Format(g *projectgraph.ProjectGraph, opts RenderOptions) (string, error)
	// GenerateURL returns a link that renders output online, if the format has one.
	GenerateURL(output string) (string, bool)
}

// Edge is a dependency annotated for rendering.
type Edge struct {
	projectgraph.Dependency
	InCycle bool
}

// SortedEdges returns every dependency of g ordered by source, target and
// type, each marked when it lies on a dependency cycle.
func SortedEdges(g *projectgraph.ProjectGraph) ([]Edge, error) {
	inCycle, err := projectgraph.InCycle(g)
	if err != nil {
		return nil, err
	}

	deps := g.AllDependencies()
	slices.SortFunc(deps, func(a, b projectgraph.Dependency) int {
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.Target, b.Target),
			cmp.Compare(typeRank(a.Type), typeRank(b.Type)),
		)
	})

	edges := make([]Edge, len(deps))
	for i, dep := range deps {
		edges[i] = Edge{Dependency: dep, InCycle: inCycle[dep]}
	}
	return edges, nil
}

func typeRank(t projectgraph.DependencyType) int {
	switch t {
	case projectgraph.DependencyTypeStatic:
		return 0
	case projectgraph.DependencyTypeDynamic:
		return 1
	default:
		return 2
	}
}
