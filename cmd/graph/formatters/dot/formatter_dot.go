package dot

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/LegacyCodeHQ/workgraph/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// Formatter formats project graphs as Graphviz DOT.
type Formatter struct{}

// Format converts the project graph to Graphviz DOT format. Dynamic edges are
// dashed, implicit edges dotted and edges on a cycle red.
func (f *Formatter) Format(g *projectgraph.ProjectGraph, opts formatters.RenderOptions) (string, error) {
	edges, err := formatters.SortedEdges(g)
	if err != nil {
		return "", err
	}

	cycleNodes := make(map[string]bool)
	for _, edge := range edges {
		if edge.InCycle {
			cycleNodes[edge.Source] = true
			cycleNodes[edge.Target] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("digraph projects {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled];\n")

	if opts.Label != "" {
		sb.WriteString(fmt.Sprintf("  label=%q;\n", opts.Label))
		sb.WriteString("  labelloc=t;\n")
		sb.WriteString("  labeljust=l;\n")
		sb.WriteString("  fontsize=10;\n")
		sb.WriteString("  fontname=Courier;\n")
	}

	names := g.NodeNames()
	if len(names) > 0 {
		sb.WriteString("\n")
	}
	for _, name := range names {
		node := g.Nodes[name]
		attrs := []string{
			fmt.Sprintf("label=%q", name),
			fmt.Sprintf("fillcolor=%q", formatters.ProjectTypeColor(node.Type)),
		}
		if cycleNodes[name] {
			attrs = append(attrs, fmt.Sprintf("color=%q", formatters.CycleColor), "penwidth=2")
		}
		sb.WriteString(fmt.Sprintf("  %q [%s];\n", name, strings.Join(attrs, ", ")))
	}

	if len(edges) > 0 {
		sb.WriteString("\n")
	}
	for _, edge := range edges {
		var attrs []string
		switch edge.Type {
		case projectgraph.DependencyTypeDynamic:
			attrs = append(attrs, "style=dashed")
		case projectgraph.DependencyTypeImplicit:
			attrs = append(attrs, "style=dotted")
		}
		if edge.InCycle {
			attrs = append(attrs, fmt.Sprintf("color=%q", formatters.CycleColor), "penwidth=2")
		}

		if len(attrs) == 0 {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", edge.Source, edge.Target))
		} else {
			sb.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", edge.Source, edge.Target, strings.Join(attrs, ", ")))
		}
	}

	sb.WriteString("}")
	return sb.String(), nil
}

// GenerateURL creates a GraphvizOnline URL with the DOT graph embedded.
func (f *Formatter) GenerateURL(output string) (string, bool) {
	encoded := url.PathEscape(output)
	return fmt.Sprintf("https://dreampuf.github.io/GraphvizOnline/?engine=dot#%s", encoded), true
}
