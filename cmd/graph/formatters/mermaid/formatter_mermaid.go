package mermaid

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/LegacyCodeHQ/workgraph/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// Formatter formats project graphs as Mermaid.js flowcharts.
type Formatter struct{}

// Format converts the project graph to Mermaid.js flowchart format.
func (f *Formatter) Format(g *projectgraph.ProjectGraph, opts formatters.RenderOptions) (string, error) {
	edges, err := formatters.SortedEdges(g)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if opts.Label != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", opts.Label))
		sb.WriteString("---\n")
	}
	sb.WriteString("flowchart LR\n")

	// Mermaid node IDs can't contain dashes or slashes, so projects get
	// positional IDs.
	names := g.NodeNames()
	nodeIDs := make(map[string]string, len(names))
	for i, name := range names {
		nodeIDs[name] = fmt.Sprintf("n%d", i)
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", nodeIDs[name], name))
	}

	cycleNodes := make(map[string]bool)
	var cycleEdgeIndices []int
	if len(edges) > 0 {
		sb.WriteString("\n")
	}
	for i, edge := range edges {
		arrow := "-->"
		switch edge.Type {
		case projectgraph.DependencyTypeDynamic:
			arrow = "-.->"
		case projectgraph.DependencyTypeImplicit:
			arrow = "-. implicit .->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", nodeIDs[edge.Source], arrow, nodeIDs[edge.Target]))
		if edge.InCycle {
			cycleEdgeIndices = append(cycleEdgeIndices, i)
			cycleNodes[edge.Source] = true
			cycleNodes[edge.Target] = true
		}
	}

	byType := make(map[projectgraph.ProjectType][]string)
	for _, name := range names {
		t := g.Nodes[name].Type
		byType[t] = append(byType[t], nodeIDs[name])
	}

	var styles []string
	for _, t := range []projectgraph.ProjectType{projectgraph.ProjectTypeApplication, projectgraph.ProjectTypeLibrary, projectgraph.ProjectTypeE2E} {
		ids := byType[t]
		if len(ids) == 0 {
			continue
		}
		styles = append(styles,
			fmt.Sprintf("classDef %s fill:%s,stroke:#999999,color:#000000", t, formatters.ProjectTypeColor(t)),
			fmt.Sprintf("class %s %s", strings.Join(ids, ","), t))
	}
	for _, name := range names {
		if cycleNodes[name] {
			styles = append(styles, fmt.Sprintf("style %s stroke:%s,stroke-width:3px", nodeIDs[name], formatters.CycleColor))
		}
	}
	for _, idx := range cycleEdgeIndices {
		styles = append(styles, fmt.Sprintf("linkStyle %d stroke:%s,stroke-width:3px", idx, formatters.CycleColor))
	}

	if len(styles) > 0 {
		sb.WriteString("\n")
		for _, style := range styles {
			sb.WriteString("    " + style + "\n")
		}
	}

	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// GenerateURL creates a mermaid.live URL with the diagram embedded.
func (f *Formatter) GenerateURL(output string) (string, bool) {
	payload := map[string]any{
		"code": output,
		"mermaid": map[string]any{
			"theme": "default",
		},
		"autoSync":      true,
		"updateDiagram": true,
	}

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("https://mermaid.live/edit#%s", url.PathEscape(output)), true
	}

	encoded := base64.URLEncoding.EncodeToString(jsonBytes)
	return fmt.Sprintf("https://mermaid.live/edit#base64:%s", encoded), true
}
