package formatters

import "github.com/LegacyCodeHQ/workgraph/projectgraph"

// ProjectTypeColor returns the fill color used for a project of type t.
func ProjectTypeColor(t projectgraph.ProjectType) string {
	switch t {
	case projectgraph.ProjectTypeApplication:
		return "#ADD8E6"
	case projectgraph.ProjectTypeE2E:
		return "#FFFACD"
	default:
		return "#FFFFFF"
	}
}

// CycleColor marks edges and projects on a dependency cycle.
const CycleColor = "#D62728"
