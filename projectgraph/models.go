package projectgraph

// ProjectType classifies a project node.
type ProjectType string

const (
	ProjectTypeApplication ProjectType = "application"
	ProjectTypeLibrary     ProjectType = "library"
	ProjectTypeE2E         ProjectType = "e2e"
)

// DependencyType classifies a dependency edge.
type DependencyType string

const (
	// DependencyTypeStatic is a compile-time import.
	DependencyTypeStatic DependencyType = "static"
	// DependencyTypeDynamic is a lazily loaded import.
	DependencyTypeDynamic DependencyType = "dynamic"
	// DependencyTypeImplicit is declared in configuration without a source import.
	DependencyTypeImplicit DependencyType = "implicit"
)

// FileData describes one workspace file.
type FileData struct {
	File string `json:"file"`
	Ext  string `json:"ext"`
	Hash string `json:"hash"`
}

// Target is a declared task definition of a project.
type Target struct {
	Executor string         `json:"executor,omitempty" yaml:"executor"`
	Options  map[string]any `json:"options,omitempty" yaml:"options"`
}

// ProjectNode is a named, directory-rooted unit of source code.
type ProjectNode struct {
	Name                 string            `json:"name"`
	Type                 ProjectType       `json:"type"`
	Root                 string            `json:"root"`
	Tags                 []string          `json:"tags"`
	ImportPath           string            `json:"importPath,omitempty"`
	ImplicitDependencies []string          `json:"implicitDependencies,omitempty"`
	Targets              map[string]Target `json:"targets,omitempty"`
	Files                []FileData        `json:"files"`
}

// Dependency is a directed edge: Source depends on Target.
type Dependency struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   DependencyType `json:"type"`
}

// NodeRecords is the node registry keyed by project name.
type NodeRecords map[string]ProjectNode

// ProjectGraph is the built project dependency graph.
//
// A graph returned by Builder.Build or by any operator in this package is
// never mutated afterwards; changes produce a new graph.
type ProjectGraph struct {
	Nodes        NodeRecords             `json:"nodes"`
	Dependencies map[string][]Dependency `json:"dependencies"`
}

// WorkspaceScope carries workspace-wide import metadata.
type WorkspaceScope struct {
	// NpmScope is the package scope without the leading '@'.
	NpmScope string
	// Paths maps an import alias (optionally ending in '*') to target paths.
	Paths map[string][]string
}

// Context is the read-only input handed to every plugin.
type Context struct {
	Workspace WorkspaceScope
	// FileMap maps project name to the files attributed to it.
	FileMap map[string][]FileData
}

// ProjectConfiguration is one declared project as supplied by workspace loading.
type ProjectConfiguration struct {
	Root                 string
	ProjectType          ProjectType
	Tags                 []string
	ImportPath           string
	ImplicitDependencies []string
	Targets              map[string]Target
}

// Input bundles everything CreateProjectGraph consumes.
type Input struct {
	Projects  map[string]ProjectConfiguration
	Workspace WorkspaceScope
	Files     []FileData
}

// NodeNames returns the project names of the graph in sorted order.
func (g *ProjectGraph) NodeNames() []string {
	return sortedKeys(g.Nodes)
}

// HasDependency reports whether the graph contains the given edge.
func (g *ProjectGraph) HasDependency(source, target string, depType DependencyType) bool {
	for _, dep := range g.Dependencies[source] {
		if dep.Target == target && dep.Type == depType {
			return true
		}
	}
	return false
}

// AllDependencies returns every edge of the graph, grouped by source in sorted
// source order and in insertion order within each source.
func (g *ProjectGraph) AllDependencies() []Dependency {
	var deps []Dependency
	for _, source := range sortedKeys(g.Dependencies) {
		deps = append(deps, g.Dependencies[source]...)
	}
	return deps
}
