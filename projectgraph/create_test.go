package projectgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/LegacyCodeHQ/workgraph/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() Input {
	return Input{
		Projects: map[string]ProjectConfiguration{
			"app-a": {Root: "apps/a", ProjectType: ProjectTypeApplication},
			"lib-b": {Root: "libs/b", ProjectType: ProjectTypeLibrary},
			"lib-c": {Root: "libs/c", ProjectType: ProjectTypeLibrary},
		},
		Workspace: WorkspaceScope{NpmScope: "scope"},
		Files: []FileData{
			file("apps/a/src/index.ts"),
			file("libs/b/src/index.ts"),
			file("libs/c/src/index.ts"),
		},
	}
}

type namedPlugin struct {
	name string
	PluginFunc
}

func (p namedPlugin) Name() string { return p.name }

func staticEdge(source, target string) Plugin {
	return PluginFunc(func(context.Context, *Context, NodeRecords, vcs.ContentReader) ([]Dependency, error) {
		return []Dependency{{Source: source, Target: target, Type: DependencyTypeStatic}}, nil
	})
}

func TestCreateProjectGraph_MergesPluginEdges(t *testing.T) {
	g, err := CreateProjectGraph(context.Background(), sampleInput(), vcs.MapContentReader(nil), []Plugin{
		staticEdge("app-a", "lib-b"),
		staticEdge("lib-b", "lib-c"),
		staticEdge("app-a", "lib-b"),
	})
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		{Source: "app-a", Target: "lib-b", Type: DependencyTypeStatic},
		{Source: "lib-b", Target: "lib-c", Type: DependencyTypeStatic},
	}, g.AllDependencies())
	assert.Equal(t, []string{"app-a", "lib-b", "lib-c"}, g.NodeNames())
}

func TestCreateProjectGraph_PluginSeesFileMapAndScope(t *testing.T) {
	var seen *Context
	plugin := PluginFunc(func(_ context.Context, pctx *Context, nodes NodeRecords, _ vcs.ContentReader) ([]Dependency, error) {
		seen = pctx
		assert.Len(t, nodes, 3)
		return nil, nil
	})

	_, err := CreateProjectGraph(context.Background(), sampleInput(), vcs.MapContentReader(nil), []Plugin{plugin})
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, "scope", seen.Workspace.NpmScope)
	assert.Equal(t, []FileData{file("libs/b/src/index.ts")}, seen.FileMap["lib-b"])
}

func TestCreateProjectGraph_PluginFailureAbortsBuild(t *testing.T) {
	boom := errors.New("boom")
	failing := namedPlugin{
		name: "failing",
		PluginFunc: func(context.Context, *Context, NodeRecords, vcs.ContentReader) ([]Dependency, error) {
			return nil, boom
		},
	}

	g, err := CreateProjectGraph(context.Background(), sampleInput(), vcs.MapContentReader(nil), []Plugin{
		staticEdge("app-a", "lib-b"),
		failing,
	})

	assert.Nil(t, g)
	assert.ErrorIs(t, err, boom)
	var pluginErr *PluginError
	require.True(t, errors.As(err, &pluginErr))
	assert.Equal(t, "failing", pluginErr.Plugin)
}

func TestCreateProjectGraph_NoPluginsYieldsNodesOnly(t *testing.T) {
	g, err := CreateProjectGraph(context.Background(), sampleInput(), vcs.MapContentReader(nil), nil)
	require.NoError(t, err)

	assert.Len(t, g.Nodes, 3)
	assert.Empty(t, g.AllDependencies())
}

func TestCreateProjectGraph_ImplicitDependencies(t *testing.T) {
	input := sampleInput()
	app := input.Projects["app-a"]
	app.ImplicitDependencies = []string{"*", "!lib-c", "missing"}
	input.Projects["app-a"] = app
	libC := input.Projects["lib-c"]
	libC.ImplicitDependencies = []string{"lib-b"}
	input.Projects["lib-c"] = libC

	g, err := CreateProjectGraph(context.Background(), input, vcs.MapContentReader(nil), nil)
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		{Source: "app-a", Target: "lib-b", Type: DependencyTypeImplicit},
		{Source: "lib-c", Target: "lib-b", Type: DependencyTypeImplicit},
	}, g.AllDependencies())
}

func TestScanFiles_PreservesProjectAndFileOrder(t *testing.T) {
	pctx := &Context{FileMap: map[string][]FileData{
		"b": {file("libs/b/1.ts"), file("libs/b/2.ts")},
		"a": {file("apps/a/1.ts")},
	}}

	deps, err := ScanFiles(context.Background(), pctx, func(_ context.Context, project string, f FileData) ([]Dependency, error) {
		return []Dependency{{Source: project, Target: f.File, Type: DependencyTypeStatic}}, nil
	})
	require.NoError(t, err)

	var targets []string
	for _, dep := range deps {
		targets = append(targets, dep.Target)
	}
	assert.Equal(t, []string{"apps/a/1.ts", "libs/b/1.ts", "libs/b/2.ts"}, targets)
}

func TestScanFiles_ReturnsFirstError(t *testing.T) {
	pctx := &Context{FileMap: map[string][]FileData{"a": {file("a/1.ts")}}}
	boom := errors.New("read failed")

	_, err := ScanFiles(context.Background(), pctx, func(context.Context, string, FileData) ([]Dependency, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}
