package formatters_test

import (
	"encoding/json"
	"testing"

	"github.com/LegacyCodeHQ/workgraph/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/workgraph/internal/testhelpers"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *projectgraph.ProjectGraph {
	b := projectgraph.NewBuilder(projectgraph.NodeRecords{
		"app": {
			Name:  "app",
			Type:  projectgraph.ProjectTypeApplication,
			Root:  "apps/app",
			Files: []projectgraph.FileData{{File: "apps/app/main.ts", Ext: ".ts", Hash: "h1"}},
		},
		"lib": {Name: "lib", Type: projectgraph.ProjectTypeLibrary, Root: "libs/lib", Tags: []string{"shared"}},
	})
	b.AddDependency(projectgraph.Dependency{Source: "app", Target: "lib", Type: projectgraph.DependencyTypeStatic})
	return b.Build()
}

func TestJSONFormatter(t *testing.T) {
	output, err := (&formatters.JSONFormatter{}).Format(sampleGraph(), formatters.RenderOptions{})
	require.NoError(t, err)

	g := testhelpers.JSONGoldie(t)
	g.Assert(t, t.Name(), []byte(output))
}

func TestJSONFormatter_RoundTrips(t *testing.T) {
	output, err := (&formatters.JSONFormatter{}).Format(sampleGraph(), formatters.RenderOptions{})
	require.NoError(t, err)

	var decoded projectgraph.ProjectGraph
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))
	assert.Equal(t, sampleGraph(), &decoded)

	_, ok := (&formatters.JSONFormatter{}).GenerateURL(output)
	assert.False(t, ok)
}

func TestSortedEdges(t *testing.T) {
	b := projectgraph.NewBuilder(projectgraph.NodeRecords{
		"a": {Name: "a"}, "b": {Name: "b"}, "c": {Name: "c"},
	})
	b.AddDependencies([]projectgraph.Dependency{
		{Source: "b", Target: "a", Type: projectgraph.DependencyTypeStatic},
		{Source: "a", Target: "c", Type: projectgraph.DependencyTypeImplicit},
		{Source: "a", Target: "c", Type: projectgraph.DependencyTypeStatic},
		{Source: "a", Target: "b", Type: projectgraph.DependencyTypeDynamic},
	})

	edges, err := formatters.SortedEdges(b.Build())
	require.NoError(t, err)

	var got []string
	for _, e := range edges {
		got = append(got, e.Source+">"+e.Target+":"+string(e.Type))
	}
	assert.Equal(t, []string{"a>b:dynamic", "a>c:static", "a>c:implicit", "b>a:static"}, got)
	assert.True(t, edges[0].InCycle)
	assert.False(t, edges[1].InCycle)
	assert.True(t, edges[3].InCycle)
}

func TestParseOutputFormat(t *testing.T) {
	f, ok := formatters.ParseOutputFormat("DOT")
	assert.True(t, ok)
	assert.Equal(t, formatters.OutputFormatDOT, f)

	_, ok = formatters.ParseOutputFormat("svg")
	assert.False(t, ok)
	assert.Equal(t, "json, dot, mermaid", formatters.SupportedFormats())
}
