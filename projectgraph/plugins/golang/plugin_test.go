package golang

import (
	"context"
	"errors"
	"testing"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImports(t *testing.T) {
	source := `
package main

import "fmt"

import (
	"os"
	alias "example.com/ws/libs/util"
	_ "example.com/ws/libs/driver"
)
`
	imports, err := ParseImports([]byte(source))

	require.NoError(t, err)
	assert.Equal(t, []string{"fmt", "os", "example.com/ws/libs/util", "example.com/ws/libs/driver"}, imports)
}

func TestParseImports_NoImports(t *testing.T) {
	imports, err := ParseImports([]byte("package empty\n"))

	require.NoError(t, err)
	assert.Empty(t, imports)
}

func goInput(files map[string]string, projects map[string]string) projectgraph.Input {
	input := projectgraph.Input{Projects: make(map[string]projectgraph.ProjectConfiguration)}
	for name, root := range projects {
		input.Projects[name] = projectgraph.ProjectConfiguration{Root: root}
	}
	for p := range files {
		ext := ""
		if len(p) > 3 && p[len(p)-3:] == ".go" {
			ext = ".go"
		}
		input.Files = append(input.Files, projectgraph.FileData{File: p, Ext: ext})
	}
	return input
}

func TestPlugin_RootModuleSubdirectories(t *testing.T) {
	files := map[string]string{
		"go.mod":               "module example.com/ws\n\ngo 1.22\n",
		"cmd/api/main.go":      "package main\n\nimport (\n\t\"fmt\"\n\t\"example.com/ws/libs/store/sql\"\n)\n",
		"libs/store/sql/db.go": "package sql\n\nimport \"example.com/ws/libs/log\"\n",
		"libs/log/log.go":      "package log\n\nimport \"github.com/other/log\"\n",
		"libs/store/README.md": "docs",
	}
	input := goInput(files, map[string]string{
		"api":   "cmd/api",
		"store": "libs/store",
		"log":   "libs/log",
	})

	g, err := projectgraph.CreateProjectGraph(context.Background(), input, vcs.MapContentReader(files), []projectgraph.Plugin{New()})
	require.NoError(t, err)

	assert.Equal(t, []projectgraph.Dependency{
		{Source: "api", Target: "store", Type: projectgraph.DependencyTypeStatic},
		{Source: "store", Target: "log", Type: projectgraph.DependencyTypeStatic},
	}, g.AllDependencies())
}

func TestPlugin_NestedModules(t *testing.T) {
	files := map[string]string{
		"services/billing/go.mod":        "module example.com/billing\n",
		"services/billing/main.go":       "package main\n\nimport \"example.com/shared/money\"\n",
		"services/shared/go.mod":         "module example.com/shared\n",
		"services/shared/money/money.go": "package money\n",
	}
	input := goInput(files, map[string]string{
		"billing": "services/billing",
		"shared":  "services/shared",
	})

	g, err := projectgraph.CreateProjectGraph(context.Background(), input, vcs.MapContentReader(files), []projectgraph.Plugin{New()})
	require.NoError(t, err)

	assert.True(t, g.HasDependency("billing", "shared", projectgraph.DependencyTypeStatic))
	assert.Len(t, g.AllDependencies(), 1)
}

func TestPlugin_WithoutGoModContributesNothing(t *testing.T) {
	files := map[string]string{
		"libs/a/a.go": "package a\n\nimport \"example.com/ws/libs/b\"\n",
		"libs/b/b.go": "package b\n",
	}
	input := goInput(files, map[string]string{"a": "libs/a", "b": "libs/b"})

	g, err := projectgraph.CreateProjectGraph(context.Background(), input, vcs.MapContentReader(files), []projectgraph.Plugin{New()})
	require.NoError(t, err)

	assert.Empty(t, g.AllDependencies())
}

func TestPlugin_GoModReadErrorFailsTheBuild(t *testing.T) {
	boom := errors.New("permission denied")
	read := func(string) ([]byte, error) { return nil, boom }
	input := goInput(map[string]string{"libs/a/a.go": ""}, map[string]string{"a": "libs/a"})

	_, err := projectgraph.CreateProjectGraph(context.Background(), input, read, []projectgraph.Plugin{New()})

	assert.ErrorIs(t, err, boom)
}

func TestModuleFinder_ImportPathFor(t *testing.T) {
	files := map[string]string{
		"go.mod":         "module example.com/ws\n",
		"tools/x/go.mod": "module example.com/tools-x\n",
	}
	finder := moduleFinder{read: vcs.MapContentReader(files), paths: make(map[string]string)}

	tests := map[string]string{
		"":              "example.com/ws",
		"libs/a":        "example.com/ws/libs/a",
		"tools/x":       "example.com/tools-x",
		"tools/x/inner": "example.com/tools-x/inner",
	}
	for root, expected := range tests {
		importPath, err := finder.importPathFor(root)
		require.NoError(t, err)
		assert.Equal(t, expected, importPath, root)
	}
}
