package locator

import (
	"sync"
	"testing"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNodes() projectgraph.NodeRecords {
	return projectgraph.NodeRecords{
		"app-a":     {Name: "app-a", Root: "apps/a"},
		"lib-b":     {Name: "lib-b", Root: "libs/b"},
		"shared":    {Name: "shared", Root: "libs/shared"},
		"shared-ui": {Name: "shared-ui", Root: "libs/shared/ui"},
		"util":      {Name: "util", Root: "libs/util", ImportPath: "@acme/utilities"},
		"tools":     {Name: "tools", Root: "tools"},
	}
}

func newTestLocator(paths map[string][]string) *Locator {
	return New(testNodes(), projectgraph.WorkspaceScope{NpmScope: "scope", Paths: paths})
}

func TestFind_Relative(t *testing.T) {
	l := newTestLocator(nil)

	tests := []struct {
		name     string
		expr     string
		file     string
		expected string
		ok       bool
	}{
		{"sibling", "./other", "libs/b/src/index.ts", "lib-b", true},
		{"into another project", "../../../libs/b/src/x", "apps/a/src/main.ts", "lib-b", true},
		{"parent directory", "..", "libs/shared/ui/index.ts", "shared", true},
		{"current directory", ".", "libs/shared/ui/index.ts", "shared-ui", true},
		{"escapes workspace", "../../../../x", "apps/a/src/main.ts", "", false},
		{"unowned directory", "../../../docs/readme", "apps/a/src/main.ts", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, ok := l.Find(tt.expr, tt.file)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, project)
		})
	}
}

func TestFind_RelativeIsResolvedPerDirectory(t *testing.T) {
	l := newTestLocator(nil)

	first, ok := l.Find("./index", "libs/b/src/main.ts")
	require.True(t, ok)
	second, ok := l.Find("./index", "apps/a/main.ts")
	require.True(t, ok)

	assert.Equal(t, "lib-b", first)
	assert.Equal(t, "app-a", second)
}

func TestFind_ScopePackages(t *testing.T) {
	l := newTestLocator(nil)

	tests := []struct {
		expr     string
		expected string
		ok       bool
	}{
		{"@scope/b", "lib-b", true},
		{"@scope/b/testing", "lib-b", true},
		{"@scope/shared", "shared", true},
		{"@scope/shared/ui", "shared-ui", true},
		{"@scope/shared/ui/button", "shared-ui", true},
		{"@scope/b#BModule", "lib-b", true},
		{"@scope/bb", "", false},
		{"@scope/tools", "tools", true},
		{"@acme/utilities", "util", true},
		{"@scope/util", "", false},
		{"@other/b", "", false},
		{"lodash", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			project, ok := l.Find(tt.expr, "apps/a/src/main.ts")

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, project)
		})
	}
}

func TestFind_PathAliases(t *testing.T) {
	l := newTestLocator(map[string][]string{
		"~shared":      {"libs/shared/src/index.ts"},
		"~shared/*":    {"libs/shared/*"},
		"~libs/*":      {"missing/*", "libs/*"},
		"legacy-*-api": {"libs/*/src/api.ts"},
	})

	tests := []struct {
		expr     string
		expected string
		ok       bool
	}{
		{"~shared", "shared", true},
		{"~shared/ui/button", "shared-ui", true},
		{"~libs/b/x", "lib-b", true},
		{"legacy-b-api", "lib-b", true},
		{"~unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			project, ok := l.Find(tt.expr, "apps/a/src/main.ts")

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, project)
		})
	}
}

func TestFind_ScopePackageTakesPrecedenceOverAlias(t *testing.T) {
	l := newTestLocator(map[string][]string{
		"@scope/b": {"libs/shared/src/index.ts"},
	})

	project, ok := l.Find("@scope/b", "apps/a/src/main.ts")

	require.True(t, ok)
	assert.Equal(t, "lib-b", project)
}

func TestFind_AliasUsedWhenNoPackageMatches(t *testing.T) {
	l := newTestLocator(map[string][]string{
		"@scope/legacy": {"libs/shared/src/index.ts"},
	})

	project, ok := l.Find("@scope/legacy", "apps/a/src/main.ts")

	require.True(t, ok)
	assert.Equal(t, "shared", project)
}

func TestFind_ConcurrentLookupsAreStable(t *testing.T) {
	l := newTestLocator(nil)

	var wg sync.WaitGroup
	results := make([]string, 64)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = l.Find("@scope/shared/ui", "apps/a/src/main.ts")
		}()
	}
	wg.Wait()

	for _, project := range results {
		assert.Equal(t, "shared-ui", project)
	}
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "@scope/shared/ui", PackageName(projectgraph.ProjectNode{Root: "libs/shared/ui"}, "scope"))
	assert.Equal(t, "@scope/tools", PackageName(projectgraph.ProjectNode{Root: "tools"}, "scope"))
	assert.Equal(t, "@scope/custom", PackageName(projectgraph.ProjectNode{Root: "libs/x", ImportPath: "custom"}, "scope"))
	assert.Equal(t, "@acme/x", PackageName(projectgraph.ProjectNode{Root: "libs/x", ImportPath: "@acme/x"}, "scope"))
	assert.Equal(t, "", PackageName(projectgraph.ProjectNode{Root: "libs/x"}, ""))
}

func TestPackageName_ApplicationsNeedExplicitImportPath(t *testing.T) {
	app := projectgraph.ProjectNode{Root: "apps/b", Type: projectgraph.ProjectTypeApplication}
	e2e := projectgraph.ProjectNode{Root: "apps/b-e2e", Type: projectgraph.ProjectTypeE2E}

	assert.Equal(t, "", PackageName(app, "scope"))
	assert.Equal(t, "", PackageName(e2e, "scope"))

	app.ImportPath = "b-shell"
	assert.Equal(t, "@scope/b-shell", PackageName(app, "scope"))
}

func TestFind_ApplicationDoesNotShadowLibraryWithSameLeaf(t *testing.T) {
	nodes := testNodes()
	nodes["app-b"] = projectgraph.ProjectNode{Name: "app-b", Root: "apps/b", Type: projectgraph.ProjectTypeApplication}
	l := New(nodes, projectgraph.WorkspaceScope{NpmScope: "scope"})

	project, ok := l.Find("@scope/b", "apps/a/src/main.ts")

	require.True(t, ok)
	assert.Equal(t, "lib-b", project)
	assert.Empty(t, l.Conflicts())
}

func TestFind_DuplicatePackageNameIsReportedAndUnresolved(t *testing.T) {
	nodes := testNodes()
	nodes["util-legacy"] = projectgraph.ProjectNode{Name: "util-legacy", Root: "libs/util-legacy", ImportPath: "@acme/utilities"}
	l := New(nodes, projectgraph.WorkspaceScope{NpmScope: "scope"})

	_, ok := l.Find("@acme/utilities", "apps/a/src/main.ts")
	assert.False(t, ok)

	project, ok := l.Find("@scope/b", "apps/a/src/main.ts")
	require.True(t, ok)
	assert.Equal(t, "lib-b", project)

	assert.Equal(t, []Conflict{{Name: "@acme/utilities", Projects: []string{"util", "util-legacy"}}}, l.Conflicts())
}
