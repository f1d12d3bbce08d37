package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func sampleWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "workgraph.yaml", `
npmScope: scope
projects:
  app-a: {root: apps/a, projectType: application}
  app-a-e2e: {root: apps/a-e2e, projectType: application, implicitDependencies: [app-a]}
  lib-b: {root: libs/b}
  svc: {root: services/svc}
  util: {root: services/util}
`)
	writeFile(t, root, "apps/a/src/main.ts", "import { b } from '@scope/b';\nimport * as _ from 'lodash';\n")
	writeFile(t, root, "apps/a/src/routes.ts", "export const routes = [{ loadChildren: () => import('@scope/b') }];\n")
	writeFile(t, root, "apps/a-e2e/src/app.cy.ts", "describe('app', () => {});\n")
	writeFile(t, root, "libs/b/src/index.ts", "export const b = 1;\n")
	writeFile(t, root, "go.mod", "module example.com/ws\n\ngo 1.22\n")
	writeFile(t, root, "services/svc/main.go", "package main\n\nimport _ \"example.com/ws/services/util\"\n")
	writeFile(t, root, "services/util/util.go", "package util\n")
	return root
}

func TestEngine_Compute(t *testing.T) {
	e, err := New(sampleWorkspace(t), nil)
	require.NoError(t, err)

	g, err := e.Compute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, projectgraph.ProjectTypeE2E, g.Nodes["app-a-e2e"].Type)
	assert.Equal(t, []projectgraph.Dependency{
		{Source: "app-a", Target: "lib-b", Type: projectgraph.DependencyTypeStatic},
		{Source: "app-a", Target: "lib-b", Type: projectgraph.DependencyTypeDynamic},
		{Source: "app-a-e2e", Target: "app-a", Type: projectgraph.DependencyTypeImplicit},
		{Source: "svc", Target: "util", Type: projectgraph.DependencyTypeStatic},
	}, g.AllDependencies())
}

func TestEngine_ComputeIsDeterministic(t *testing.T) {
	e, err := New(sampleWorkspace(t), nil)
	require.NoError(t, err)

	first, err := e.Compute(context.Background())
	require.NoError(t, err)
	second, err := e.Compute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_SelectedPlugins(t *testing.T) {
	e, err := New(sampleWorkspace(t), nil, "golang")
	require.NoError(t, err)

	g, err := e.Compute(context.Background())
	require.NoError(t, err)

	assert.False(t, g.HasDependency("app-a", "lib-b", projectgraph.DependencyTypeStatic))
	assert.True(t, g.HasDependency("svc", "util", projectgraph.DependencyTypeStatic))
}

func TestEngine_MissingConfiguration(t *testing.T) {
	e, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = e.Compute(context.Background())

	assert.ErrorIs(t, err, os.ErrNotExist)
}
