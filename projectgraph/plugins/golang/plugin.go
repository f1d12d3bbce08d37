// Package golang contributes project dependencies found in Go sources.
//
// Each project is given a Go import path: the module path of its own go.mod,
// or the path of the nearest enclosing go.mod joined with the directory
// between that module and the project root. An import belongs to the project
// with the longest matching import path.
package golang

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/vcs"
	"golang.org/x/mod/modfile"
)

// Name identifies the plugin in registries and errors.
const Name = "golang"

// Plugin resolves Go imports to projects. The zero value is ready to use.
type Plugin struct{}

// New returns a Go plugin.
func New() *Plugin {
	return &Plugin{}
}

func (*Plugin) Name() string {
	return Name
}

// BuildDependencies implements projectgraph.Plugin. All Go edges are static.
func (*Plugin) BuildDependencies(ctx context.Context, pctx *projectgraph.Context, nodes projectgraph.NodeRecords, read vcs.ContentReader) ([]projectgraph.Dependency, error) {
	index, err := buildPackageIndex(nodes, read)
	if err != nil {
		return nil, err
	}
	if len(index) == 0 {
		return nil, nil
	}

	return projectgraph.ScanFiles(ctx, pctx, func(_ context.Context, project string, file projectgraph.FileData) ([]projectgraph.Dependency, error) {
		if file.Ext != ".go" {
			return nil, nil
		}

		content, err := read(file.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.File, err)
		}
		imports, err := ParseImports(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse imports in %s: %w", file.File, err)
		}

		var deps []projectgraph.Dependency
		for _, importPath := range imports {
			if target, ok := index.resolve(importPath); ok {
				deps = append(deps, projectgraph.Dependency{Source: project, Target: target, Type: projectgraph.DependencyTypeStatic})
			}
		}
		return deps, nil
	})
}

type goPackage struct {
	importPath string
	project    string
}

// packageIndex is ordered by import path length, longest first.
type packageIndex []goPackage

func (idx packageIndex) resolve(importPath string) (string, bool) {
	for _, pkg := range idx {
		if importPath == pkg.importPath || strings.HasPrefix(importPath, pkg.importPath+"/") {
			return pkg.project, true
		}
	}
	return "", false
}

func buildPackageIndex(nodes projectgraph.NodeRecords, read vcs.ContentReader) (packageIndex, error) {
	modules := moduleFinder{read: read, paths: make(map[string]string)}

	var idx packageIndex
	for name, node := range nodes {
		importPath, err := modules.importPathFor(node.Root)
		if err != nil {
			return nil, err
		}
		if importPath != "" {
			idx = append(idx, goPackage{importPath: importPath, project: name})
		}
	}

	sort.Slice(idx, func(i, j int) bool {
		if len(idx[i].importPath) != len(idx[j].importPath) {
			return len(idx[i].importPath) > len(idx[j].importPath)
		}
		return idx[i].project < idx[j].project
	})
	return idx, nil
}

// moduleFinder memoizes go.mod lookups by directory. A directory without a
// go.mod maps to "".
type moduleFinder struct {
	read  vcs.ContentReader
	paths map[string]string
}

// importPathFor returns the Go import path of a project root, or "" when no
// enclosing go.mod exists.
func (m *moduleFinder) importPathFor(root string) (string, error) {
	dir := root
	for {
		modulePath, err := m.modulePath(dir)
		if err != nil {
			return "", err
		}
		if modulePath != "" {
			if dir == root {
				return modulePath, nil
			}
			rel := strings.TrimPrefix(root, dir)
			return modulePath + "/" + strings.TrimPrefix(rel, "/"), nil
		}
		if dir == "" {
			return "", nil
		}
		dir = parentDir(dir)
	}
}

func (m *moduleFinder) modulePath(dir string) (string, error) {
	if modulePath, ok := m.paths[dir]; ok {
		return modulePath, nil
	}

	content, err := m.read(path.Join(dir, "go.mod"))
	if errors.Is(err, fs.ErrNotExist) {
		m.paths[dir] = ""
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path.Join(dir, "go.mod"), err)
	}

	modulePath := modfile.ModulePath(content)
	m.paths[dir] = modulePath
	return modulePath, nil
}

func parentDir(dir string) string {
	parent := path.Dir(dir)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}
