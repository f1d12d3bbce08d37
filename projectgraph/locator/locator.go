// Package locator resolves raw import expressions to the project that owns the
// imported code.
package locator

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// Locator maps import expressions to project names for one graph build.
//
// Resolution order, first match wins:
//  1. relative expressions ("./x", "../x", ".", "..") by containment of the
//     path joined onto the importing file's directory
//  2. workspace package names ("@scope/name" and deep imports below it)
//  3. configured path aliases, exact keys before "*" patterns
//
// Anything else is treated as an external package and left unresolved.
// A Locator is safe for concurrent use.
type Locator struct {
	index     *projectgraph.RootIndex
	packages  []packageName
	conflicts []Conflict
	exact     map[string][]string
	wildcards []wildcardAlias

	mu    sync.Mutex
	cache map[cacheKey]resolution
}

type packageName struct {
	name    string
	project string
	// ambiguous names are claimed by more than one project and never resolve.
	ambiguous bool
}

// Conflict is a package name claimed by several projects.
type Conflict struct {
	Name     string
	Projects []string
}

type wildcardAlias struct {
	prefix  string
	suffix  string
	targets []string
}

type cacheKey struct {
	dir  string
	expr string
}

type resolution struct {
	project string
	ok      bool
}

// New builds a locator over nodes and the workspace import metadata.
func New(nodes projectgraph.NodeRecords, scope projectgraph.WorkspaceScope) *Locator {
	l := &Locator{
		index: projectgraph.NewRootIndexFromNodes(nodes),
		exact: make(map[string][]string),
		cache: make(map[cacheKey]resolution),
	}

	claims := make(map[string][]string)
	for name, node := range nodes {
		if pkg := PackageName(node, scope.NpmScope); pkg != "" {
			claims[pkg] = append(claims[pkg], name)
		}
	}
	for pkg, projects := range claims {
		entry := packageName{name: pkg, project: projects[0]}
		if len(projects) > 1 {
			sort.Strings(projects)
			entry = packageName{name: pkg, ambiguous: true}
			l.conflicts = append(l.conflicts, Conflict{Name: pkg, Projects: projects})
		}
		l.packages = append(l.packages, entry)
	}
	// Longest package name first so deep names beat their parents.
	sort.Slice(l.packages, func(i, j int) bool {
		if len(l.packages[i].name) != len(l.packages[j].name) {
			return len(l.packages[i].name) > len(l.packages[j].name)
		}
		return l.packages[i].name < l.packages[j].name
	})
	sort.Slice(l.conflicts, func(i, j int) bool {
		return l.conflicts[i].Name < l.conflicts[j].Name
	})

	for alias, targets := range scope.Paths {
		prefix, suffix, isPattern := strings.Cut(alias, "*")
		if !isPattern {
			l.exact[alias] = targets
			continue
		}
		l.wildcards = append(l.wildcards, wildcardAlias{prefix: prefix, suffix: suffix, targets: targets})
	}
	sort.Slice(l.wildcards, func(i, j int) bool {
		if len(l.wildcards[i].prefix) != len(l.wildcards[j].prefix) {
			return len(l.wildcards[i].prefix) > len(l.wildcards[j].prefix)
		}
		return l.wildcards[i].suffix < l.wildcards[j].suffix
	})

	return l
}

// Conflicts returns the package names more than one project claims, sorted
// by name. Imports of those names are left unresolved.
func (l *Locator) Conflicts() []Conflict {
	return l.conflicts
}

// PackageName returns the workspace package name a project is imported by,
// or "" when the project has none.
//
// A configured import path is used as is when it is scoped and is placed under
// npmScope otherwise. Without one, libraries derive the name from the root with
// its first segment dropped: "libs/shared/ui" becomes "@scope/shared/ui".
// Applications and e2e projects are not importable unless configured.
func PackageName(node projectgraph.ProjectNode, npmScope string) string {
	if node.ImportPath != "" {
		if strings.HasPrefix(node.ImportPath, "@") || npmScope == "" {
			return node.ImportPath
		}
		return "@" + npmScope + "/" + node.ImportPath
	}
	if npmScope == "" || node.Root == "" {
		return ""
	}
	if node.Type == projectgraph.ProjectTypeApplication || node.Type == projectgraph.ProjectTypeE2E {
		return ""
	}

	name := node.Root
	if _, rest, found := strings.Cut(node.Root, "/"); found {
		name = rest
	}
	return "@" + npmScope + "/" + name
}

// Find returns the project that expr, imported from importingFile, refers to.
// importingFile is a workspace-relative path. A "#Symbol" suffix, as used by
// string route configs, is ignored.
func (l *Locator) Find(expr, importingFile string) (string, bool) {
	expr, _, _ = strings.Cut(expr, "#")
	if expr == "" {
		return "", false
	}

	key := cacheKey{expr: expr}
	relative := isRelative(expr)
	if relative {
		key.dir = path.Dir(projectgraph.NormalizePath(importingFile))
	}

	l.mu.Lock()
	cached, hit := l.cache[key]
	l.mu.Unlock()
	if hit {
		return cached.project, cached.ok
	}

	var res resolution
	if relative {
		res.project, res.ok = l.contains(path.Join(key.dir, expr))
	} else {
		res.project, res.ok = l.resolvePackage(expr)
		if !res.ok {
			res.project, res.ok = l.resolveAlias(expr)
		}
	}

	l.mu.Lock()
	l.cache[key] = res
	l.mu.Unlock()
	return res.project, res.ok
}

func isRelative(expr string) bool {
	return expr == "." || expr == ".." ||
		strings.HasPrefix(expr, "./") || strings.HasPrefix(expr, "../")
}

// contains resolves a workspace-relative path by longest-root-prefix.
func (l *Locator) contains(p string) (string, bool) {
	p = projectgraph.NormalizePath(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return l.index.ProjectForPath(p)
}

func (l *Locator) resolvePackage(expr string) (string, bool) {
	if !strings.HasPrefix(expr, "@") {
		return "", false
	}
	for _, pkg := range l.packages {
		if expr == pkg.name || strings.HasPrefix(expr, pkg.name+"/") {
			return pkg.project, !pkg.ambiguous
		}
	}
	return "", false
}

func (l *Locator) resolveAlias(expr string) (string, bool) {
	if targets, ok := l.exact[expr]; ok {
		return l.firstContaining(targets, "")
	}

	for _, alias := range l.wildcards {
		if len(expr) < len(alias.prefix)+len(alias.suffix) {
			continue
		}
		if !strings.HasPrefix(expr, alias.prefix) || !strings.HasSuffix(expr, alias.suffix) {
			continue
		}
		match := expr[len(alias.prefix) : len(expr)-len(alias.suffix)]
		return l.firstContaining(alias.targets, match)
	}
	return "", false
}

func (l *Locator) firstContaining(targets []string, match string) (string, bool) {
	for _, target := range targets {
		if project, ok := l.contains(strings.Replace(target, "*", match, 1)); ok {
			return project, true
		}
	}
	return "", false
}
