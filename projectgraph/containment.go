package projectgraph

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// RootIndex attributes workspace-relative paths to projects using
// longest-root-prefix matching on path segment boundaries.
type RootIndex struct {
	entries []rootEntry
}

type rootEntry struct {
	name string
	root string
}

// NewRootIndex builds an index from project name to root. Roots must already be
// normalized with NormalizeRoot.
func NewRootIndex(roots map[string]string) *RootIndex {
	entries := make([]rootEntry, 0, len(roots))
	for name, root := range roots {
		entries = append(entries, rootEntry{name: name, root: root})
	}

	// Longest root first so the first hit is the longest prefix.
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].root) != len(entries[j].root) {
			return len(entries[i].root) > len(entries[j].root)
		}
		return entries[i].name < entries[j].name
	})

	return &RootIndex{entries: entries}
}

// NewRootIndexFromNodes builds an index over the roots of nodes.
func NewRootIndexFromNodes(nodes NodeRecords) *RootIndex {
	roots := make(map[string]string, len(nodes))
	for name, node := range nodes {
		roots[name] = node.Root
	}
	return NewRootIndex(roots)
}

// ProjectForPath returns the project whose root is the longest prefix of p.
func (i *RootIndex) ProjectForPath(p string) (string, bool) {
	p = NormalizePath(p)
	for _, entry := range i.entries {
		if containsPath(entry.root, p) {
			return entry.name, true
		}
	}
	return "", false
}

func containsPath(root, p string) bool {
	if root == "" {
		return true
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

// NormalizePath converts p to a cleaned slash path without a leading "./".
// The workspace root itself normalizes to the empty string.
func NormalizePath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "./")
}

// NormalizeRoot validates and normalizes a project root. Roots must be
// workspace-relative and must not escape the workspace.
func NormalizeRoot(root string) (string, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return "", fmt.Errorf("root is empty")
	}
	slashed := filepath.ToSlash(trimmed)
	if path.IsAbs(slashed) || filepath.IsAbs(trimmed) {
		return "", fmt.Errorf("root %q must be relative to the workspace", root)
	}

	normalized := NormalizePath(slashed)
	if normalized == ".." || strings.HasPrefix(normalized, "../") {
		return "", fmt.Errorf("root %q escapes the workspace", root)
	}
	return normalized, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
