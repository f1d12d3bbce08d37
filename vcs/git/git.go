package git

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"strings"
)

// IsWorkTree reports whether path is inside a git work tree.
func IsWorkTree(ctx context.Context, path string) bool {
	out, _, err := runGitCommand(ctx, path, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "true"
}

// GetRepositoryRoot returns the absolute path to the repository root
func GetRepositoryRoot(ctx context.Context, repoPath string) (string, error) {
	out, stderr, err := runGitCommand(ctx, repoPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", gitCommandError(err, stderr)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListWorkspaceFiles returns tracked and untracked-but-not-ignored files under
// dir as sorted slash paths relative to dir. Files deleted from the work tree
// but still in the index are omitted.
func ListWorkspaceFiles(ctx context.Context, dir string) ([]string, error) {
	out, stderr, err := runGitCommand(ctx, dir, "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, gitCommandError(err, stderr)
	}

	deleted, err := listDeletedFiles(ctx, dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	for _, entry := range bytes.Split(out, []byte{0}) {
		file := filepath.ToSlash(string(entry))
		if file == "" || seen[file] || deleted[file] {
			continue
		}
		seen[file] = true
		files = append(files, file)
	}
	sort.Strings(files)

	return files, nil
}

func listDeletedFiles(ctx context.Context, dir string) (map[string]bool, error) {
	out, stderr, err := runGitCommand(ctx, dir, "ls-files", "-z", "--deleted")
	if err != nil {
		return nil, gitCommandError(err, stderr)
	}

	deleted := make(map[string]bool)
	for _, entry := range bytes.Split(out, []byte{0}) {
		if len(entry) > 0 {
			deleted[filepath.ToSlash(string(entry))] = true
		}
	}
	return deleted, nil
}
