package workspace

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/vcs/git"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

// SkippedDirs are never descended into when the workspace is not a git work tree.
var SkippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"tmp":          true,
	"coverage":     true,
	".angular":     true,
	".idea":        true,
	".vscode":      true,
}

// ListFiles returns the workspace-relative slash paths of every source file,
// sorted. Git work trees list tracked and untracked files honoring ignore
// rules; other directories are walked skipping SkippedDirs.
func ListFiles(ctx context.Context, root string) ([]string, error) {
	if git.IsWorkTree(ctx, root) {
		return git.ListWorkspaceFiles(ctx, root)
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && SkippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk workspace %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// HashFiles returns FileData for each path, hashing contents concurrently.
// The result keeps the order of paths.
func HashFiles(ctx context.Context, root string, paths []string) ([]projectgraph.FileData, error) {
	files := make([]projectgraph.FileData, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash, err := hashFile(filepath.Join(root, filepath.FromSlash(p)))
			if err != nil {
				return err
			}
			files[i] = projectgraph.FileData{File: p, Ext: path.Ext(p), Hash: hash}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func hashFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", file, err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", file, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
