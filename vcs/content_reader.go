package vcs

import (
	"fmt"
	"os"
	"path/filepath"
)

// ContentReader is a function that reads file content given a file path.
// This allows the caller to control how files are read (filesystem, git, in-memory, etc.)
type ContentReader func(filePath string) ([]byte, error)

// WorkspaceContentReader returns a ContentReader that resolves workspace-relative
// slash paths against root and reads them from the filesystem.
func WorkspaceContentReader(root string) ContentReader {
	return func(filePath string) ([]byte, error) {
		fullPath := filePath
		if !filepath.IsAbs(fullPath) {
			fullPath = filepath.Join(root, filepath.FromSlash(filePath))
		}
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
		}
		return content, nil
	}
}

// MapContentReader returns a ContentReader backed by an in-memory map of
// path to content. Missing paths report os.ErrNotExist.
func MapContentReader(contents map[string]string) ContentReader {
	return func(filePath string) ([]byte, error) {
		content, ok := contents[filePath]
		if !ok {
			return nil, fmt.Errorf("failed to read %s: %w", filePath, os.ErrNotExist)
		}
		return []byte(content), nil
	}
}
