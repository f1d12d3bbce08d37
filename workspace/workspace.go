package workspace

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/vcs"
)

// Workspace is a loaded workspace snapshot ready for a graph build.
type Workspace struct {
	Root   string
	Config *Config
	Files  []projectgraph.FileData
}

// Load reads the configuration of the workspace at root and lists and hashes
// its files.
func Load(ctx context.Context, root string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	cfg, err := LoadConfig(absRoot)
	if err != nil {
		return nil, err
	}

	paths, err := ListFiles(ctx, absRoot)
	if err != nil {
		return nil, err
	}

	files, err := HashFiles(ctx, absRoot, paths)
	if err != nil {
		return nil, err
	}

	return &Workspace{Root: absRoot, Config: cfg, Files: files}, nil
}

// Input returns the builder input for this snapshot.
func (w *Workspace) Input() projectgraph.Input {
	return projectgraph.Input{
		Projects:  w.Config.ProjectConfigurations(),
		Workspace: w.Config.Scope(),
		Files:     w.Files,
	}
}

// ContentReader reads workspace-relative paths of this workspace.
func (w *Workspace) ContentReader() vcs.ContentReader {
	return vcs.WorkspaceContentReader(w.Root)
}
