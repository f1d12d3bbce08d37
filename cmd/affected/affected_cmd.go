package affected

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/workgraph/cmd/cmdutil"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/spf13/cobra"
)

type affectedOptions struct {
	workspace string
	files     []string
	noDaemon  bool
}

// NewCommand returns a new affected command instance.
func NewCommand() *cobra.Command {
	opts := &affectedOptions{}

	cmd := &cobra.Command{
		Use:   "affected",
		Short: "List projects affected by changed files, in build order",
		Long: `List the projects owning the given files together with every project that
depends on them, dependencies first.

Examples:
  workgraph affected -i libs/ui/src/button.ts
  workgraph affected -w ../shop -i libs/cart/index.ts,apps/shop/main.ts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAffected(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.workspace, "workspace", "w", "", "Workspace root (default: current directory)")
	cmd.Flags().StringSliceVarP(&opts.files, "input", "i", nil, "Changed files (comma-separated)")
	cmd.Flags().BoolVar(&opts.noDaemon, "no-daemon", false, "Compute the graph in-process without asking the daemon")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runAffected(cmd *cobra.Command, opts *affectedOptions) error {
	env, err := cmdutil.Load(opts.workspace)
	if err != nil {
		return err
	}
	if opts.noDaemon {
		env.Config.UseDaemon = false
	}

	files := make([]string, 0, len(opts.files))
	for _, f := range opts.files {
		rel, err := workspaceRelative(env.Config.Workspace, f)
		if err != nil {
			return err
		}
		files = append(files, rel)
	}

	g, err := env.ProjectGraph(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build project graph: %w", err)
	}

	affected := projectgraph.Affected(g, files)
	selected := make(map[string]bool, len(affected))
	for _, name := range affected {
		selected[name] = true
	}
	subgraph := projectgraph.FilterNodes(g, func(node projectgraph.ProjectNode) bool {
		return selected[node.Name]
	})

	order, err := projectgraph.TopologicalOrder(subgraph)
	if errors.Is(err, projectgraph.ErrCyclicGraph) {
		env.Logger.Warn("affected projects form a cycle, printing them by name", slog.Any("error", err))
		order = affected
	} else if err != nil {
		return err
	}

	for _, name := range order {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return err
		}
	}
	return nil
}

// workspaceRelative turns a file argument into a workspace-relative path.
// Relative arguments are taken relative to the workspace root.
func workspaceRelative(root, file string) (string, error) {
	if !filepath.IsAbs(file) {
		return filepath.ToSlash(filepath.Clean(file)), nil
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the workspace %s", file, root)
	}
	return filepath.ToSlash(rel), nil
}
