// Package engine computes the project graph of a workspace directory.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/LegacyCodeHQ/workgraph/internal/logging"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/projectgraph/registry"
	"github.com/LegacyCodeHQ/workgraph/workspace"
)

// Engine builds graphs for one workspace. Its plugins are created once and
// reused, so caches they hold carry over between builds. An Engine is safe
// for concurrent use.
type Engine struct {
	root    string
	logger  *slog.Logger
	plugins []projectgraph.Plugin
}

// New returns an engine for the workspace at root running the named plugins,
// or every registered plugin when none is named.
func New(root string, logger *slog.Logger, pluginNames ...string) (*Engine, error) {
	logger = logging.OrDiscard(logger)
	plugins, err := registry.NewPlugins(logger, pluginNames...)
	if err != nil {
		return nil, err
	}
	return &Engine{root: root, logger: logger, plugins: plugins}, nil
}

// Root returns the workspace root the engine was created for.
func (e *Engine) Root() string {
	return e.root
}

// Compute loads the current workspace snapshot and builds its graph.
func (e *Engine) Compute(ctx context.Context) (*projectgraph.ProjectGraph, error) {
	start := time.Now()

	ws, err := workspace.Load(ctx, e.root)
	if err != nil {
		return nil, err
	}

	g, err := projectgraph.CreateProjectGraph(ctx, ws.Input(), ws.ContentReader(), e.plugins, projectgraph.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}

	e.logger.Info("computed project graph",
		slog.String("workspace", ws.Root),
		slog.Int("files", len(ws.Files)),
		slog.Int("projects", len(g.Nodes)),
		slog.Duration("elapsed", time.Since(start)))
	return g, nil
}
