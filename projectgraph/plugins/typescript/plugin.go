// Package typescript contributes project dependencies found in TypeScript and
// JavaScript sources.
package typescript

import (
	"context"
	"log/slog"

	"github.com/LegacyCodeHQ/workgraph/internal/logging"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/projectgraph/locator"
	"github.com/LegacyCodeHQ/workgraph/vcs"
)

// Name identifies the plugin in registries and errors.
const Name = "typescript"

// Plugin resolves every import of every TS/JS file to the project it targets.
type Plugin struct {
	cache  *ImportCache
	logger *slog.Logger
}

// New returns a plugin with its own parsed-import cache. The plugin is meant
// to be reused across builds so unchanged files are parsed once.
func New(logger *slog.Logger) (*Plugin, error) {
	cache, err := NewImportCache(DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Plugin{cache: cache, logger: logging.OrDiscard(logger)}, nil
}

func (p *Plugin) Name() string {
	return Name
}

// BuildDependencies implements projectgraph.Plugin.
func (p *Plugin) BuildDependencies(ctx context.Context, pctx *projectgraph.Context, nodes projectgraph.NodeRecords, read vcs.ContentReader) ([]projectgraph.Dependency, error) {
	imports := NewImportLocator(read, p.cache)
	targets := locator.New(nodes, pctx.Workspace)
	for _, conflict := range targets.Conflicts() {
		p.logger.Warn("package name claimed by several projects, imports of it are left unresolved",
			slog.String("package", conflict.Name),
			slog.Any("projects", conflict.Projects))
	}

	deps, err := projectgraph.ScanFiles(ctx, pctx, func(_ context.Context, project string, file projectgraph.FileData) ([]projectgraph.Dependency, error) {
		if !Supports(file.Ext) {
			return nil, nil
		}

		found, err := imports.FromFile(file)
		if err != nil {
			return nil, err
		}

		var deps []projectgraph.Dependency
		for imp := range found {
			target, ok := targets.Find(imp.Expr, imp.File)
			if !ok {
				continue
			}
			deps = append(deps, projectgraph.Dependency{Source: project, Target: target, Type: imp.Kind})
		}
		return deps, nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("typescript dependencies resolved",
		slog.Int("edges", len(deps)),
		slog.Int("cachedFiles", p.cache.Len()))
	return deps, nil
}
