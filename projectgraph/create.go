package projectgraph

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/LegacyCodeHQ/workgraph/internal/logging"
	"github.com/LegacyCodeHQ/workgraph/vcs"
	"golang.org/x/sync/errgroup"
)

const implicitAllProjects = "*"

type createOptions struct {
	logger *slog.Logger
}

// Option configures CreateProjectGraph.
type Option func(*createOptions)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *createOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// CreateProjectGraph builds a complete project graph: nodes from input.Projects,
// edges from every plugin plus configuration-declared implicit dependencies.
//
// Any plugin failure aborts the build and no graph is returned.
func CreateProjectGraph(ctx context.Context, input Input, read vcs.ContentReader, plugins []Plugin, opts ...Option) (*ProjectGraph, error) {
	options := createOptions{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&options)
	}

	nodes, err := BuildNodes(input.Projects, input.Files)
	if err != nil {
		return nil, err
	}

	pctx := &Context{
		Workspace: WorkspaceScope{
			NpmScope: input.Workspace.NpmScope,
			Paths:    maps.Clone(input.Workspace.Paths),
		},
		FileMap: FileMapFromNodes(nodes),
	}

	results := make([][]Dependency, len(plugins))
	g, gctx := errgroup.WithContext(ctx)
	for i, plugin := range plugins {
		g.Go(func() error {
			deps, err := plugin.BuildDependencies(gctx, pctx, maps.Clone(nodes), read)
			if err != nil {
				return &PluginError{Plugin: pluginName(i, plugin), Err: err}
			}
			results[i] = deps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := NewBuilder(nodes)
	for i, deps := range results {
		added := builder.AddDependencies(deps)
		options.logger.Debug("merged plugin dependencies",
			slog.String("plugin", pluginName(i, plugins[i])),
			slog.Int("contributed", len(deps)),
			slog.Int("added", added))
	}
	builder.AddDependencies(implicitDependencies(nodes, options.logger))

	graph := builder.Build()
	options.logger.Debug("project graph built",
		slog.Int("projects", len(graph.Nodes)),
		slog.Int("dependencies", len(graph.AllDependencies())))

	return graph, nil
}

func pluginName(i int, plugin Plugin) string {
	if named, ok := plugin.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("#%d", i)
}

// implicitDependencies expands every project's declared implicit dependencies.
// "*" means every other project and "!name" excludes a project.
func implicitDependencies(nodes NodeRecords, logger *slog.Logger) []Dependency {
	var deps []Dependency
	for _, source := range sortedKeys(nodes) {
		declared := nodes[source].ImplicitDependencies
		if len(declared) == 0 {
			continue
		}

		excluded := make(map[string]bool)
		includeAll := false
		var explicit []string
		for _, entry := range declared {
			switch {
			case entry == implicitAllProjects:
				includeAll = true
			case strings.HasPrefix(entry, "!"):
				excluded[strings.TrimPrefix(entry, "!")] = true
			default:
				explicit = append(explicit, entry)
			}
		}

		var targets []string
		if includeAll {
			targets = append(targets, sortedKeys(nodes)...)
		}
		for _, name := range explicit {
			if _, ok := nodes[name]; !ok {
				logger.Warn("dropping implicit dependency on unknown project",
					slog.String("project", source),
					slog.String("dependency", name))
				continue
			}
			if !slices.Contains(targets, name) {
				targets = append(targets, name)
			}
		}

		for _, target := range targets {
			if target == source || excluded[target] {
				continue
			}
			deps = append(deps, Dependency{Source: source, Target: target, Type: DependencyTypeImplicit})
		}
	}
	return deps
}
