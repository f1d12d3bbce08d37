package projectgraph

import (
	"context"
	"runtime"

	"github.com/LegacyCodeHQ/workgraph/vcs"
	"golang.org/x/sync/errgroup"
)

// Plugin contributes dependency edges for one source dialect.
//
// Implementations return an owned slice of edges and must not modify nodes.
// Plugins run concurrently with each other; the builder merges their output.
type Plugin interface {
	BuildDependencies(ctx context.Context, pctx *Context, nodes NodeRecords, read vcs.ContentReader) ([]Dependency, error)
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(ctx context.Context, pctx *Context, nodes NodeRecords, read vcs.ContentReader) ([]Dependency, error)

// BuildDependencies calls f.
func (f PluginFunc) BuildDependencies(ctx context.Context, pctx *Context, nodes NodeRecords, read vcs.ContentReader) ([]Dependency, error) {
	return f(ctx, pctx, nodes, read)
}

// Named is implemented by plugins that want their name in error messages.
type Named interface {
	Name() string
}

// FileScanFunc returns the edges contributed by one file of one project.
type FileScanFunc func(ctx context.Context, project string, file FileData) ([]Dependency, error)

// ScanFiles runs scan for every file of every project in pctx.FileMap on a
// bounded worker group. Results are concatenated in project-name then file
// order regardless of completion order. The first error cancels the scan.
func ScanFiles(ctx context.Context, pctx *Context, scan FileScanFunc) ([]Dependency, error) {
	type job struct {
		project string
		file    FileData
	}

	var jobs []job
	for _, project := range sortedKeys(pctx.FileMap) {
		for _, file := range pctx.FileMap[project] {
			jobs = append(jobs, job{project: project, file: file})
		}
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	results := make([][]Dependency, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			deps, err := scan(gctx, j.project, j.file)
			if err != nil {
				return err
			}
			results[i] = deps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var deps []Dependency
	for _, r := range results {
		deps = append(deps, r...)
	}
	return deps, nil
}
