// Package registry lists the graph plugins a build runs.
package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/LegacyCodeHQ/workgraph/internal/logging"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/projectgraph/plugins/golang"
	"github.com/LegacyCodeHQ/workgraph/projectgraph/plugins/typescript"
)

// Entry describes one registered plugin.
type Entry struct {
	Name        string
	DisplayName string
	Extensions  []string
	Maturity    MaturityLevel
	New         func(logger *slog.Logger) (projectgraph.Plugin, error)
}

var entries = []Entry{
	{
		Name:        golang.Name,
		DisplayName: "Go",
		Extensions:  []string{".go"},
		Maturity:    MaturityBasicTests,
		New: func(*slog.Logger) (projectgraph.Plugin, error) {
			return golang.New(), nil
		},
	},
	{
		Name:        typescript.Name,
		DisplayName: "TypeScript / JavaScript",
		Extensions:  []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"},
		Maturity:    MaturityActivelyTested,
		New: func(logger *slog.Logger) (projectgraph.Plugin, error) {
			return typescript.New(logger)
		},
	},
}

// Entries returns the registered plugins in deterministic order.
func Entries() []Entry {
	return slices.Clone(entries)
}

// Lookup returns the entry registered under name.
func Lookup(name string) (Entry, bool) {
	for _, entry := range entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

// NewPlugins instantiates the named plugins, or every registered plugin when
// no name is given.
func NewPlugins(logger *slog.Logger, names ...string) ([]projectgraph.Plugin, error) {
	selected := entries
	if len(names) > 0 {
		selected = nil
		for _, name := range names {
			entry, ok := Lookup(name)
			if !ok {
				return nil, fmt.Errorf("unknown plugin %q", name)
			}
			selected = append(selected, entry)
		}
	}

	logger = logging.OrDiscard(logger)

	plugins := make([]projectgraph.Plugin, 0, len(selected))
	for _, entry := range selected {
		plugin, err := entry.New(logger.With(slog.String("plugin", entry.Name)))
		if err != nil {
			return nil, fmt.Errorf("failed to create plugin %s: %w", entry.Name, err)
		}
		plugins = append(plugins, plugin)
	}
	return plugins, nil
}
