package projectgraph

import (
	"errors"
	"fmt"
)

// ErrNoProjects is returned when a workspace declares no projects.
var ErrNoProjects = errors.New("no projects found in workspace configuration")

// ConfigError reports an invalid project configuration entry.
type ConfigError struct {
	Project string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Project == "" {
		return fmt.Sprintf("invalid workspace configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration for project %q: %s", e.Project, e.Reason)
}

// PluginError wraps a failure raised by a graph plugin. A build that hits a
// PluginError returns no graph.
type PluginError struct {
	Plugin string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s failed: %v", e.Plugin, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}
