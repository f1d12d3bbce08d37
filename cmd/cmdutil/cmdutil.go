// Package cmdutil holds the setup shared by workgraph subcommands.
package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/LegacyCodeHQ/workgraph/daemon"
	"github.com/LegacyCodeHQ/workgraph/engine"
	"github.com/LegacyCodeHQ/workgraph/internal/config"
	"github.com/LegacyCodeHQ/workgraph/internal/logging"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// Env is the resolved configuration and logger of one command invocation.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
}

// Load resolves configuration from .env and the environment, applies a
// non-empty workspace flag and makes the workspace root absolute.
func Load(workspaceFlag string) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if workspaceFlag != "" {
		cfg.Workspace = workspaceFlag
	}

	root, err := filepath.Abs(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path: %w", err)
	}
	cfg.Workspace = root

	return &Env{
		Config: cfg,
		Logger: logging.New(os.Stderr, cfg.LogLevel),
	}, nil
}

// SocketPath returns the configured daemon socket or the workspace default.
func (e *Env) SocketPath() string {
	if e.Config.SocketPath != "" {
		return e.Config.SocketPath
	}
	return daemon.DefaultSocketPath(e.Config.Workspace)
}

// ClientConfig returns the daemon client settings.
func (e *Env) ClientConfig() daemon.ClientConfig {
	return daemon.ClientConfig{
		SocketPath: e.SocketPath(),
		Timeout:    e.Config.DaemonTimeout,
		Retry:      e.Config.DaemonRetry,
		Compress:   true,
	}
}

// ProjectGraph returns the workspace graph, asking a running daemon first
// unless the daemon is disabled.
func (e *Env) ProjectGraph(ctx context.Context) (*projectgraph.ProjectGraph, error) {
	eng, err := engine.New(e.Config.Workspace, e.Logger)
	if err != nil {
		return nil, err
	}
	if !e.Config.UseDaemon {
		return eng.Compute(ctx)
	}
	return daemon.Fetch(ctx, e.ClientConfig(), eng.Compute, e.Logger)
}
