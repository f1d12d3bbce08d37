package daemon

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LegacyCodeHQ/workgraph/internal/logging"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// Fetch returns the graph served by the daemon at cfg.SocketPath, computing
// it in-process with build when the daemon is unavailable or times out.
// Failures the daemon reports are returned as *RemoteError, not retried.
func Fetch(ctx context.Context, cfg ClientConfig, build BuildFunc, logger *slog.Logger) (*projectgraph.ProjectGraph, error) {
	logger = logging.OrDiscard(logger)

	client, err := Dial(cfg)
	if err != nil {
		logger.Debug("daemon unavailable, building in-process", slog.Any("error", err))
		return build(ctx)
	}
	defer client.Close()

	g, err := client.Hello(ctx)
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) {
		logger.Warn("daemon did not serve the graph, building in-process", slog.Any("error", err))
		return build(ctx)
	}
	return g, err
}
