// Package config resolves runtime settings from the environment and an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvWorkspace     = "WORKGRAPH_WORKSPACE"
	EnvSocket        = "WORKGRAPH_SOCKET"
	EnvDaemonTimeout = "WORKGRAPH_DAEMON_TIMEOUT"
	EnvDaemonRetry   = "WORKGRAPH_DAEMON_RETRY"
	EnvUseDaemon     = "WORKGRAPH_USE_DAEMON"
	EnvDaemonWatch   = "WORKGRAPH_DAEMON_WATCH"
	EnvDaemonWorkers = "WORKGRAPH_DAEMON_WORKERS"
	EnvMetricsAddr   = "WORKGRAPH_METRICS_ADDR"
	EnvLogLevel      = "WORKGRAPH_LOG_LEVEL"
)

const (
	DefaultDaemonTimeout = 30 * time.Second
	DefaultDaemonWorkers = 4
)

type Config struct {
	// Workspace is the workspace root directory.
	Workspace string
	// SocketPath overrides the daemon socket derived from the workspace root.
	SocketPath string
	// DaemonTimeout bounds a single daemon request, including recomputation.
	DaemonTimeout time.Duration
	// DaemonRetry is the interval after which an unanswered request is resent.
	// Zero disables resending.
	DaemonRetry time.Duration
	// UseDaemon makes commands ask the daemon before building in-process.
	UseDaemon     bool
	DaemonWatch   bool
	DaemonWorkers int
	MetricsAddr   string
	LogLevel      slog.Level
}

// Load reads .env when present and then the environment. Unset variables
// take their defaults; malformed values are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Workspace:     firstNonEmpty(strings.TrimSpace(os.Getenv(EnvWorkspace)), "."),
		SocketPath:    strings.TrimSpace(os.Getenv(EnvSocket)),
		DaemonTimeout: DefaultDaemonTimeout,
		UseDaemon:     true,
		DaemonWorkers: DefaultDaemonWorkers,
		MetricsAddr:   strings.TrimSpace(os.Getenv(EnvMetricsAddr)),
		LogLevel:      slog.LevelWarn,
	}

	var err error
	if cfg.DaemonTimeout, err = durationEnv(EnvDaemonTimeout, cfg.DaemonTimeout); err != nil {
		return nil, err
	}
	if cfg.DaemonRetry, err = durationEnv(EnvDaemonRetry, 0); err != nil {
		return nil, err
	}
	if cfg.UseDaemon, err = boolEnv(EnvUseDaemon, cfg.UseDaemon); err != nil {
		return nil, err
	}
	if cfg.DaemonWatch, err = boolEnv(EnvDaemonWatch, false); err != nil {
		return nil, err
	}
	if cfg.DaemonWorkers, err = intEnv(EnvDaemonWorkers, cfg.DaemonWorkers); err != nil {
		return nil, err
	}
	if cfg.DaemonWorkers < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", EnvDaemonWorkers, cfg.DaemonWorkers)
	}
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
	}

	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
