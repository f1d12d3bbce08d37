package cmdutil

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LegacyCodeHQ/workgraph/daemon"
	"github.com/LegacyCodeHQ/workgraph/engine"
	"github.com/LegacyCodeHQ/workgraph/internal/config"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		config.EnvWorkspace, config.EnvSocket, config.EnvDaemonTimeout, config.EnvDaemonRetry,
		config.EnvUseDaemon, config.EnvDaemonWatch, config.EnvDaemonWorkers, config.EnvMetricsAddr,
		config.EnvLogLevel,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"workgraph.yaml": `npmScope: acme
projects:
  app:
    root: apps/app
    projectType: application
    targets:
      serve:
        executor: "@acme/web:serve"
        options:
          port: 4200
          proxy: {retries: 3, paths: [/api]}
  lib:
    root: libs/lib
`,
		"apps/app/main.ts":  "import { x } from '@acme/lib';\n",
		"libs/lib/index.ts": "export const x = 1;\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestLoad_WorkspaceFlagWins(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvWorkspace, "/from/env")

	env, err := Load("/from/flag")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", env.Config.Workspace)

	env, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", env.Config.Workspace)
}

func TestEnv_SocketPath(t *testing.T) {
	clearEnv(t)

	env, err := Load("/ws")
	require.NoError(t, err)
	assert.Equal(t, daemon.DefaultSocketPath("/ws"), env.SocketPath())

	t.Setenv(config.EnvSocket, "/tmp/custom.sock")
	env, err = Load("/ws")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.sock", env.SocketPath())
	assert.Equal(t, "/tmp/custom.sock", env.ClientConfig().SocketPath)
}

func TestEnv_ProjectGraphWithoutDaemon(t *testing.T) {
	clearEnv(t)
	root := writeWorkspace(t)
	// Point at a socket nothing listens on so the in-process build runs.
	t.Setenv(config.EnvSocket, filepath.Join(t.TempDir(), "none.sock"))

	for _, useDaemon := range []string{"true", "false"} {
		t.Setenv(config.EnvUseDaemon, useDaemon)
		env, err := Load(root)
		require.NoError(t, err)

		g, err := env.ProjectGraph(context.Background())
		require.NoError(t, err)
		assert.True(t, g.HasDependency("app", "lib", "static"), "use daemon %s", useDaemon)
	}
}

func TestEnv_ProjectGraphFromDaemonEqualsInProcessBuild(t *testing.T) {
	clearEnv(t)
	root := writeWorkspace(t)
	dir, err := os.MkdirTemp("", "wg")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "d.sock")
	t.Setenv(config.EnvSocket, socket)

	eng, err := engine.New(root, nil)
	require.NoError(t, err)
	direct, err := eng.Compute(context.Background())
	require.NoError(t, err)

	var builds atomic.Int64
	server, err := daemon.NewServer(daemon.ServerConfig{SocketPath: socket}, func(ctx context.Context) (*projectgraph.ProjectGraph, error) {
		builds.Add(1)
		return eng.Compute(ctx)
	})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- server.Serve(context.Background()) }()
	t.Cleanup(func() {
		server.Stop()
		<-done
	})
	require.Eventually(t, func() bool {
		_, err := os.Stat(socket)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	env, err := Load(root)
	require.NoError(t, err)
	viaDaemon, err := env.ProjectGraph(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, builds.Load())
	assert.Equal(t, direct, viaDaemon)
	assert.Equal(t, float64(4200), viaDaemon.Nodes["app"].Targets["serve"].Options["port"])
}
