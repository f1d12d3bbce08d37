package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LegacyCodeHQ/workgraph/cmd/cmdutil"
	"github.com/LegacyCodeHQ/workgraph/daemon"
	"github.com/LegacyCodeHQ/workgraph/engine"
	"github.com/spf13/cobra"
)

const controlTimeout = 5 * time.Second

type daemonOptions struct {
	workspace   string
	watch       bool
	workers     int
	metricsAddr string
}

// NewCommand returns a new daemon command instance.
func NewCommand() *cobra.Command {
	opts := &daemonOptions{}

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run or control the workspace graph daemon",
		Long: `Run or control the daemon that serves a workspace's project graph over a
local socket.

Examples:
  workgraph daemon start --watch
  workgraph daemon status
  workgraph daemon stop`,
	}
	cmd.PersistentFlags().StringVarP(&opts.workspace, "workspace", "w", "", "Workspace root (default: current directory)")

	start := &cobra.Command{
		Use:   "start",
		Short: "Serve the project graph in the foreground until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}
	start.Flags().BoolVar(&opts.watch, "watch", false, "Serve the last graph until a workspace change is seen")
	start.Flags().IntVar(&opts.workers, "workers", 0, "Requests served concurrently (default from configuration)")
	start.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Expose Prometheus metrics at host:port/metrics")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, opts)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.AddCommand(start, stop, status)
	return cmd
}

func runStart(cmd *cobra.Command, opts *daemonOptions) error {
	env, err := cmdutil.Load(opts.workspace)
	if err != nil {
		return err
	}

	eng, err := engine.New(env.Config.Workspace, env.Logger)
	if err != nil {
		return err
	}

	cfg := daemon.ServerConfig{
		SocketPath:  env.SocketPath(),
		Workspace:   env.Config.Workspace,
		Workers:     env.Config.DaemonWorkers,
		Watch:       env.Config.DaemonWatch || opts.watch,
		MetricsAddr: env.Config.MetricsAddr,
		Logger:      env.Logger,
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}

	server, err := daemon.NewServer(cfg, eng.Compute)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Daemon for %s listening on %s\n", cfg.Workspace, cfg.SocketPath)
	if err := server.Serve(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (use 'workgraph daemon stop' first)", err)
		}
		return err
	}
	return nil
}

func runStop(cmd *cobra.Command, opts *daemonOptions) error {
	client, err := dial(opts)
	if errors.Is(err, daemon.ErrUnavailable) {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No daemon is running.")
		return err
	}
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), controlTimeout)
	defer cancel()
	if err := client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped.")
	return err
}

func runStatus(cmd *cobra.Command, opts *daemonOptions) error {
	client, err := dial(opts)
	if errors.Is(err, daemon.ErrUnavailable) {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No daemon is running.")
		return err
	}
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), controlTimeout)
	defer cancel()
	status, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("failed to query daemon: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Workspace: %s\n", status.Workspace)
	fmt.Fprintf(out, "PID:       %d\n", status.PID)
	fmt.Fprintf(out, "Uptime:    %s\n", time.Since(status.StartedAt).Round(time.Second))
	fmt.Fprintf(out, "Builds:    %d\n", status.Builds)
	if !status.LastBuild.IsZero() {
		fmt.Fprintf(out, "Last:      %s\n", status.LastBuild.Format(time.RFC3339))
	}
	if status.Watching {
		fmt.Fprintf(out, "Watching:  yes (fresh: %t)\n", status.Fresh)
	} else {
		fmt.Fprintln(out, "Watching:  no")
	}
	return nil
}

func dial(opts *daemonOptions) (*daemon.Client, error) {
	env, err := cmdutil.Load(opts.workspace)
	if err != nil {
		return nil, err
	}
	cfg := env.ClientConfig()
	cfg.Timeout = controlTimeout
	return daemon.Dial(cfg)
}
