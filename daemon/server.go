// Package daemon keeps a workspace's project graph behind a local socket so
// that repeated tool invocations skip the full scan.
//
// The channel is a nanomsg REQ/REP socket over ipc://. Every hello request
// triggers a recomputation; concurrent requests attach to the recomputation
// already in flight. With watching enabled the last graph is served until the
// workspace changes.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LegacyCodeHQ/workgraph/internal/logging"
	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/go-playground/validator/v10"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"
	"golang.org/x/sync/singleflight"

	// ipc:// transport
	_ "go.nanomsg.org/mangos/v3/transport/ipc"
)

// BuildFunc computes a fresh project graph.
type BuildFunc func(ctx context.Context) (*projectgraph.ProjectGraph, error)

const (
	DefaultWorkers = 4
	pollInterval   = 250 * time.Millisecond
	sendTimeout    = 5 * time.Second
)

var validate = validator.New()

// ServerConfig configures a Server.
type ServerConfig struct {
	SocketPath string `validate:"required"`
	// Workspace is the directory watched for changes and reported in status.
	Workspace string `validate:"required_if=Watch true"`
	// Workers is the number of requests served concurrently.
	Workers int `validate:"gte=0"`
	// Watch serves the last graph until a workspace change is observed.
	Watch bool
	// MetricsAddr, when set, exposes Prometheus metrics over HTTP at /metrics.
	MetricsAddr string `validate:"omitempty,hostname_port"`
	Logger      *slog.Logger
}

// Server answers daemon requests for one workspace.
type Server struct {
	cfg     ServerConfig
	build   BuildFunc
	logger  *slog.Logger
	metrics *metrics

	inflight  singleflight.Group
	startedAt time.Time
	builds    atomic.Int64

	// generation counts observed workspace changes. A snapshot is current
	// only while snapshotGen equals it.
	generation atomic.Int64

	mu          sync.Mutex
	snapshot    *projectgraph.ProjectGraph
	snapshotGen int64
	lastBuild   time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewServer validates cfg and returns a server computing graphs with build.
func NewServer(cfg ServerConfig, build BuildFunc) (*Server, error) {
	if build == nil {
		return nil, errors.New("daemon server requires a build function")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid daemon configuration: %w", err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}

	s := &Server{
		cfg:     cfg,
		build:   build,
		logger:  logging.OrDiscard(cfg.Logger),
		metrics: newMetrics(),
		stopCh:  make(chan struct{}),
	}
	return s, nil
}

// Serve listens on the configured socket and answers requests until ctx is
// done or a stop request arrives. The socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := removeStaleSocket(s.cfg.SocketPath); err != nil {
		return err
	}

	sock, err := rep.NewSocket()
	if err != nil {
		return fmt.Errorf("failed to create daemon socket: %w", err)
	}
	defer sock.Close()

	if err := sock.Listen(address(s.cfg.SocketPath)); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.SocketPath, err)
	}
	defer os.Remove(s.cfg.SocketPath)

	s.startedAt = time.Now()
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	for i := 0; i < s.cfg.Workers; i++ {
		mctx, err := sock.OpenContext()
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to open daemon socket context: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer mctx.Close()
			s.serveContext(serveCtx, mctx)
		}()
	}

	if s.cfg.Watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watchWorkspace(serveCtx, s.cfg.Workspace, s.invalidate, s.logger); err != nil {
				errCh <- err
			}
		}()
	}

	var metricsServer *http.Server
	if s.cfg.MetricsAddr != "" {
		listener, err := net.Listen("tcp", s.cfg.MetricsAddr)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to listen for metrics on %s: %w", s.cfg.MetricsAddr, err)
		}
		metricsServer = &http.Server{Handler: s.metrics.handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	s.logger.Info("daemon listening",
		slog.String("socket", s.cfg.SocketPath),
		slog.Int("workers", s.cfg.Workers),
		slog.Bool("watch", s.cfg.Watch))

	var serveErr error
	select {
	case <-ctx.Done():
	case <-s.stopCh:
	case serveErr = <-errCh:
	}

	cancel()
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	wg.Wait()

	s.logger.Info("daemon stopped", slog.Int64("builds", s.builds.Load()))
	return serveErr
}

// Stop makes Serve return. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// serveContext answers requests arriving on one socket context.
func (s *Server) serveContext(ctx context.Context, mctx mangos.Context) {
	_ = mctx.SetOption(mangos.OptionRecvDeadline, pollInterval)
	_ = mctx.SetOption(mangos.OptionSendDeadline, sendTimeout)

	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := mctx.Recv()
		if errors.Is(err, mangos.ErrRecvTimeout) {
			continue
		}
		if err != nil {
			if !errors.Is(err, mangos.ErrClosed) {
				s.logger.Warn("daemon receive failed", slog.Any("error", err))
			}
			return
		}

		req, resp := s.handle(ctx, msg)
		frame, err := encodeResponse(resp, req.Compress)
		if err != nil {
			s.logger.Error("failed to encode daemon response", slog.Any("error", err))
			frame, _ = encodeResponse(&Response{ID: req.ID, Type: MessageError, Error: err.Error()}, false)
		}
		if err := mctx.Send(frame); err != nil {
			s.logger.Warn("daemon send failed", slog.String("request", req.ID), slog.Any("error", err))
		}

		if req.Type == MessageStop {
			s.Stop()
		}
	}
}

// handle decodes one request and builds its response.
func (s *Server) handle(ctx context.Context, msg []byte) (Request, *Response) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		s.metrics.requestsTotal.WithLabelValues("invalid").Inc()
		return req, &Response{Type: MessageError, Error: fmt.Sprintf("malformed request: %v", err)}
	}

	logger := s.logger.With(slog.String("request", req.ID), slog.String("type", string(req.Type)))
	logger.Debug("daemon request received")

	switch req.Type {
	case MessageHello:
		s.metrics.requestsTotal.WithLabelValues(string(req.Type)).Inc()
		g, err := s.graph(ctx)
		if err != nil {
			logger.Error("project graph recomputation failed", slog.Any("error", err))
			return req, &Response{ID: req.ID, Type: MessageError, Error: err.Error()}
		}
		return req, &Response{ID: req.ID, Type: MessageGraph, Message: ServerGreeting, Graph: g}

	case MessagePing:
		s.metrics.requestsTotal.WithLabelValues(string(req.Type)).Inc()
		return req, &Response{ID: req.ID, Type: MessageStatus, Status: s.status()}

	case MessageStop:
		s.metrics.requestsTotal.WithLabelValues(string(req.Type)).Inc()
		return req, &Response{ID: req.ID, Type: MessageStatus, Message: "stopping", Status: s.status()}

	default:
		s.metrics.requestsTotal.WithLabelValues("invalid").Inc()
		return req, &Response{ID: req.ID, Type: MessageError, Error: fmt.Sprintf("unknown request type %q", req.Type)}
	}
}

// graph returns the graph for a hello request. Without watching, or when the
// workspace changed, it recomputes; concurrent callers share one computation.
func (s *Server) graph(ctx context.Context) (*projectgraph.ProjectGraph, error) {
	if s.cfg.Watch {
		if snapshot := s.currentSnapshot(); snapshot != nil {
			s.metrics.snapshotHitsTotal.Inc()
			return snapshot, nil
		}
	}

	v, err, shared := s.inflight.Do("graph", func() (any, error) {
		// Changes seen while computing leave the result behind the generation.
		gen := s.generation.Load()
		start := time.Now()

		g, err := s.build(ctx)
		s.metrics.recordRecompute(err, time.Since(start))
		s.builds.Add(1)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.snapshot = g
		s.snapshotGen = gen
		s.lastBuild = time.Now()
		s.mu.Unlock()

		s.logger.Debug("project graph recomputed",
			slog.Int("projects", len(g.Nodes)),
			slog.Duration("elapsed", time.Since(start)))
		return g, nil
	})
	if shared {
		s.metrics.sharedResultsTotal.Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(*projectgraph.ProjectGraph), nil
}

// currentSnapshot returns the last graph if no workspace change was observed
// since its computation started, and nil otherwise.
func (s *Server) currentSnapshot() *projectgraph.ProjectGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil || s.snapshotGen != s.generation.Load() {
		return nil
	}
	return s.snapshot
}

func (s *Server) invalidate() {
	fresh := s.currentSnapshot() != nil
	s.generation.Add(1)
	if fresh {
		s.metrics.invalidationsTotal.Inc()
		s.logger.Debug("workspace changed, snapshot invalidated")
	}
}

func (s *Server) status() *Status {
	s.mu.Lock()
	lastBuild := s.lastBuild
	s.mu.Unlock()

	return &Status{
		PID:       os.Getpid(),
		Workspace: s.cfg.Workspace,
		StartedAt: s.startedAt,
		Builds:    s.builds.Load(),
		LastBuild: lastBuild,
		Watching:  s.cfg.Watch,
		Fresh:     s.cfg.Watch && s.currentSnapshot() != nil,
	}
}
