package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/google/uuid"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/req"
)

var (
	// ErrUnavailable means no daemon is listening on the socket.
	ErrUnavailable = errors.New("daemon is not running")
	// ErrTimeout means the daemon did not answer in time.
	ErrTimeout = errors.New("daemon did not respond in time")
)

// RemoteError carries a failure the daemon reported instead of a result.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "daemon: " + e.Message
}

const DefaultTimeout = 30 * time.Second

// ClientConfig configures a Client.
type ClientConfig struct {
	SocketPath string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// Retry resends an unanswered request after this interval. Zero disables it.
	Retry time.Duration
	// Compress asks the daemon for snappy-compressed responses.
	Compress bool
}

// Client talks to a daemon. It is safe for concurrent use.
type Client struct {
	cfg  ClientConfig
	sock mangos.Socket
}

// Dial connects to the daemon at cfg.SocketPath. It returns ErrUnavailable
// right away when nothing listens there.
func Dial(cfg ClientConfig) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if _, err := os.Stat(cfg.SocketPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no socket at %s", ErrUnavailable, cfg.SocketPath)
	}

	sock, err := req.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create client socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionDialAsynch, false); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to configure client socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionRetryTime, cfg.Retry); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to configure client socket: %w", err)
	}
	if err := sock.Dial(address(cfg.SocketPath)); err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Client{cfg: cfg, sock: sock}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.sock.Close()
}

// Hello performs the handshake and returns the graph the daemon computed.
func (c *Client) Hello(ctx context.Context) (*projectgraph.ProjectGraph, error) {
	resp, err := c.roundTrip(ctx, MessageHello, ClientGreeting)
	if err != nil {
		return nil, err
	}
	if resp.Type != MessageGraph || resp.Graph == nil {
		return nil, fmt.Errorf("unexpected daemon response %q to hello", resp.Type)
	}
	return resp.Graph, nil
}

// Ping returns the daemon's status without triggering a recomputation.
func (c *Client) Ping(ctx context.Context) (*Status, error) {
	resp, err := c.roundTrip(ctx, MessagePing, "")
	if err != nil {
		return nil, err
	}
	if resp.Type != MessageStatus || resp.Status == nil {
		return nil, fmt.Errorf("unexpected daemon response %q to ping", resp.Type)
	}
	return resp.Status, nil
}

// Stop asks the daemon to shut down.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.roundTrip(ctx, MessageStop, "")
	return err
}

func (c *Client) roundTrip(ctx context.Context, msgType MessageType, message string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mctx, err := c.sock.OpenContext()
	if err != nil {
		return nil, fmt.Errorf("failed to open client context: %w", err)
	}
	defer mctx.Close()

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, ErrTimeout
	}
	_ = mctx.SetOption(mangos.OptionSendDeadline, timeout)
	_ = mctx.SetOption(mangos.OptionRecvDeadline, timeout)

	request := Request{ID: uuid.NewString(), Type: msgType, Message: message, Compress: c.cfg.Compress}
	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if err := mctx.Send(data); err != nil {
		if errors.Is(err, mangos.ErrSendTimeout) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	frame, err := mctx.Recv()
	if err != nil {
		if errors.Is(err, mangos.ErrRecvTimeout) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := decodeResponse(frame)
	if err != nil {
		return nil, err
	}
	if resp.ID != "" && resp.ID != request.ID {
		return nil, fmt.Errorf("daemon answered request %s with %s", request.ID, resp.ID)
	}
	if resp.Type == MessageError {
		return nil, &RemoteError{Message: resp.Error}
	}
	return resp, nil
}
