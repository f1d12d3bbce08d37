package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// ErrAlreadyRunning is returned by Serve when another daemon owns the socket.
var ErrAlreadyRunning = errors.New("a daemon is already listening on the socket")

// DefaultSocketPath returns the socket a workspace's daemon listens on. It is
// stable for a given workspace root and distinct between roots.
func DefaultSocketPath(workspaceRoot string) string {
	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		root = workspaceRoot
	}
	sum := strconv.FormatUint(xxh3.HashString(root), 16)
	return filepath.Join(os.TempDir(), "workgraph-"+sum+".sock")
}

func address(socketPath string) string {
	return "ipc://" + socketPath
}

// removeStaleSocket deletes a socket file nothing listens on.
func removeStaleSocket(socketPath string) error {
	if _, err := os.Stat(socketPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	conn, err := net.DialTimeout("unix", socketPath, 200*time.Millisecond)
	if err == nil {
		conn.Close()
		return ErrAlreadyRunning
	}

	if err := os.Remove(socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket %s: %w", socketPath, err)
	}
	return nil
}
