package daemon

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseFrames(t *testing.T) {
	resp := &Response{ID: "r1", Type: MessageGraph, Message: ServerGreeting, Graph: sampleGraph()}

	for _, compress := range []bool{false, true} {
		frame, err := encodeResponse(resp, compress)
		require.NoError(t, err)
		if compress {
			assert.Equal(t, frameSnappy, frame[0])
		} else {
			assert.Equal(t, frameJSON, frame[0])
		}

		decoded, err := decodeResponse(frame)
		require.NoError(t, err)
		assert.Equal(t, resp, decoded)
	}
}

func TestDecodeResponse_Malformed(t *testing.T) {
	_, err := decodeResponse(nil)
	assert.ErrorIs(t, err, errEmptyFrame)

	_, err = decodeResponse([]byte("x{}"))
	assert.Error(t, err)

	_, err = decodeResponse([]byte("snot snappy"))
	assert.Error(t, err)

	_, err = decodeResponse([]byte("j{"))
	assert.Error(t, err)
}

func TestDefaultSocketPath(t *testing.T) {
	a := DefaultSocketPath("/work/a")

	assert.Equal(t, a, DefaultSocketPath("/work/a"))
	assert.Equal(t, a, DefaultSocketPath("/work/a/"))
	assert.NotEqual(t, a, DefaultSocketPath("/work/b"))
	assert.Equal(t, os.TempDir(), filepath.Dir(a))
	assert.Equal(t, ".sock", filepath.Ext(a))
}

func TestRemoveStaleSocket(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		assert.NoError(t, removeStaleSocket(socketPath(t)))
	})

	t.Run("stale file", func(t *testing.T) {
		path := socketPath(t)
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		require.NoError(t, removeStaleSocket(path))
		assert.NoFileExists(t, path)
	})

	t.Run("live listener", func(t *testing.T) {
		path := socketPath(t)
		listener, err := net.Listen("unix", path)
		require.NoError(t, err)
		defer listener.Close()

		assert.ErrorIs(t, removeStaleSocket(path), ErrAlreadyRunning)
		assert.FileExists(t, path)
	})
}

func TestIsRelevantChange(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: "/ws/libs/a/index.ts", Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: "/ws/libs/a/new.ts", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/ws/libs/a/old.ts", Op: fsnotify.Remove}, true},
		{"rename", fsnotify.Event{Name: "/ws/libs/a/old.ts", Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: "/ws/libs/a/index.ts", Op: fsnotify.Chmod}, false},
		{"node_modules created", fsnotify.Event{Name: "/ws/node_modules", Op: fsnotify.Create}, false},
		{"dist created", fsnotify.Event{Name: "/ws/apps/a/dist", Op: fsnotify.Create}, false},
		{"workspace under build dir", fsnotify.Event{Name: "/build/ws/index.ts", Op: fsnotify.Write}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRelevantChange(tt.event))
		})
	}
}
