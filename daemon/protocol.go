package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/golang/snappy"
)

// MessageType names a request or response on the daemon channel.
type MessageType string

const (
	MessageHello  MessageType = "hello"
	MessagePing   MessageType = "ping"
	MessageStop   MessageType = "stop"
	MessageGraph  MessageType = "graph"
	MessageStatus MessageType = "status"
	MessageError  MessageType = "error"
)

const (
	ClientGreeting = "hello from client"
	ServerGreeting = "hello back from server"
)

// Request is sent by a client. Every request gets exactly one Response.
type Request struct {
	ID       string      `json:"id"`
	Type     MessageType `json:"type"`
	Message  string      `json:"message,omitempty"`
	Compress bool        `json:"compress,omitempty"`
}

// Response answers a Request with the same ID. Graph is set for graph
// responses, Status for status responses and Error for error responses.
type Response struct {
	ID      string                     `json:"id"`
	Type    MessageType                `json:"type"`
	Message string                     `json:"message,omitempty"`
	Graph   *projectgraph.ProjectGraph `json:"graph,omitempty"`
	Status  *Status                    `json:"status,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

// Status describes a running daemon.
type Status struct {
	PID       int       `json:"pid"`
	Workspace string    `json:"workspace"`
	StartedAt time.Time `json:"startedAt"`
	Builds    int64     `json:"builds"`
	LastBuild time.Time `json:"lastBuild,omitzero"`
	Watching  bool      `json:"watching"`
	Fresh     bool      `json:"fresh"`
}

// Responses are framed with one leading byte naming the encoding.
const (
	frameJSON   byte = 'j'
	frameSnappy byte = 's'
)

var errEmptyFrame = errors.New("empty response frame")

func encodeResponse(resp *Response, compress bool) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	if compress {
		return append([]byte{frameSnappy}, snappy.Encode(nil, data)...), nil
	}
	return append([]byte{frameJSON}, data...), nil
}

func decodeResponse(frame []byte) (*Response, error) {
	if len(frame) == 0 {
		return nil, errEmptyFrame
	}

	data := frame[1:]
	switch frame[0] {
	case frameJSON:
	case frameSnappy:
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress response: %w", err)
		}
		data = decoded
	default:
		return nil, fmt.Errorf("unknown response frame %q", frame[0])
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}
