package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/palmwm/internal/compositor"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload     CommandType = "RELOAD"
	CommandGetStatus  CommandType = "GET_STATUS"
	CommandGetOutputs CommandType = "GET_OUTPUTS"
	CommandGetStack   CommandType = "GET_STACK"
	CommandGetSeats   CommandType = "GET_SEATS"
	CommandResolve    CommandType = "RESOLVE"
	CommandFocus      CommandType = "FOCUS"
	CommandCycleFocus CommandType = "CYCLE_FOCUS"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	compositor.Status
	Backend       string `json:"backend"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Outputs []compositor.OutputInfo `json:"outputs"`
}

// StackData represents the data returned by GET_STACK, topmost view first
type StackData struct {
	Views []compositor.ViewInfo `json:"views"`
}

// SeatsData represents the data returned by GET_SEATS
type SeatsData struct {
	Seats []compositor.SeatInfo `json:"seats"`
}

type ResolvePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FocusPayload names the view to focus. An empty seat means the seat that
// saw input last.
type FocusPayload struct {
	Seat string `json:"seat,omitempty"`
	View string `json:"view"`
}

type CycleFocusPayload struct {
	Seat string `json:"seat,omitempty"`
}

type CycleFocusData struct {
	Focus string `json:"focus,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
