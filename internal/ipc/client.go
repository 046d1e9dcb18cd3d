package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/palmwm/internal/compositor"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the socket at socketPath. Use
// runtimepath.SocketPath to find the daemon's default socket.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(cmd CommandType, payload interface{}) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = raw
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload, out interface{}) error {
	resp, err := c.sendRequest(cmd, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetOutputs retrieves the output layout.
func (c *Client) GetOutputs() ([]compositor.OutputInfo, error) {
	var data OutputsData
	if err := c.call(CommandGetOutputs, nil, &data); err != nil {
		return nil, err
	}
	return data.Outputs, nil
}

// GetStack retrieves the mapped views, topmost first.
func (c *Client) GetStack() ([]compositor.ViewInfo, error) {
	var data StackData
	if err := c.call(CommandGetStack, nil, &data); err != nil {
		return nil, err
	}
	return data.Views, nil
}

// GetSeats retrieves every seat.
func (c *Client) GetSeats() ([]compositor.SeatInfo, error) {
	var data SeatsData
	if err := c.call(CommandGetSeats, nil, &data); err != nil {
		return nil, err
	}
	return data.Seats, nil
}

// Resolve asks what is under a layout point.
func (c *Client) Resolve(x, y float64) (*compositor.Resolution, error) {
	var res compositor.Resolution
	if err := c.call(CommandResolve, ResolvePayload{X: x, Y: y}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Focus gives a view keyboard focus on seat.
func (c *Client) Focus(seat, view string) error {
	return c.call(CommandFocus, FocusPayload{Seat: seat, View: view}, nil)
}

// CycleFocus moves focus on seat to the next view and returns it.
func (c *Client) CycleFocus(seat string) (string, error) {
	var data CycleFocusData
	if err := c.call(CommandCycleFocus, CycleFocusPayload{Seat: seat}, &data); err != nil {
		return "", err
	}
	return data.Focus, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
