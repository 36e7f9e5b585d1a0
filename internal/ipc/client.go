package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrDaemonUnavailable wraps dial failures so callers can tell "not running"
// apart from a failed command.
var ErrDaemonUnavailable = errors.New("daemon unavailable")

// Client sends one command per connection to the daemon socket.
type Client struct {
	SocketPath string
	Timeout    time.Duration
}

func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &Client{SocketPath: socketPath, Timeout: 5 * time.Second}
}

// Do writes cmd and reads back a single response.
func (c *Client) Do(ctx context.Context, cmd Command) (Response, error) {
	dialer := net.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", c.SocketPath)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s: %v", ErrDaemonUnavailable, c.SocketPath, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("failed to set deadline: %w", err)
	}

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return Response{}, fmt.Errorf("failed to send command %s: %w", cmd.Name, err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to read response to %s: %w", cmd.Name, err)
	}
	return resp, nil
}

// Call sends a timer command and decodes its status payload. A response with
// Success=false is returned as an error carrying the daemon's message.
func (c *Client) Call(ctx context.Context, name string, args interface{}) (StatusData, string, error) {
	resp, err := c.Do(ctx, Command{Name: name, Args: args})
	if err != nil {
		return StatusData{}, "", err
	}
	if !resp.Success {
		return StatusData{}, resp.Message, fmt.Errorf("%s: %s", name, resp.Message)
	}
	var status StatusData
	if err := Decode(resp.Data, &status); err != nil {
		return StatusData{}, resp.Message, err
	}
	return status, resp.Message, nil
}

func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Do(ctx, Command{Name: CmdPing})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("ping: %s", resp.Message)
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (StatusData, error) {
	status, _, err := c.Call(ctx, CmdGetStatus, nil)
	return status, err
}
