package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/ralphkit/ralphkit/internal/debug"
)

// ClientVersion is the version of this RPC client.
// It should match the rk CLI version for proper compatibility checks.
var ClientVersion = "0.3.0"

// Client represents an RPC client that connects to the daemon
type Client struct {
	conn       net.Conn
	socketPath string
	timeout    time.Duration
	actor      string
}

// TryConnect attempts to connect to the daemon socket.
// Returns nil (without error) if no daemon is running or it is unhealthy,
// so callers can fall back to direct storage access.
func TryConnect(socketPath string) (*Client, error) {
	if !endpointExists(socketPath) {
		return nil, nil
	}

	conn, err := dialRPC(socketPath, 2*time.Second)
	if err != nil {
		debug.Logf("failed to dial socket: %v", err)
		return nil, nil
	}

	client := &Client{
		conn:       conn,
		socketPath: socketPath,
		timeout:    30 * time.Second,
	}

	health, err := client.Health()
	if err != nil {
		debug.Logf("health check failed: %v", err)
		_ = conn.Close()
		return nil, nil
	}
	if health.Status == "unhealthy" {
		debug.Logf("daemon unhealthy: %s", health.Error)
		_ = conn.Close()
		return nil, nil
	}

	return client, nil
}

// Close closes the connection to the daemon
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SetTimeout sets the request timeout duration
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// SetActor sets the actor identity attached to subsequent requests
func (c *Client) SetActor(actor string) {
	c.actor = actor
}

// Execute sends an RPC request and waits for a response
func (c *Client) Execute(operation string, args interface{}) (*Response, error) {
	req, err := NewRequest(operation, args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}
	req.Actor = c.actor

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	writer := bufio.NewWriter(c.conn)
	if _, err := writer.Write(reqJSON); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return nil, fmt.Errorf("failed to write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush: %w", err)
	}

	reader := bufio.NewReader(c.conn)
	respLine, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respLine, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !resp.Success {
		return &resp, fmt.Errorf("operation failed: %s", resp.Error)
	}
	return &resp, nil
}

// Ping verifies the daemon is alive
func (c *Client) Ping() error {
	_, err := c.Execute(OpPing, nil)
	return err
}

// Health fetches the daemon health report
func (c *Client) Health() (*HealthResponse, error) {
	resp, err := c.Execute(OpHealth, nil)
	if err != nil {
		return nil, err
	}
	var health HealthResponse
	if err := resp.UnmarshalData(&health); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health response: %w", err)
	}
	return &health, nil
}
