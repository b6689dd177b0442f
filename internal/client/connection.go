package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/stridewm/stride/internal/models"
)

// Connection manages the unix domain socket connection to the daemon.
type Connection struct {
	socketPath string
	conn       net.Conn
	reader     *bufio.Reader
	timeout    time.Duration
}

// NewConnection creates a connection instance without dialing.
func NewConnection(socketPath string, timeout time.Duration) *Connection {
	return &Connection{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// Connect dials the unix socket.
func (c *Connection) Connect() error {
	var err error
	c.conn, err = net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w (is the daemon running?)", c.socketPath, err)
	}
	c.reader = bufio.NewReader(c.conn)
	return nil
}

// Close closes the connection.
func (c *Connection) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendRequest writes one envelope and waits for its response line.
func (c *Connection) SendRequest(ctx context.Context, req *models.MessageEnvelope) (*models.Response, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	respChan := make(chan *models.Response, 1)
	errChan := make(chan error, 1)
	go func() {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			errChan <- fmt.Errorf("set read deadline: %w", err)
			return
		}
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			errChan <- fmt.Errorf("read response: %w", err)
			return
		}
		var envelope models.MessageEnvelope
		if err := json.Unmarshal(line, &envelope); err != nil {
			errChan <- fmt.Errorf("unmarshal response: %w", err)
			return
		}
		if envelope.Type != "response" || envelope.Response == nil {
			errChan <- fmt.Errorf("expected a response envelope, got %q", envelope.Type)
			return
		}
		respChan <- envelope.Response
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("request cancelled or timed out: %w", ctx.Err())
	case err := <-errChan:
		return nil, err
	case resp := <-respChan:
		return resp, nil
	}
}

// IsConnected reports whether the socket has been dialed.
func (c *Connection) IsConnected() bool {
	return c.conn != nil
}
