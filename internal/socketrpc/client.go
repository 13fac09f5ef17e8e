package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/killfeed/internal/model"
)

const (
	callTimeout = 30 * time.Second
	dialTimeout = 5 * time.Second
)

// Client implements model.ControlAPI over a Unix domain socket using JSON-RPC 2.0.
// A connection that fails mid-call is discarded and redialed on the next call.
type Client struct {
	socketPath string

	mu      sync.Mutex
	closed  bool
	conn    net.Conn
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	c := &Client{socketPath: socketPath}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// connect opens a fresh connection. Callers hold mu, except Dial.
func (c *Client) connect() error {
	conn, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	c.conn = conn
	c.scanner = scanner
	c.encoder = json.NewEncoder(conn)
	return nil
}

// discard drops a connection whose stream state is no longer trustworthy.
func (c *Client) discard() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.scanner = nil
	c.encoder = nil
}

// Close closes the underlying connection. Later calls fail without redialing.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.scanner = nil
	c.encoder = nil
	return err
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(ctx context.Context, method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}

	if c.closed {
		return fmt.Errorf("socketrpc: client closed")
	}
	if c.conn == nil {
		if err := c.connect(); err != nil {
			return err
		}
	}

	c.nextID++
	id := c.nextID

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	conn := c.conn
	deadline := time.Now().Add(callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)
	defer conn.SetDeadline(time.Time{})

	// Unblock the read if the caller gives up early.
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if err := c.encoder.Encode(req); err != nil {
		c.discard()
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		err := c.scanner.Err()
		c.discard()
		if err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		c.discard()
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}
	if resp.ID != id {
		c.discard()
		return fmt.Errorf("socketrpc: response id %d, want %d", resp.ID, id)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) Snapshot() (model.Snapshot, error) {
	var result model.Snapshot
	err := c.call(context.Background(), "Snapshot", map[string]interface{}{}, &result)
	return result, err
}

func (c *Client) StartSession(ctx context.Context, req model.StartRequest) error {
	return c.call(ctx, "StartSession", map[string]interface{}{"Request": req}, nil)
}

func (c *Client) StopSession() (bool, error) {
	var result bool
	err := c.call(context.Background(), "StopSession", map[string]interface{}{}, &result)
	return result, err
}

func (c *Client) RecentDispatches(limit int) ([]model.DispatchEntry, error) {
	var result []model.DispatchEntry
	err := c.call(context.Background(), "RecentDispatches", map[string]interface{}{"Limit": limit}, &result)
	return result, err
}

var _ model.ControlAPI = (*Client)(nil)
