// Package client speaks the framed store protocol. The frontend routers use
// it to forward requests to the backend stores; the e2e tests use it as a
// real client.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"emarket/internal/protocol"
)

// Response is the client-side envelope; Data stays raw so callers decode it
// into the shape they expect.
type Response struct {
	ReqID string          `json:"req_id"`
	OK    bool            `json:"ok"`
	Error *string         `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// ErrorCode returns the wire error code, or "" on success.
func (r *Response) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// DecodeData unmarshals the response data into v.
func (r *Response) DecodeData(v any) error {
	return json.Unmarshal(r.Data, v)
}

// Client holds one connection to a store. Calls are serialized: the protocol
// is strictly one response per request in order.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	role   string
}

// Dial connects to a store.
func Dial(addr, role string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		role:   role,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends one request and waits for its response. A fresh req_id is
// generated and checked against the echo. The context deadline, if any,
// bounds the whole round trip.
func (c *Client) Call(ctx context.Context, action string, data any) (*Response, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req := protocol.Request{
		ReqID:  uuid.NewString(),
		Role:   c.role,
		Action: action,
		Data:   payload,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if err := protocol.Encode(c.conn, req); err != nil {
		return nil, fmt.Errorf("send %s: %w", action, err)
	}

	var resp Response
	if err := protocol.Decode(c.reader, protocol.DefaultMaxFrameBytes, &resp); err != nil {
		return nil, fmt.Errorf("recv %s: %w", action, err)
	}
	if resp.ReqID != req.ReqID {
		return nil, fmt.Errorf("recv %s: response for req %q, want %q", action, resp.ReqID, req.ReqID)
	}
	return &resp, nil
}
