package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	errClientClosed = errors.New("connection closed")
	errTenantBound  = errors.New("tenant already bound")
)

// transport is the slice of *websocket.Conn the hub writes through. Tests
// substitute a fake to exercise send failures without a network.
type transport interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client is one realtime connection. The tenant binding is set at most once,
// by a successful authenticate handshake, and is never rebound. A client holds
// at most one topic at a time; topic membership itself lives in the Hub, which
// keeps the client's copy in sync under its own lock.
type Client struct {
	id   string
	conn transport

	// writeMu serializes every data write to conn; gorilla connections do not
	// tolerate concurrent writers.
	writeMu sync.Mutex

	mu       sync.RWMutex
	tenantID int64
	authed   bool
	topic    string
	open     bool

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn transport) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		open: true,
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// TenantID reports the bound tenant; ok is false until authentication
// succeeds. An unbound client never receives broadcasts.
func (c *Client) TenantID() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenantID, c.authed
}

func (c *Client) bindTenant(tenantID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authed {
		return errTenantBound
	}
	c.tenantID = tenantID
	c.authed = true
	return nil
}

func (c *Client) Topic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topic
}

func (c *Client) setTopic(topic string) {
	c.mu.Lock()
	c.topic = topic
	c.mu.Unlock()
}

func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

func (c *Client) send(payload []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !c.IsOpen() {
		return errClientClosed
	}
	if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
		_ = d.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) ping(timeout time.Duration) error {
	if !c.IsOpen() {
		return errClientClosed
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// close transitions the client to its terminal state. Safe to call more than
// once; only the first call closes the transport and the done channel.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.open = false
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}
