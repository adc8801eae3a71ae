// internal/device/client.go
package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/velectric-tools/velectric2mqtt/internal/protocol"
)

// Client owns one websocket connection to a VElectric Load Manager.
// It is driven by a single goroutine: the protocol is strictly
// request-then-response, so Poll is never called concurrently and no
// pipelining is attempted.
type Client struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
	conn    *websocket.Conn
}

// Config is minimal transport config.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration // per-exchange bound, also used for dialing
}

// New creates an unconnected client.
func New(cfg Config) *Client {
	return &Client{
		url:     fmt.Sprintf("ws://%s/ws", net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))),
		timeout: cfg.Timeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.Timeout,
		},
	}
}

// URL returns the device endpoint, for logs.
func (c *Client) URL() string { return c.url }

// Connect establishes the websocket transport. No-op when already
// connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, c.url, err)
	}

	c.conn = conn
	return nil
}

// Poll performs exactly one request/response exchange: one write of the
// poll command, one read of the reply. The deadline is the configured
// timeout, tightened by ctx if it expires earlier.
//
// Error contract:
//   - ErrTimeout: no reply within the bound
//   - ErrConnection: transport closed/reset during the exchange
//   - *protocol.BadFrameError: reply received but not a valid frame;
//     the connection itself is still usable
func (c *Client) Poll(ctx context.Context) (protocol.Reading, error) {
	if c.conn == nil {
		return protocol.Reading{}, fmt.Errorf("%w: not connected", ErrConnection)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return protocol.Reading{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, []byte{protocol.RequestByte}); err != nil {
		return protocol.Reading{}, classify("write", err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return protocol.Reading{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	msgType, payload, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.Reading{}, classify("read", err)
	}

	if msgType != websocket.BinaryMessage {
		return protocol.Reading{}, &protocol.BadFrameError{Length: len(payload)}
	}

	return protocol.Decode(payload)
}

// Close releases the transport. Idempotent; safe on every exit path.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	// Best-effort close handshake, then tear down the socket.
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	err := c.conn.Close()
	c.conn = nil
	return err
}

// classify maps a transport failure onto the error taxonomy.
func classify(op string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrConnection, op, err)
}
