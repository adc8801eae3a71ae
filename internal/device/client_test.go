// internal/device/client_test.go
package device

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/velectric-tools/velectric2mqtt/internal/protocol"
)

// startDevice runs a fake Load Manager: an httptest server that
// upgrades /ws and hands the connection to handle.
func startDevice(t *testing.T, handle func(conn *websocket.Conn)) *Client {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().(*net.TCPAddr)
	return New(Config{Host: "127.0.0.1", Port: addr.Port, Timeout: 500 * time.Millisecond})
}

// replyWith answers each poll request with the given payloads, in order.
func replyWith(t *testing.T, payloads ...[]byte) func(conn *websocket.Conn) {
	t.Helper()
	return func(conn *websocket.Conn) {
		for _, p := range payloads {
			mt, req, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage || len(req) != 1 || req[0] != protocol.RequestByte {
				t.Errorf("unexpected request: type=%d payload=%v", mt, req)
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
				return
			}
		}
		// keep the connection open until the client goes away
		_, _, _ = conn.ReadMessage()
	}
}

// ---- tests ----

func TestPoll_DecodesFrame(t *testing.T) {
	c := startDevice(t, replyWith(t, protocol.Encode(400, 900)))
	defer c.Close()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	r, err := c.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll err=%v", err)
	}
	if r.CT1 != 20.0 || r.CT2 != 30.0 {
		t.Fatalf("expected 20.0/30.0, got %v/%v", r.CT1, r.CT2)
	}
}

func TestPoll_ShortFrameKeepsConnection(t *testing.T) {
	c := startDevice(t, replyWith(t, make([]byte, 10), protocol.Encode(4, 9)))
	defer c.Close()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	_, err := c.Poll(context.Background())
	var bad *protocol.BadFrameError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadFrameError, got %v", err)
	}
	if bad.Length != 10 {
		t.Fatalf("expected reported length 10, got %d", bad.Length)
	}

	// Same connection must still serve the next cycle.
	r, err := c.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll after bad frame err=%v", err)
	}
	if r.CT1 != 2.0 || r.CT2 != 3.0 {
		t.Fatalf("expected 2.0/3.0, got %v/%v", r.CT1, r.CT2)
	}
}

func TestPoll_TextMessageIsBadFrame(t *testing.T) {
	c := startDevice(t, func(conn *websocket.Conn) {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		_, _, _ = conn.ReadMessage()
	})
	defer c.Close()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	_, err := c.Poll(context.Background())
	var bad *protocol.BadFrameError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadFrameError, got %v", err)
	}
}

func TestPoll_Timeout(t *testing.T) {
	c := startDevice(t, func(conn *websocket.Conn) {
		// swallow the request, never answer
		_, _, _ = conn.ReadMessage()
		time.Sleep(2 * time.Second)
	})
	defer c.Close()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	start := time.Now()
	_, err := c.Poll(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
		t.Fatalf("poll did not respect timeout: %v", elapsed)
	}
}

func TestPoll_ContextDeadlineTightensBound(t *testing.T) {
	c := startDevice(t, func(conn *websocket.Conn) {
		// swallow the request, never answer
		_, _, _ = conn.ReadMessage()
		time.Sleep(2 * time.Second)
	})
	defer c.Close()

	// Generous client timeout; the caller's context is the tighter bound.
	c.timeout = 30 * time.Second

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Poll(ctx)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
		t.Fatalf("poll outlived the context deadline: %v", elapsed)
	}
}

func TestPoll_ClosedByPeer(t *testing.T) {
	c := startDevice(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
		_ = conn.Close()
	})
	defer c.Close()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	_, err := c.Poll(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestPoll_NotConnected(t *testing.T) {
	c := New(Config{Host: "127.0.0.1", Port: 80, Timeout: time.Second})

	_, err := c.Poll(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	// Port from a listener that is already closed again.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	c := New(Config{Host: "127.0.0.1", Port: port, Timeout: 500 * time.Millisecond})

	if err := c.Connect(context.Background()); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	c := startDevice(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("first Close err=%v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close err=%v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("third Close err=%v", err)
	}
}
