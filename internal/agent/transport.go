package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultRetryDelay is the fixed pause between reconnect attempts. No
// backoff growth, no attempt cap; the expected failure mode is a backend
// that is not up yet.
const DefaultRetryDelay = 3 * time.Second

// ErrNotConnected is returned by Send when the duplex channel is not open.
var ErrNotConnected = fmt.Errorf("websocket not connected")

// Connector owns at most one live duplex channel to the agent endpoint and
// transparently recovers from drops. Inbound frames are decoded and handed
// to the FrameHandler in arrival order; malformed frames are logged and
// skipped without killing the connection.
type Connector struct {
	url        string
	handler    FrameHandler
	logger     *slog.Logger
	retryDelay time.Duration
	dialer     *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	done      chan struct{}
	closeOnce sync.Once
}

// ConnectorOpts holds parameters for creating a Connector.
type ConnectorOpts struct {
	URL        string
	Handler    FrameHandler
	Logger     *slog.Logger
	RetryDelay time.Duration // defaults to DefaultRetryDelay
}

// NewConnector creates a Connector. Call Start to begin dialing.
func NewConnector(opts ConnectorOpts) (*Connector, error) {
	if opts.Handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	retry := opts.RetryDelay
	if retry <= 0 {
		retry = DefaultRetryDelay
	}
	return &Connector{
		url:        opts.URL,
		handler:    opts.Handler,
		logger:     opts.Logger,
		retryDelay: retry,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		done:       make(chan struct{}),
	}, nil
}

// Start launches the connect/read loop in its own goroutine. The loop runs
// until Close is called, redialing after every drop.
func (c *Connector) Start() {
	go c.run()
}

func (c *Connector) run() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			c.logger.Warn("websocket dial failed", "url", c.url, "error", err)
			if !c.wait() {
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.connected = true
		c.mu.Unlock()
		c.logger.Info("websocket connected", "url", c.url)

		c.readLoop(conn)

		c.mu.Lock()
		c.connected = false
		c.conn = nil
		c.mu.Unlock()

		c.handler.HandleDisconnect()

		select {
		case <-c.done:
			return
		default:
			c.logger.Info("websocket disconnected, reconnecting", "delay", c.retryDelay)
		}
		if !c.wait() {
			return
		}
	}
}

// readLoop pumps frames until the connection drops.
func (c *Connector) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("ignoring malformed frame", "error", err)
			continue
		}
		c.handler.HandleFrame(frame)
	}
}

// wait sleeps for the retry delay, returning false if Close happened first.
func (c *Connector) wait() bool {
	select {
	case <-c.done:
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}

// Connected reports whether the duplex channel is currently open.
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send writes a task request to the agent. It fails with ErrNotConnected
// when the channel is not open; callers then use the fallback path instead.
func (c *Connector) Send(req TaskRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	return nil
}

// Close disables the reconnect loop and tears down any open connection.
// No further reconnects occur after Close.
func (c *Connector) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn != nil {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		}
		c.logger.Info("websocket connector closed")
	})
	return nil
}
