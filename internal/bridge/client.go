// Package bridge maintains the persistent WebSocket link to the UI.
package bridge

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"supervisor/internal/jsonx"
	"supervisor/internal/logging"
	"supervisor/internal/metrics"
)

const (
	pingInterval   = 20 * time.Second
	pingTimeout    = 20 * time.Second
	maxBackoff     = 10 * time.Second
	initialBackoff = 1 * time.Second
	outboundDepth  = 1000
)

// Message is an outbound Controller→Bridge frame.
type Message struct {
	Type  string `json:"type"`
	Text  any    `json:"text"`
	TabID int    `json:"tabId,omitempty"`
}

// Client dials url and keeps the connection alive with exponential backoff.
// Send enqueues without blocking; a dedicated writer drains the queue, and a
// write failure tears down the current connection attempt so the manager
// reconnects. Incoming text frames are decoded and handed to onIncoming.
type Client struct {
	url        string
	onIncoming func(map[string]any)
	logger     logging.Logger

	out  chan []byte
	stop chan struct{}

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool
	stopped bool
}

func New(url string, onIncoming func(map[string]any), logger logging.Logger) *Client {
	return &Client{
		url:        url,
		onIncoming: onIncoming,
		logger:     logging.OrNop(logger),
		out:        make(chan []byte, outboundDepth),
		stop:       make(chan struct{}),
	}
}

// Start launches the connection manager. Safe to call once.
func (c *Client) Start() {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	go c.run()
}

// Stop flips the stop flag and wakes the manager; the next backoff sleep or
// blocked read terminates.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	conn := c.conn
	c.mu.Unlock()

	close(c.stop)
	if conn != nil {
		_ = conn.Close()
	}
}

// Send serialises v and enqueues it. Never blocks: on overflow the oldest
// queued message is dropped so memory stays bounded through long outages.
func (c *Client) Send(v any) {
	payload, err := jsonx.Marshal(v)
	if err != nil {
		c.logger.Warn("drop unserialisable message: %v", err)
		return
	}
	for {
		select {
		case c.out <- payload:
			return
		default:
		}
		select {
		case <-c.out:
			metrics.BridgeDropped.Inc()
			c.logger.Warn("outbound queue full, dropped oldest")
		default:
		}
	}
}

// nextBackoff doubles the delay up to the ceiling: 1, 2, 4, 8, 10, 10, …
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (c *Client) run() {
	backoff := initialBackoff
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		connected, err := c.connectAndServe()
		if err != nil {
			c.logger.Warn("bridge disconnected: %v", err)
		}
		if connected {
			backoff = initialBackoff
		}

		select {
		case <-c.stop:
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
		metrics.BridgeReconnects.Inc()
	}
}

// connectAndServe runs one connection: dial, hello, then reader and writer
// until either side fails. connected reports whether the dial succeeded so
// the manager can reset its backoff.
func (c *Client) connectAndServe() (connected bool, err error) {
	c.logger.Info("connecting to %s", c.url)
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		_ = conn.Close()
		return true, nil
	}
	c.conn = conn
	c.mu.Unlock()

	defer func() {
		_ = conn.Close()
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
	}()

	c.logger.Info("bridge connected")

	// Hello precedes anything queued during the outage.
	var writeMu sync.Mutex
	hello, _ := jsonx.Marshal(Message{Type: "supervisor_connected", Text: "Supervisor is connected"})
	if err := writeMessage(conn, &writeMu, hello); err != nil {
		return true, err
	}

	// Transport-level keepalive: ping every pingInterval, expect traffic or a
	// pong within pingTimeout after that.
	_ = conn.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go c.writeLoop(conn, &writeMu, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
		c.deliver(raw)
	}
}

// writeLoop drains the outbound queue and sends pings. On any write failure
// it closes the connection, which unblocks the reader and triggers reconnect.
func (c *Client) writeLoop(conn *websocket.Conn, writeMu *sync.Mutex, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-c.stop:
			_ = conn.Close()
			return
		case payload := <-c.out:
			if err := writeMessage(conn, writeMu, payload); err != nil {
				c.logger.Warn("bridge send failed: %v", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingTimeout))
			writeMu.Unlock()
			if err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) deliver(raw []byte) {
	var msg map[string]any
	if err := jsonx.Unmarshal(raw, &msg); err != nil {
		msg = map[string]any{"type": "raw", "text": string(raw)}
	}
	if c.onIncoming == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("incoming handler panicked: %v", r)
		}
	}()
	c.onIncoming(msg)
}
