package hyperliquidevents

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// pingInterval keeps the connection alive; Hyperliquid drops sockets that
// are silent for 60 seconds.
const pingInterval = 50 * time.Second

// Client is a streaming client for the Hyperliquid WebSocket API. It
// subscribes to per-user orderUpdates and userFills channels and delivers
// raw messages; callers decide what to do with them.
type Client struct {
	logger *zap.Logger
	wsURL  string

	mu   sync.Mutex
	conn *websocket.Conn

	msgCh chan []byte
	errCh chan error

	statsMu       sync.RWMutex
	messageCount  uint64
	lastMessageAt time.Time
}

// Stats holds connection statistics for monitoring.
type Stats struct {
	MessageCount  uint64
	LastMessageAt time.Time
}

func NewClient(logger *zap.Logger, wsURL string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		logger: logger,
		wsURL:  wsURL,
		msgCh:  make(chan []byte, 256),
		errCh:  make(chan error, 16),
	}
}

// Connect dials the WebSocket and subscribes to orderUpdates and userFills
// for every address. The connection is closed when ctx is canceled.
func (c *Client) Connect(ctx context.Context, addresses []string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.wsURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	for _, addr := range addresses {
		if err := c.subscribeUser(addr); err != nil {
			_ = c.Close()
			return fmt.Errorf("subscribe %s: %w", addr, err)
		}
	}

	go c.readLoop()
	go c.pingLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	c.logger.Info("websocket connected",
		zap.String("url", c.wsURL),
		zap.Int("addresses", len(addresses)),
	)

	return nil
}

func (c *Client) subscribeUser(address string) error {
	for _, subType := range []string{"orderUpdates", "userFills"} {
		msg := map[string]any{
			"method": "subscribe",
			"subscription": map[string]any{
				"type": subType,
				"user": address,
			},
		}
		if err := c.writeJSON(msg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case c.errCh <- err:
			default:
			}
			return
		}

		c.statsMu.Lock()
		c.messageCount++
		c.lastMessageAt = time.Now()
		c.statsMu.Unlock()

		select {
		case c.msgCh <- data:
		default:
			// Slow consumer; dropping is fine, polling remains the
			// source of truth.
			c.logger.Debug("dropped websocket message, channel full")
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeJSON(map[string]string{"method": "ping"}); err != nil {
				return
			}
		}
	}
}

// Messages returns the channel of raw WebSocket messages.
func (c *Client) Messages() <-chan []byte {
	return c.msgCh
}

// Errors returns the channel of read errors.
func (c *Client) Errors() <-chan error {
	return c.errCh
}

// Stats returns connection statistics.
func (c *Client) Stats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return Stats{
		MessageCount:  c.messageCount,
		LastMessageAt: c.lastMessageAt,
	}
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// envelope is the outer shape of every Hyperliquid WebSocket message.
type envelope struct {
	Channel string `json:"channel"`
}

// ParseChannel extracts the channel name from a raw message, or "" if the
// message doesn't parse.
func ParseChannel(msg []byte) string {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return ""
	}
	return env.Channel
}

// userEnvelope is the shape of per-user channel payloads.
type userEnvelope struct {
	Channel string `json:"channel"`
	Data    struct {
		User string `json:"user"`
	} `json:"data"`
}

// ParseUser extracts the wallet address from a per-user channel message,
// or "" when not present.
func ParseUser(msg []byte) string {
	var env userEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return ""
	}
	return env.Data.User
}
