// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/chatrelay/internal/chat"
)

const (
	pongWait      = 60 * time.Second
	pingInterval  = 54 * time.Second
	writeWait     = 10 * time.Second
	sendQueueSize = 256
)

// Client represents one WebSocket connection in the relay. It owns the
// socket's read and write pumps; everything it reads is handed to the hub as
// a raw frame tagged with the connection identity.
type Client struct {
	id          chat.ConnID
	conn        *websocket.Conn
	send        chan []byte
	hub         *Hub
	addr        string
	closed      bool
	rateLimiter *rateLimiter
	logger      *slog.Logger
}

// NewClient creates a Client for an upgraded connection. The connection's
// read limit and rate limiter come from the server configuration.
func NewClient(id chat.ConnID, conn *websocket.Conn, hub *Hub, addr string, cfg *Config, logger *slog.Logger) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendQueueSize),
		hub:         hub,
		addr:        addr,
		rateLimiter: newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill),
		logger:      logger.With("conn", string(id), "addr", addr),
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// handleReadError logs the error by category and always ends the read loop.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("message exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Debug("client disconnected", "error", err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		c.logger.Debug("connection closed", "error", err)
	default:
		c.logger.Warn("websocket read error", "error", err)
	}
}

func (c *Client) readPump() {
	defer func() {
		// The hub's event loop may already be gone during shutdown; never
		// block on it.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Error("closing connection in readPump", "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		if c.rateLimiter != nil && !c.rateLimiter.allow() {
			c.logger.Warn("rate limit exceeded; discarding message")
			continue
		}

		select {
		case c.hub.inbound <- inboundFrame{conn: c.id, data: rawMessage}:
		case <-c.hub.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Error("closing connection in writePump", "error", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("setting write deadline", "error", err)
				return
			}
			if !ok {
				// The hub closed the send channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					c.logger.Error("writing close message", "error", err)
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Error("writing message", "error", err)
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("setting write deadline for ping", "error", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Error("writing ping message", "error", err)
				}
				return
			}
		}
	}
}
