package chat

import (
	"fmt"
	"log/slog"
)

// Controller drives per-connection lifecycle and dispatches inbound events.
// The transport invokes it once per event from a single goroutine, so each
// handler runs to completion before the next begins.
type Controller struct {
	registry *Registry
	router   *Router
	sender   Sender
	logger   *slog.Logger
}

// NewController wires the lifecycle controller to its collaborators.
func NewController(registry *Registry, router *Router, sender Sender, logger *slog.Logger) *Controller {
	return &Controller{
		registry: registry,
		router:   router,
		sender:   sender,
		logger:   logger,
	}
}

// HandleConnect observes the arrival of a new, still unjoined connection.
func (c *Controller) HandleConnect(conn ConnID) {
	c.logger.Info("connection established", "conn", string(conn))
}

// HandleDisconnect tears the session down. If the connection had joined, the
// remaining sessions hear about the departure and everyone receives a fresh
// roster; an unjoined departure is silent.
func (c *Controller) HandleDisconnect(conn ConnID) {
	username, ok := c.registry.Unregister(conn)
	c.logger.Info("connection closed", "conn", string(conn), "username", username)
	if !ok {
		return
	}

	c.sender.BroadcastExcept(conn, EventUserDisconnected, fmt.Sprintf("%s left the chat", username))
	c.sender.Broadcast(EventOnlineUsers, c.registry.Presence())
}

// HandleEvent dispatches one decoded inbound event. The switch is exhaustive
// over the closed Event set.
func (c *Controller) HandleEvent(conn ConnID, event Event) {
	switch e := event.(type) {
	case Join:
		c.handleJoin(conn, e.Username)
	case Chat:
		c.router.BroadcastChat(conn, e.Text)
	case Private:
		c.router.PrivateMessage(conn, e.To, e.Message)
	case Typing:
		c.router.Typing(conn, e.To, e.Stop)
	case HistoryRequest:
		c.router.ChatHistory(conn, e.With)
	}
}

// handleJoin registers the session and announces it: a joined notice to
// everyone except the joiner, then the roster to all. When the username was
// held by another connection, that connection is told its session was
// replaced; a re-join on an already joined connection is a silent rename.
func (c *Controller) handleJoin(conn ConnID, username string) {
	displaced, previous := c.registry.Register(conn, username)
	if displaced != "" {
		c.sender.Send(displaced, EventSessionReplaced, fmt.Sprintf("another connection joined as %s", username))
	}

	c.sender.BroadcastExcept(conn, EventUserConnected, fmt.Sprintf("%s joined the chat", username))
	c.sender.Broadcast(EventOnlineUsers, c.registry.Presence())

	c.logger.Info("user joined", "conn", string(conn), "username", username,
		"renamed_from", previous, "displaced", string(displaced))
}
