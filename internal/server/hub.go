// Package server coordinates client registration, frame dispatch, and
// connection cleanup for the chat relay via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/chatrelay/internal/chat"
)

// Core handles connection lifecycle and decoded inbound events. It is
// implemented by chat.Controller.
type Core interface {
	HandleConnect(conn chat.ConnID)
	HandleDisconnect(conn chat.ConnID)
	HandleEvent(conn chat.ConnID, event chat.Event)
}

// inboundFrame is one raw client frame tagged with its connection identity.
type inboundFrame struct {
	conn chat.ConnID
	data []byte
}

// outEnvelope is the outbound frame format: {"event": ..., "data": ...}.
type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub owns the connection table and runs the single event loop that
// serializes every core mutation: registration, disconnect handling, and
// inbound event dispatch all happen on the Run goroutine, so the core's
// handlers execute one at a time. The Hub also implements chat.Sender for
// outbound deliveries.
type Hub struct {
	clients    map[chat.ConnID]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	core       Core
	logger     *slog.Logger
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub ready to manage WebSocket connections. A Core must be
// attached with SetCore before Run is called.
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[chat.ConnID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// SetCore attaches the lifecycle controller. The hub and controller
// reference each other, so the controller is built after the hub and
// attached here before Run starts.
func (h *Hub) SetCore(core Core) {
	h.core = core
}

// Run starts the hub's main event loop. It should be called in a separate
// goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn("received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case frame := <-h.inbound:
			event, err := chat.DecodeEvent(frame.data)
			if err != nil {
				h.logger.Warn("dropping undecodable frame", "conn", string(frame.conn), "error", err)
				continue
			}
			h.core.HandleEvent(frame.conn, event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.logger.Info("client registered", "conn", string(client.id), "addr", client.addr, "total", clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	h.core.HandleConnect(client.id)
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	_, present := h.clients[client.id]
	if present {
		delete(h.clients, client.id)
		client.closed = true
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if present {
		// Close the channel after releasing the lock. Clients dropped for a
		// full send buffer were already closed by dropClients and only reach
		// here to notify the core.
		close(client.send)
	}
	h.logger.Info("client unregistered", "conn", string(client.id), "total", clientCount)

	h.core.HandleDisconnect(client.id)
}

// Send implements chat.Sender for a single connection. Unknown connections
// are a no-op.
func (h *Hub) Send(conn chat.ConnID, event string, data any) {
	payload, ok := h.marshalEnvelope(event, data)
	if !ok {
		return
	}

	h.mutex.RLock()
	client := h.clients[conn]
	h.mutex.RUnlock()
	if client == nil {
		return
	}

	if !h.trySend(client, payload) {
		h.dropClients([]*Client{client})
	}
}

// Broadcast implements chat.Sender for all connected clients.
func (h *Hub) Broadcast(event string, data any) {
	h.BroadcastExcept("", event, data)
}

// BroadcastExcept implements chat.Sender for all clients except one.
func (h *Hub) BroadcastExcept(exclude chat.ConnID, event string, data any) {
	payload, ok := h.marshalEnvelope(event, data)
	if !ok {
		return
	}

	var failed []*Client
	for _, client := range h.clientSnapshot() {
		if client.id == exclude {
			continue
		}
		if !h.trySend(client, payload) {
			failed = append(failed, client)
		}
	}
	h.dropClients(failed)
}

func (h *Hub) marshalEnvelope(event string, data any) ([]byte, bool) {
	payload, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshaling outbound envelope", "event", event, "error", err)
		return nil, false
	}
	return payload, true
}

func (h *Hub) clientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// trySend queues the payload without blocking. The send channel may be
// closed concurrently, so the send is guarded by the registration check and
// a recover.
func (h *Hub) trySend(client *Client, payload []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn("recovered from panic in trySend", "panic", r)
			ok = false
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client.id]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// dropClients removes clients whose send buffers are full and closes their
// channels.
func (h *Hub) dropClients(failed []*Client) {
	if len(failed) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range failed {
		if _, exists := h.clients[client.id]; exists {
			delete(h.clients, client.id)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			h.logger.Warn("client removed due to full send buffer", "conn", string(client.id))
		}
	}
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

func (h *Hub) shutdownClients() {
	h.logger.Info("shutting down all client connections")

	clients := h.clientSnapshot()
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.logger.Error("closing client connection", "addr", client.addr, "error", err)
			}
		}
	}

	h.logger.Info("closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for the event
// loop and client goroutines to finish, or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("initiating hub shutdown")

	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.logger.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("hub shutdown timeout reached")
		return context.DeadlineExceeded
	}
}
